package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	router "github.com/dkeye/Huddle/internal/adapters/http"
	"github.com/dkeye/Huddle/internal/adapters/directory"
	"github.com/dkeye/Huddle/internal/adapters/rtc"
	wssignal "github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signaling server",
	RunE:  runServe,
}

func init() {
	// "huddle" alone serves too, so both commands take the serve flags.
	addServeFlags(serveCmd.Flags())
	addServeFlags(rootCmd.Flags())
}

func addServeFlags(fs *pflag.FlagSet) {
	fs.Int("port", 8080, "HTTP listen port")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	setupLogger(cfg.Mode)

	dir, closeDir, err := directory.Open(ctx, cfg.Directory.Driver, cfg.Directory.DSN)
	if err != nil {
		return fmt.Errorf("open meeting directory: %w", err)
	}
	defer func() {
		if err := closeDir(); err != nil {
			log.Error().Err(err).Msg("close meeting directory")
		}
	}()

	reg := app.NewRegistry(nil)
	rooms := app.NewRoomStore(nil)
	hub := wssignal.NewHub()

	o := orch.New(reg, rooms, hub)
	o.Reaper = &app.Reaper{
		Rooms:     rooms,
		Registry:  reg,
		Interval:  cfg.Reaper.Interval,
		Retention: cfg.Reaper.Retention,
		IsLive:    hub.IsLive,
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- o.Run(ctx) }()

	ctl := wssignal.NewSignalWSController(o, hub, dir, wssignal.Options{
		ReadLimit:     cfg.ReadLimit,
		PingPeriod:    cfg.PingPeriod,
		SendBuffer:    cfg.SendBuffer,
		RatePerSecond: cfg.RateLimit.PerSecond,
		RateBurst:     cfg.RateLimit.Burst,
	})
	r := router.SetupRouter(ctx, cfg, router.Deps{
		Signal:     ctl,
		Stats:      o,
		ICEServers: rtc.ICEServers(cfg.ICEServers),
		StartedAt:  time.Now(),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Huddle server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("event loop")
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
