package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "huddle",
	Short: "Meeting signaling server",
	Long: `Huddle relays WebRTC offers, answers and ICE candidates between the
participants of a meeting and keeps everyone's view of the room in sync.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default config/config.$CONFIG_ENV.yaml)")
	pf.String("mode", "release", "gin mode: debug, release or test")

	rootCmd.AddCommand(serveCmd, meetingCmd)
}

// setupLogger writes JSON lines, or human readable output in debug mode.
func setupLogger(mode string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if mode == "debug" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	// Console output until the config says otherwise.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("huddle failed")
		os.Exit(1)
	}
}
