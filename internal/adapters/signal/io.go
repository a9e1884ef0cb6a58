package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, sid domain.ConnectionID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid domain.ConnectionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		ctl.Hub.Remove(sid, c)
		c.Close()
		// The loop may already be gone on shutdown; nothing left to clean then.
		if err := ctl.Orch.Submit(context.Background(), sid, core.Disconnect{}); err != nil {
			log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("submit disconnect")
		}
	}()

	c.conn.SetReadLimit(ctl.Opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.pongWait()))
	})
	limiter := newConnLimiter(ctl.Opts.RatePerSecond, ctl.Opts.RateBurst)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.pongWait()))

		if !limiter.Allow() {
			metrics.RateLimitHits.Inc()
			log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("rate limited, frame dropped")
			continue
		}
		if err := ctl.handleFrame(ctx, sid, c, data); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("submit")
			return
		}
	}
}

// handleFrame decodes one frame and submits it. Only a failed submit is
// returned; bad frames are logged and dropped.
func (ctl *SignalWSController) handleFrame(ctx context.Context, sid domain.ConnectionID, c *WsSignalConn, data []byte) error {
	cmd, err := core.DecodeCommand(data)
	if err != nil {
		metrics.MalformedFrames.Inc()
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad frame")
		return nil
	}
	if j, ok := cmd.(core.Join); ok && !ctl.admitJoin(ctx, sid, c, j) {
		return nil
	}
	return ctl.Orch.Submit(ctx, sid, cmd)
}
