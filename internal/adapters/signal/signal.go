// Package signal is the WebSocket side of the signaling server. Each
// connection gets a read pump that decodes commands and hands them to the
// event loop, and a write pump that drains a bounded send buffer.
package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	DefaultReadLimit  = 32768
	DefaultPingPeriod = 54 * time.Second
	DefaultSendBuffer = 32
)

// Submitter is the event loop as seen from the transport.
type Submitter interface {
	Submit(ctx context.Context, sid domain.ConnectionID, cmd core.Command) error
}

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
	// RatePerSecond <= 0 disables inbound rate limiting.
	RatePerSecond float64
	RateBurst     int
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = DefaultReadLimit
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = DefaultPingPeriod
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = DefaultSendBuffer
	}
	return o
}

// pongWait must exceed PingPeriod so one lost pong does not kill the peer.
func (o Options) pongWait() time.Duration {
	return o.PingPeriod * 10 / 9
}

type SignalWSController struct {
	Orch Submitter
	Hub  *Hub
	// Directory gates joins when set; nil means room ids are opaque.
	Directory core.MeetingDirectory
	Opts      Options
}

func NewSignalWSController(orch Submitter, hub *Hub, dir core.MeetingDirectory, opts Options) *SignalWSController {
	return &SignalWSController{
		Orch:      orch,
		Hub:       hub,
		Directory: dir,
		Opts:      opts.withDefaults(),
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, buffer),
	}
}

// TrySend never blocks: a full buffer is reported as core.ErrBackpressure.
func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnectionGone
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection until either side
// closes it or ctx is done.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	sid := domain.ConnectionID(uuid.NewString())

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client", token).Msg("new WS connection")

	conn := newWsSignalConn(ws, ctl.Opts.SendBuffer)
	ctl.Hub.Add(sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	if err := ctl.Orch.Submit(ctx, sid, core.Connect{UserID: domain.UserID(token)}); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("submit connect")
		cancel()
		ctl.Hub.Remove(sid, conn)
		conn.Close()
		return
	}

	go ctl.writePump(ctx, sid, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}
