package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Huddle/internal/adapters/directory"
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	url string
	hub *Hub
}

func startServer(t *testing.T, dir core.MeetingDirectory, opts Options) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	o := orch.New(app.NewRegistry(nil), app.NewRoomStore(nil), hub)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = o.Run(ctx) }()

	ctl := NewSignalWSController(o, hub, dir, opts)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("client_token", "tester")
		ctl.HandleSignal(ctx, c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &testServer{url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", hub: hub}
}

type client struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
}

func dial(t *testing.T, s *testServer) *client {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	c := &client{t: t, conn: conn}

	f := c.expect(core.EventConnected)
	var p core.Connected
	if err := json.Unmarshal(f.Data, &p); err != nil {
		t.Fatalf("connected payload: %v", err)
	}
	c.id = string(p.SocketID)
	return c
}

func (c *client) send(typ string, data any) {
	c.t.Helper()
	msg := map[string]any{"type": typ}
	if data != nil {
		msg["data"] = data
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		c.t.Fatalf("write %s: %v", typ, err)
	}
}

func (c *client) read(timeout time.Duration) (frame, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	var f frame
	err := c.conn.ReadJSON(&f)
	return f, err
}

// expect skips frames until one of type typ arrives.
func (c *client) expect(typ string) frame {
	c.t.Helper()
	for {
		f, err := c.read(2 * time.Second)
		if err != nil {
			c.t.Fatalf("waiting for %s: %v", typ, err)
		}
		if f.Type == typ {
			return f
		}
	}
}

func (c *client) join(room string) {
	c.t.Helper()
	c.send(core.EventJoin, map[string]string{"meetingId": room, "userId": c.id})
	c.expect(core.EventHostInfo)
}

func TestSignal_JoinAndRelayRealOffer(t *testing.T) {
	s := startServer(t, nil, Options{})
	a := dial(t, s)
	b := dial(t, s)

	a.join("r1")
	b.send(core.EventJoinMeeting, map[string]string{"meetingId": "r1", "userId": b.id})
	all := b.expect(core.EventAllUsers)
	var users []core.UserRef
	if err := json.Unmarshal(all.Data, &users); err != nil {
		t.Fatalf("allUsers: %v", err)
	}
	if len(users) != 1 || string(users[0].UserID) != a.id {
		t.Fatalf("allUsers = %s", all.Data)
	}
	joined := a.expect(core.EventUserJoined)
	if !strings.Contains(string(joined.Data), b.id) {
		t.Fatalf("userJoined = %s", joined.Data)
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatalf("peer: %v", err)
	}
	defer pc.Close()
	if _, err := pc.CreateDataChannel("chat", nil); err != nil {
		t.Fatalf("data channel: %v", err)
	}
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	signal, err := json.Marshal(offer)
	if err != nil {
		t.Fatalf("marshal offer: %v", err)
	}

	b.send(core.EventSendingSignal, map[string]any{
		"userToSignal": a.id,
		"callerID":     b.id,
		"signal":       json.RawMessage(signal),
	})
	got := a.expect(core.EventReceivingSignal)
	var rs struct {
		Signal   json.RawMessage `json:"signal"`
		CallerID string          `json:"callerID"`
	}
	if err := json.Unmarshal(got.Data, &rs); err != nil {
		t.Fatalf("receivingSignal: %v", err)
	}
	if string(rs.Signal) != string(signal) || rs.CallerID != b.id {
		t.Fatalf("signal altered:\n got %s\nwant %s", rs.Signal, signal)
	}
	var relayed webrtc.SessionDescription
	if err := json.Unmarshal(rs.Signal, &relayed); err != nil || relayed.SDP != offer.SDP {
		t.Fatalf("relayed offer unusable: %v", err)
	}

	a.send(core.EventReturningSignal, map[string]any{"signal": map[string]string{"type": "answer", "sdp": "v=0"}, "callerID": b.id})
	back := b.expect(core.EventReceivingReturnedSignal)
	if !strings.Contains(string(back.Data), `"id":"`+a.id+`"`) {
		t.Fatalf("receivingReturnedSignal = %s", back.Data)
	}
}

func TestSignal_DisconnectNotifiesPeers(t *testing.T) {
	s := startServer(t, nil, Options{})
	a := dial(t, s)
	b := dial(t, s)
	a.join("r1")
	b.join("r1")

	a.conn.Close()
	left := b.expect(core.EventUserLeft)
	if !strings.Contains(string(left.Data), a.id) {
		t.Fatalf("userLeft = %s", left.Data)
	}
	hc := b.expect(core.EventHostChanged)
	if !strings.Contains(string(hc.Data), b.id) {
		t.Fatalf("hostChanged = %s", hc.Data)
	}
}

func TestSignal_MalformedFrameIsDropped(t *testing.T) {
	s := startServer(t, nil, Options{})
	a := dial(t, s)

	if err := a.conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	a.send("bogus", nil)
	a.send(core.EventJoin, nil)
	a.send(core.EventPing, nil)
	a.expect(core.EventPong)
}

func TestSignal_RateLimitDropsFrames(t *testing.T) {
	s := startServer(t, nil, Options{RatePerSecond: 0.001, RateBurst: 2})
	a := dial(t, s)

	for range 5 {
		a.send(core.EventPing, nil)
	}
	pongs := 0
	for {
		f, err := a.read(300 * time.Millisecond)
		if err != nil {
			break
		}
		if f.Type == core.EventPong {
			pongs++
		}
	}
	if pongs != 2 {
		t.Fatalf("pongs = %d, want 2", pongs)
	}
}

func TestSignal_DirectoryGatesJoin(t *testing.T) {
	dir := directory.NewMemory()
	if _, err := dir.CreateMeeting(context.Background(), "Weekly", "abc-defg-hij"); err != nil {
		t.Fatalf("create: %v", err)
	}
	s := startServer(t, dir, Options{})
	a := dial(t, s)

	a.send(core.EventJoin, map[string]string{"meetingId": "nope", "userId": a.id})
	e := a.expect(core.EventError)
	if !strings.Contains(string(e.Data), msgMeetingNotFound) {
		t.Fatalf("error = %s", e.Data)
	}

	a.join("abc-defg-hij")
}

func TestHub_DeliverToUnknown(t *testing.T) {
	h := NewHub()
	if err := h.Deliver("ghost", core.Message{Type: core.EventPong}); err != core.ErrConnectionGone {
		t.Fatalf("err = %v", err)
	}
	if h.IsLive("ghost") {
		t.Fatalf("ghost reported live")
	}
	h.Kick("ghost")
}

type stubConn struct {
	frames []core.Frame
	limit  int
	closed bool
}

func (c *stubConn) TrySend(f core.Frame) error {
	if c.closed {
		return core.ErrConnectionGone
	}
	if len(c.frames) >= c.limit {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *stubConn) Close() { c.closed = true }

func TestHub_DeliverKickRemove(t *testing.T) {
	h := NewHub()
	c := &stubConn{limit: 1}
	h.Add("a", c)

	if err := h.Deliver("a", core.Message{Type: core.EventPong}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if string(c.frames[0]) != `{"type":"pong"}` {
		t.Fatalf("frame = %s", c.frames[0])
	}
	if err := h.Deliver("a", core.Message{Type: core.EventPong}); err != core.ErrBackpressure {
		t.Fatalf("full buffer: err = %v", err)
	}

	h.Kick("a")
	if !c.closed {
		t.Fatalf("kick did not close")
	}

	// a stale Remove from an older socket must not drop the new one
	h.Remove("a", &stubConn{})
	if !h.IsLive("a") {
		t.Fatalf("remove with foreign conn dropped a")
	}
	h.Remove("a", c)
	if h.IsLive("a") || h.Len() != 0 {
		t.Fatalf("a still live after remove")
	}
}
