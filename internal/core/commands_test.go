package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeCommand_Join(t *testing.T) {
	got, err := DecodeCommand([]byte(`{"type":"join","data":{"meetingId":"m1","userId":"u1"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	j, ok := got.(Join)
	if !ok {
		t.Fatalf("got %T, want Join", got)
	}
	if j.MeetingID != "m1" || j.UserID != "u1" {
		t.Fatalf("unexpected join: %#v", j)
	}
}

func TestDecodeCommand_JoinMeetingAlias(t *testing.T) {
	got, err := DecodeCommand([]byte(`{"type":"joinMeeting","data":{"meetingId":"m1"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := got.(Join); !ok {
		t.Fatalf("got %T, want Join", got)
	}
}

func TestDecodeCommand_SignalIsKeptOpaque(t *testing.T) {
	signal := `{"type":"offer","sdp":"v=0\r\no=- 1 2 IN IP4 127.0.0.1\r\n","extra":[1,2,{"x":null}]}`
	raw := `{"type":"sendingSignal","data":{"userToSignal":"b","callerID":"a","signal":` + signal + `}}`

	got, err := DecodeCommand([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	s, ok := got.(SendingSignal)
	if !ok {
		t.Fatalf("got %T, want SendingSignal", got)
	}
	if s.UserToSignal != "b" || s.CallerID != "a" {
		t.Fatalf("unexpected ids: %#v", s)
	}
	if !bytes.Equal(s.Signal, []byte(signal)) {
		t.Fatalf("signal changed:\n got %s\nwant %s", s.Signal, signal)
	}
}

func TestDecodeCommand_Toggles(t *testing.T) {
	got, err := DecodeCommand([]byte(`{"type":"toggleMute","data":{"meetingId":"m1","userId":"u","isMuted":true}}`))
	if err != nil {
		t.Fatalf("decode mute: %v", err)
	}
	if m, ok := got.(ToggleMute); !ok || !m.IsMuted || m.MeetingID != "m1" {
		t.Fatalf("unexpected mute: %#v", got)
	}

	got, err = DecodeCommand([]byte(`{"type":"toggleVideo","data":{"meetingId":"m1","isVideoOn":false}}`))
	if err != nil {
		t.Fatalf("decode video: %v", err)
	}
	if v, ok := got.(ToggleVideo); !ok || v.IsVideoOn {
		t.Fatalf("unexpected video: %#v", got)
	}
}

func TestDecodeCommand_PingWithoutData(t *testing.T) {
	got, err := DecodeCommand([]byte(`{"type":"ping"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := got.(Ping); !ok {
		t.Fatalf("got %T, want Ping", got)
	}
}

func TestDecodeCommand_Errors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `nope`, ErrBadEnvelope},
		{"missing type", `{"data":{}}`, ErrBadEnvelope},
		{"unknown", `{"type":"rename","data":{}}`, ErrUnknownCommand},
		{"missing data", `{"type":"endCall"}`, ErrBadPayload},
		{"wrong field type", `{"type":"toggleMute","data":{"isMuted":"yes"}}`, ErrBadPayload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeCommand([]byte(tc.raw)); !errors.Is(err, tc.want) {
				t.Fatalf("err=%v, want %v", err, tc.want)
			}
		})
	}
}

func TestMessage_EncodeOmitsEmptyData(t *testing.T) {
	b, err := Message{Type: EventPong}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(b) != `{"type":"pong"}` {
		t.Fatalf("got %s", b)
	}

	b, err = Message{Type: EventAllUsers, Data: []UserRef{{UserID: "a"}}}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var env struct {
		Type string    `json:"type"`
		Data []UserRef `json:"data"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != EventAllUsers || len(env.Data) != 1 || env.Data[0].UserID != "a" {
		t.Fatalf("unexpected: %s", b)
	}
}
