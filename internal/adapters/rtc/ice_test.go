package rtc

import (
	"testing"

	"github.com/dkeye/Huddle/internal/config"
	"github.com/pion/webrtc/v4"
)

func TestICEServers_Default(t *testing.T) {
	got := ICEServers(nil)
	if len(got) != 1 || got[0].URLs[0] != DefaultSTUN {
		t.Fatalf("default = %+v", got)
	}
}

func TestICEServers_TURNCredentials(t *testing.T) {
	got := ICEServers([]config.ICEServer{
		{URLs: []string{"stun:stun.example.org:3478"}},
		{URLs: []string{"turn:turn.example.org:3478?transport=udp"}, Username: "u", Credential: "p"},
	})
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Username != "" {
		t.Fatalf("stun server got credentials: %+v", got[0])
	}
	if got[1].Username != "u" || got[1].Credential != "p" || got[1].CredentialType != webrtc.ICECredentialTypePassword {
		t.Fatalf("turn = %+v", got[1])
	}
}

func TestConfiguration_UsableByPion(t *testing.T) {
	pc, err := webrtc.NewPeerConnection(Configuration([]config.ICEServer{
		{URLs: []string{"turn:turn.example.org:3478"}, Username: "u", Credential: "p"},
	}))
	if err != nil {
		t.Fatalf("new peer connection: %v", err)
	}
	defer pc.Close()
}
