// Package rtc turns configured STUN/TURN servers into the ICE server list
// handed to browsers before they open peer connections.
package rtc

import (
	"github.com/dkeye/Huddle/internal/config"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const DefaultSTUN = "stun:stun.l.google.com:19302"

func DefaultICEServers() []webrtc.ICEServer {
	return []webrtc.ICEServer{
		{URLs: []string{DefaultSTUN}},
	}
}

// ICEServers converts configured servers; an empty list falls back to the
// public STUN server.
func ICEServers(servers []config.ICEServer) []webrtc.ICEServer {
	if len(servers) == 0 {
		return DefaultICEServers()
	}
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		srv := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != "" {
			srv.Username = s.Username
			srv.Credential = s.Credential
			srv.CredentialType = webrtc.ICECredentialTypePassword
		}
		out = append(out, srv)
	}
	log.Debug().Str("module", "rtc").Int("servers", len(out)).Msg("ice servers configured")
	return out
}

// Configuration is what a server-side pion peer would be built from.
func Configuration(servers []config.ICEServer) webrtc.Configuration {
	return webrtc.Configuration{ICEServers: ICEServers(servers)}
}
