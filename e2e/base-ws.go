package e2e

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"moodmatch/transport"
)

type BaseWSSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWSSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

// WSConn opens a WebSocket connection to the running server with logging and colors
func (s *BaseWSSuite) WSConn(t *testing.T, name string, token string) *websocket.Conn {
	// 1. Print a colorized header for the connection step in logs
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	// 2. Dial the live server
	url := fmt.Sprintf("ws://%s/ws", s.Config.ServerAddr)
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err, "Failed to connect to WebSocket server at "+s.Config.ServerAddr)
	return conn
}

// SendEvent marshals and writes one envelope, logging it if E2E_DEBUG_JSON is enabled
func (s *BaseWSSuite) SendEvent(t *testing.T, conn *websocket.Conn, env transport.Envelope) {
	raw, err := json.Marshal(env)
	s.Require().NoError(err)
	if s.Config.DebugJSON {
		t.Logf("SEND: %s", raw)
	}
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, raw))
}

// WaitEvent reads frames until the wanted event name arrives or the deadline passes
func (s *BaseWSSuite) WaitEvent(t *testing.T, conn *websocket.Conn, want string, timeout time.Duration) json.RawMessage {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(timeout)))
	for {
		_, raw, err := conn.ReadMessage()
		s.Require().NoError(err, "Timed out waiting for event "+want)
		if s.Config.DebugJSON {
			t.Logf("RECV: %s", raw)
		}
		var env transport.Envelope
		s.Require().NoError(json.Unmarshal(raw, &env))
		if env.Event == want {
			return env.Data
		}
	}
}
