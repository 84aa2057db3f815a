package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"moodmatch/auth"
	"moodmatch/domain"
	"moodmatch/mocks"
	"moodmatch/moderation"
	"moodmatch/observability"
	"moodmatch/runtime"
)

type wsFixture struct {
	server   *httptest.Server
	registry *runtime.Registry
	stats    *observability.StatsManager
	verifier auth.Verifier
	profiles *mocks.MockProfileSource
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	req := require.New(t)
	log := slog.Default()
	ctrl := gomock.NewController(t)

	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	req.NoError(err)

	registry := runtime.NewRegistry()
	stats := observability.NewStatsManager()
	dispatcher := runtime.NewDispatcher(log, registry, moderator, stats, 64, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = dispatcher.Run(ctx) }()

	verifier := auth.NewVerifier("test-secret")
	profiles := mocks.NewMockProfileSource(ctrl)
	handler := NewHandler(log, verifier, profiles, registry, dispatcher, stats, 16)

	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return &wsFixture{
		server:   server,
		registry: registry,
		stats:    stats,
		verifier: verifier,
		profiles: profiles,
	}
}

func (f *wsFixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readEvent blocks until the next frame with the wanted event name arrives.
func readEvent(t *testing.T, conn *websocket.Conn, want string) json.RawMessage {
	t.Helper()
	req := require.New(t)
	req.NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		req.NoError(err)
		var env Envelope
		req.NoError(json.Unmarshal(raw, &env))
		if env.Event == want {
			return env.Data
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, env Envelope) {
	t.Helper()
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

func startMatching(t *testing.T, conn *websocket.Conn) {
	send(t, conn, Envelope{Event: EventStartMatching})
}

func TestWebSocket_MatchChatAndLeave(t *testing.T) {
	req := require.New(t)
	f := newWSFixture(t)

	// Given two guest connections requesting a match
	alice := f.dial(t, "")
	bob := f.dial(t, "")
	startMatching(t, alice)
	startMatching(t, bob)

	// Then both sides receive matched with the same room id
	var matchedA, matchedB MatchedPayload
	req.NoError(json.Unmarshal(readEvent(t, alice, "matched"), &matchedA))
	req.NoError(json.Unmarshal(readEvent(t, bob, "matched"), &matchedB))
	req.Equal(matchedA.RoomID, matchedB.RoomID)
	req.Equal("Anonymous", matchedA.PartnerNickname)

	// When Alice posts a message containing a forbidden word
	payload, err := json.Marshal(ChatPayload{RoomID: matchedA.RoomID, User: "Alice", Text: "hello badger"})
	req.NoError(err)
	send(t, alice, Envelope{Event: EventChat, Data: payload})

	// Then only Bob receives it, censored
	var chat ChatOutPayload
	req.NoError(json.Unmarshal(readEvent(t, bob, "chat"), &chat))
	req.Equal("Alice", chat.User)
	req.Equal("hello ******", chat.Text)

	// When Alice leaves explicitly
	send(t, alice, Envelope{Event: EventUserDisconnect})

	// Then Bob is told his partner left
	var notice NoticePayload
	req.NoError(json.Unmarshal(readEvent(t, bob, "userLeft"), &notice))
	req.NotEmpty(notice.Message)
}

func TestWebSocket_TokenedConnectionCarriesStoredProfile(t *testing.T) {
	req := require.New(t)
	f := newWSFixture(t)

	// Given a stored profile behind a valid token
	token, err := f.verifier.Issue("bob@example.com", "Bob", time.Minute)
	req.NoError(err)
	f.profiles.EXPECT().
		Fetch("bob@example.com").
		Return(domain.ProfileSnapshot{
			UserID:       "bob@example.com",
			Nickname:     "Bob",
			Emotion:      "calm",
			EmotionColor: "#88c0d0",
		}, true, nil)

	bob := f.dial(t, token)
	alice := f.dial(t, "")
	startMatching(t, bob)
	startMatching(t, alice)

	// Then Alice's matched payload shows Bob's profile snapshot
	var matched MatchedPayload
	req.NoError(json.Unmarshal(readEvent(t, alice, "matched"), &matched))
	req.Equal("Bob", matched.PartnerNickname)
	req.Equal("#88c0d0", matched.PartnerEmotionColor)
}

func TestWebSocket_InvalidTokenFallsBackToGuest(t *testing.T) {
	req := require.New(t)
	f := newWSFixture(t)

	// Given one connection with a garbage token and one without
	alice := f.dial(t, "not-a-token")
	bob := f.dial(t, "")
	startMatching(t, alice)
	startMatching(t, bob)

	var matched MatchedPayload
	req.NoError(json.Unmarshal(readEvent(t, bob, "matched"), &matched))
	req.Equal("Anonymous", matched.PartnerNickname)
	req.True(strings.HasPrefix(matched.PartnerID, "guest-"))
}

func TestWebSocket_SocketCloseUnwindsState(t *testing.T) {
	req := require.New(t)
	f := newWSFixture(t)

	alice := f.dial(t, "")
	bob := f.dial(t, "")
	startMatching(t, alice)
	startMatching(t, bob)
	readEvent(t, alice, "matched")
	readEvent(t, bob, "matched")

	// When Alice's socket dies without an explicit leave
	req.NoError(alice.Close())

	// Then Bob still gets the userLeft notice
	var notice NoticePayload
	req.NoError(json.Unmarshal(readEvent(t, bob, "userLeft"), &notice))
	req.NotEmpty(notice.Message)

	// And the registry eventually forgets Alice
	req.Eventually(func() bool { return f.registry.Count() == 1 },
		2*time.Second, 20*time.Millisecond)
}
