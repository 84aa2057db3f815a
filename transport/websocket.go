package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"moodmatch/auth"
	"moodmatch/contract"
	"moodmatch/domain"
	"moodmatch/observability"
	"moodmatch/runtime"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period, must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	// disconnectGrace bounds how long a closing connection may wait to
	// hand its Disconnect command to the dispatcher.
	disconnectGrace = 5 * time.Second
)

// Handler upgrades HTTP requests to WebSocket sessions and runs one read
// pump and one write pump per connection. The read pump translates frames
// into dispatcher commands; the write pump drains the connection's sink.
type Handler struct {
	log        *slog.Logger
	upgrader   websocket.Upgrader
	verifier   auth.Verifier
	profiles   contract.ProfileSource
	registry   *runtime.Registry
	dispatcher *runtime.Dispatcher
	stats      *observability.StatsManager
	sinkBuffer int
}

func NewHandler(log *slog.Logger, verifier auth.Verifier, profiles contract.ProfileSource,
	registry *runtime.Registry, dispatcher *runtime.Dispatcher,
	stats *observability.StatsManager, sinkBuffer int) *Handler {
	return &Handler{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The diary web app and this service run on different origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		verifier:   verifier,
		profiles:   profiles,
		registry:   registry,
		dispatcher: dispatcher,
		stats:      stats,
		sinkBuffer: sinkBuffer,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	identity, guest, profile := h.resolveIdentity(r)
	connID := uuid.NewString()
	participant := domain.NewParticipant(connID, identity, guest, profile)
	sink := NewSink(h.sinkBuffer)

	if err := h.registry.Register(connID, participant, sink); err != nil {
		h.log.Error("Failed to register connection", "conn_id", connID, "error", err)
		_ = conn.Close()
		return
	}
	h.stats.ConnOpened()
	if guest {
		h.stats.GuestSession()
	}
	h.log.Info("Connection established",
		"conn_id", connID, "identity", identity, "guest", guest)

	done := make(chan struct{})
	go h.writePump(conn, connID, sink, done)
	h.readPump(conn, connID)
	close(done)

	// The Disconnect command must reach the dispatcher even under load,
	// otherwise the waiting pool or a room would keep a dead connection.
	ctx, cancel := context.WithTimeout(context.Background(), disconnectGrace)
	defer cancel()
	if err := h.dispatcher.SubmitWait(ctx, domain.Disconnect{Conn: connID, Reason: "connection closed"}); err != nil {
		h.log.Error("Failed to submit disconnect", "conn_id", connID, "error", err)
	}
	_ = conn.Close()
}

// resolveIdentity inspects the handshake's token query parameter. A valid
// token yields the user's stored profile snapshot; anything else falls
// back to an anonymous guest identity.
func (h *Handler) resolveIdentity(r *http.Request) (identity string, guest bool, profile domain.ProfileSnapshot) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return h.guestIdentity()
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		h.log.Warn("Rejected handshake token, admitting as guest", "error", err)
		return h.guestIdentity()
	}

	snapshot, found, err := h.profiles.Fetch(claims.UserID)
	if err != nil {
		h.log.Error("Profile lookup failed", "user_id", claims.UserID, "error", err)
	}
	if !found {
		snapshot = domain.ProfileSnapshot{UserID: claims.UserID, Nickname: claims.Nickname}
	}
	if snapshot.Nickname == "" {
		snapshot.Nickname = claims.Nickname
	}
	return claims.UserID, false, snapshot
}

func (h *Handler) guestIdentity() (string, bool, domain.ProfileSnapshot) {
	id := "guest-" + uuid.NewString()[:8]
	return id, true, domain.ProfileSnapshot{UserID: id, Nickname: "Anonymous"}
}

// readPump executes all reads for one connection and translates frames
// into commands. Returning from here tears the session down.
func (h *Handler) readPump(conn *websocket.Conn, connID string) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("Connection read failed", "conn_id", connID, "error", err)
			}
			return
		}

		env, err := DecodeEnvelope(raw)
		if err != nil {
			h.log.Warn("Dropping unreadable frame", "conn_id", connID, "error", err)
			continue
		}

		switch env.Event {
		case EventStartMatching:
			h.submit(connID, domain.StartMatching{Conn: connID})
		case EventCancelMatch:
			h.submit(connID, domain.CancelMatch{Conn: connID})
		case EventChat:
			payload, err := DecodeChat(env.Data)
			if err != nil {
				h.log.Warn("Dropping invalid chat frame", "conn_id", connID, "error", err)
				continue
			}
			h.submit(connID, domain.PostChat{
				Conn: connID,
				Room: payload.RoomID,
				User: payload.User,
				Text: payload.Text,
				At:   time.Now().UTC(),
			})
		case EventUserDisconnect:
			// Explicit leave: unwind immediately, then let the socket close.
			ctx, cancel := context.WithTimeout(context.Background(), disconnectGrace)
			err := h.dispatcher.SubmitWait(ctx, domain.Disconnect{Conn: connID, Reason: "explicit leave"})
			cancel()
			if err != nil {
				h.log.Error("Failed to submit disconnect", "conn_id", connID, "error", err)
			}
			return
		default:
			h.log.Warn("Unknown event", "conn_id", connID, "event", env.Event)
		}
	}
}

func (h *Handler) submit(connID string, cmd domain.Command) {
	if err := h.dispatcher.Submit(cmd); err != nil {
		h.log.Warn("Command rejected", "conn_id", connID, "error", err)
	}
}

// writePump executes all writes for one connection: outbound events from
// the sink plus keepalive pings.
func (h *Handler) writePump(conn *websocket.Conn, connID string, sink *Sink, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case evt := <-sink.Events():
			frame, err := EncodeEvent(evt)
			if err != nil {
				h.log.Error("Failed to encode event", "conn_id", connID, "event", evt.Name(), "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.log.Debug("Write failed, abandoning connection", "conn_id", connID, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
