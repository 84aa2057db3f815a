package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"

	"moodmatch/contract"
	"moodmatch/domain"
	"moodmatch/domain/event"
	apperrors "moodmatch/errors"
	"moodmatch/moderation"
	"moodmatch/observability"
)

// partnerLeftNotice is the human-readable message shown by the client when
// the other side disconnects or exits.
const partnerLeftNotice = "Your partner has left the chat."

// staleRoomNotice is reported to a sender whose room is already gone.
const staleRoomNotice = "This chat has ended. Your message was not delivered."

// Ensure *Dispatcher implements the contract.Worker interface at compile
// time, so it can run under the supervisor like any other worker.
var _ contract.Worker = (*Dispatcher)(nil)

// Dispatcher is the single-threaded core of the service. One goroutine
// consumes the command channel and is the exclusive owner of the waiting
// pool and the room membership maps, so the check-pair-create sequence of
// a match can never interleave with another request. Outbound delivery
// goes through per-connection sinks and never blocks past sinkTimeout.
type Dispatcher struct {
	log         *slog.Logger
	registry    *Registry
	pool        *WaitingPool
	rooms       map[domain.RoomID]*domain.Room
	membership  map[string]domain.RoomID
	commands    chan domain.Command
	moderator   moderation.Moderator
	stats       *observability.StatsManager
	sinkTimeout time.Duration
}

func NewDispatcher(log *slog.Logger, registry *Registry, moderator moderation.Moderator,
	stats *observability.StatsManager, bufferSize int, sinkTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		log:         log,
		registry:    registry,
		pool:        NewWaitingPool(),
		rooms:       make(map[domain.RoomID]*domain.Room),
		membership:  make(map[string]domain.RoomID),
		commands:    make(chan domain.Command, bufferSize),
		moderator:   moderator,
		stats:       stats,
		sinkTimeout: sinkTimeout,
	}
}

// Submit queues a command without blocking. A full channel drops the
// command: chat and match requests are retryable by the client.
func (d *Dispatcher) Submit(cmd domain.Command) error {
	select {
	case d.commands <- cmd:
		return nil
	default:
		d.log.Warn("Command channel full, dropping command",
			"conn_id", cmd.ConnID(), "command", fmt.Sprintf("%T", cmd))
		return apperrors.ErrCommandChannelFull
	}
}

// SubmitWait queues a command, blocking until accepted. Used for
// disconnects, which must never be lost or state would leak.
func (d *Dispatcher) SubmitWait(ctx context.Context, cmd domain.Command) error {
	select {
	case d.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.log.Debug("Stopping dispatcher")
			return nil
		case cmd, ok := <-d.commands:
			if !ok {
				d.log.Debug("Command channel is closed")
				return nil
			}
			d.handle(cmd)
		}
	}
}

// handle applies one command completely before the next is read. Every
// branch runs synchronously; nothing here yields mid-sequence.
func (d *Dispatcher) handle(cmd domain.Command) {
	switch c := cmd.(type) {
	case domain.StartMatching:
		d.handleStartMatching(c)
	case domain.CancelMatch:
		d.handleCancelMatch(c)
	case domain.PostChat:
		d.handleChat(c)
	case domain.Disconnect:
		d.handleDisconnect(c)
	default:
		d.log.Warn("Unknown command type", "command", fmt.Sprintf("%T", cmd))
	}
}

func (d *Dispatcher) handleStartMatching(c domain.StartMatching) {
	p, ok := d.registry.Get(c.Conn)
	if !ok {
		// Protocol violation by a misbehaving client: reject silently.
		d.log.Debug("Match request from unregistered connection", "conn_id", c.Conn)
		return
	}
	if _, inRoom := d.membership[c.Conn]; inRoom {
		d.log.Debug("Match request while already matched", "conn_id", c.Conn)
		return
	}
	if !d.pool.Enqueue(c.Conn) {
		d.log.Debug("Match request while already waiting", "conn_id", c.Conn)
		return
	}
	if err := p.Queue(); err != nil {
		d.log.Warn("Lifecycle transition refused", "conn_id", c.Conn, "error", err)
	}
	d.stats.SetWaiting(d.pool.Len())
	d.log.Info("Participant waiting for a match",
		"conn_id", c.Conn, "waiting", d.pool.Len())

	if first, second, paired := d.pool.DequeuePair(); paired {
		d.createRoom(first, second)
	}
}

// createRoom pairs the two connections under a fresh room id and notifies
// both sides with the counterpart's profile snapshot. Runs entirely within
// one command so no third request can observe a half-built room.
func (d *Dispatcher) createRoom(first, second string) {
	pFirst, okFirst := d.registry.Get(first)
	pSecond, okSecond := d.registry.Get(second)
	if !okFirst || !okSecond {
		// Cannot happen while disconnects funnel through this goroutine;
		// requeue the survivor rather than stranding it.
		d.log.Error("Pooled connection missing from registry",
			"first", first, "second", second)
		if okFirst {
			d.pool.Enqueue(first)
		}
		if okSecond {
			d.pool.Enqueue(second)
		}
		return
	}

	roomID := uuid.New()
	d.rooms[roomID] = domain.NewRoom(roomID, first, second)
	d.membership[first] = roomID
	d.membership[second] = roomID

	if err := pFirst.Match(); err != nil {
		d.log.Warn("Lifecycle transition refused", "conn_id", first, "error", err)
	}
	if err := pSecond.Match(); err != nil {
		d.log.Warn("Lifecycle transition refused", "conn_id", second, "error", err)
	}

	d.stats.RoomOpened()
	d.stats.SetWaiting(d.pool.Len())
	d.log.Info("Matched",
		"room_id", roomID, "first", first, "second", second)

	d.deliver(first, event.Matched{Room: roomID, Partner: pSecond.Profile})
	d.deliver(second, event.Matched{Room: roomID, Partner: pFirst.Profile})
}

func (d *Dispatcher) handleCancelMatch(c domain.CancelMatch) {
	if !d.pool.Remove(c.Conn) {
		// Not queued, or already matched: cancel is pre-room only.
		d.log.Debug("Cancel with no pool entry", "conn_id", c.Conn)
		return
	}
	if p, ok := d.registry.Get(c.Conn); ok {
		if err := p.Cancel(); err != nil {
			d.log.Warn("Lifecycle transition refused", "conn_id", c.Conn, "error", err)
		}
	}
	d.stats.SetWaiting(d.pool.Len())
	d.log.Info("Match request cancelled", "conn_id", c.Conn)
}

func (d *Dispatcher) handleChat(c domain.PostChat) {
	p, ok := d.registry.Get(c.Conn)
	if !ok {
		d.log.Debug("Chat from unregistered connection", "conn_id", c.Conn)
		return
	}

	roomID, inRoom := d.membership[c.Conn]
	if !inRoom || roomID != c.Room {
		// Stale room: the partner already left. Drop and tell the sender only.
		d.stats.MessageDropped()
		d.log.Debug("Chat for inactive room", "conn_id", c.Conn, "room_id", c.Room)
		d.deliver(c.Conn, event.ChatFailed{Room: c.Room, Message: staleRoomNotice})
		return
	}

	partner, _ := d.rooms[roomID].Other(c.Conn)

	text, censoredWords := d.moderator.Censor(c.Text)
	if len(censoredWords) > 0 {
		d.stats.MessageCensored()
		d.log.Info("Message censored",
			"room_id", roomID, "words", len(censoredWords))
	}

	user := c.User
	if user == "" {
		user = p.Profile.Nickname
	}
	at := c.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	info := whatlanggo.Detect(c.Text)
	d.deliver(partner, event.ChatRelayed{
		ID:       uuid.New(),
		Room:     roomID,
		User:     user,
		Text:     text,
		Color:    p.Profile.EmotionColor,
		Lang:     info.Lang.Iso6391(),
		Censored: censoredWords,
		At:       at,
	})
	d.stats.MessageRelayed()
}

func (d *Dispatcher) handleDisconnect(c domain.Disconnect) {
	if _, ok := d.registry.Get(c.Conn); !ok {
		// Second notification for the same connection (explicit leave
		// followed by the socket close): nothing left to unwind.
		return
	}

	if d.pool.Remove(c.Conn) {
		d.stats.SetWaiting(d.pool.Len())
	} else if roomID, inRoom := d.membership[c.Conn]; inRoom {
		d.teardown(roomID, c.Conn)
	}

	d.registry.Unregister(c.Conn)
	d.stats.ConnClosed()
	d.log.Info("Participant disconnected", "conn_id", c.Conn, "reason", c.Reason)
}

// teardown retires a room after one member left: the remaining member is
// notified, released to idle, and both membership mappings are removed.
func (d *Dispatcher) teardown(roomID domain.RoomID, leaving string) {
	room, ok := d.rooms[roomID]
	if !ok {
		delete(d.membership, leaving)
		return
	}

	partner, _ := room.Other(leaving)
	delete(d.membership, leaving)
	delete(d.membership, partner)
	delete(d.rooms, roomID)
	d.stats.RoomClosed()

	if p, stillHere := d.registry.Get(partner); stillHere {
		if err := p.Release(); err != nil {
			d.log.Warn("Lifecycle transition refused", "conn_id", partner, "error", err)
		}
		d.deliver(partner, event.PartnerLeft{Room: roomID, Message: partnerLeftNotice})
	}
	d.log.Info("Room retired", "room_id", roomID)
}

// deliver pushes an event to one connection's sink. Fire-and-forget: a
// missing sink or a full buffer is logged, never propagated.
func (d *Dispatcher) deliver(connID string, evt event.DomainEvent) {
	sink, ok := d.registry.Sink(connID)
	if !ok {
		d.log.Debug("No sink for connection", "conn_id", connID, "event", evt.Name())
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.sinkTimeout)
	defer cancel()
	if err := sink.Consume(ctx, evt); err != nil {
		d.log.Warn("Event delivery failed",
			"conn_id", connID, "event", evt.Name(), "error", err)
	}
}
