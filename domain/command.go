package domain

import (
	"time"

	"github.com/google/uuid"
)

// Command is an inbound intent produced by a connection's read loop and
// consumed by the dispatcher. Each command carries the connection id of the
// participant it originates from.
type Command interface {
	ConnID() string
}

// StartMatching enqueues the sender into the waiting pool.
type StartMatching struct {
	Conn string
}

func (c StartMatching) ConnID() string { return c.Conn }

// CancelMatch removes the sender from the waiting pool if present.
// Idempotent: cancelling while not queued is a no-op.
type CancelMatch struct {
	Conn string
}

func (c CancelMatch) ConnID() string { return c.Conn }

// PostChat relays a message to the sender's room partner.
type PostChat struct {
	Conn string
	Room uuid.UUID
	User string
	Text string
	At   time.Time
}

func (c PostChat) ConnID() string { return c.Conn }

// Disconnect unwinds the sender's state: waiting pool entry, room
// membership, and registry entry. Emitted both for explicit leaves
// (userDisconnect) and transport-level closes, so handling must tolerate
// being applied twice.
type Disconnect struct {
	Conn   string
	Reason string
}

func (c Disconnect) ConnID() string { return c.Conn }
