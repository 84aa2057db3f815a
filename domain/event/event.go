// Package event defines the outbound domain events delivered to connected
// clients. Event names mirror the wire protocol and must stay stable: the
// web client switches on them.
package event

import (
	"time"

	"github.com/google/uuid"

	"moodmatch/domain"
)

type DomainEvent interface {
	// Name is the wire event name seen by the client.
	Name() string
}

// Matched notifies one side of a fresh pairing. Partner fields are copied
// from the counterpart's profile snapshot taken at connect time.
type Matched struct {
	Room    uuid.UUID
	Partner domain.ProfileSnapshot
}

func (Matched) Name() string { return "matched" }

// ChatRelayed is a chat message delivered to the other room member only.
type ChatRelayed struct {
	ID       uuid.UUID
	Room     uuid.UUID
	User     string
	Text     string
	Color    string
	Lang     string
	Censored []string
	At       time.Time
}

func (ChatRelayed) Name() string { return "chat" }

// PartnerLeft informs the remaining member that the room is gone.
type PartnerLeft struct {
	Room    uuid.UUID
	Message string
}

func (PartnerLeft) Name() string { return "userLeft" }

// ChatFailed is reported to a sender whose message referenced a room that
// is no longer active. The message was dropped, nobody else saw it.
type ChatFailed struct {
	Room    uuid.UUID
	Message string
}

func (ChatFailed) Name() string { return "chatFailed" }
