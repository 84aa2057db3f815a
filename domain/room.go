package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomID = uuid.UUID

// Room is an ephemeral pairing of exactly two participants, identified by
// their connection ids. Rooms are never persisted; chat durability belongs
// to the diary API invoked by the client.
type Room struct {
	ID        RoomID
	MemberA   string
	MemberB   string
	CreatedAt time.Time
}

func NewRoom(id RoomID, memberA, memberB string) *Room {
	return &Room{
		ID:        id,
		MemberA:   memberA,
		MemberB:   memberB,
		CreatedAt: time.Now().UTC(),
	}
}

// Has reports whether the connection id is one of the two members.
func (r *Room) Has(connID string) bool {
	return connID == r.MemberA || connID == r.MemberB
}

// Other returns the counterpart of the given member.
// The second return value is false when connID is not a member at all.
func (r *Room) Other(connID string) (string, bool) {
	switch connID {
	case r.MemberA:
		return r.MemberB, true
	case r.MemberB:
		return r.MemberA, true
	default:
		return "", false
	}
}
