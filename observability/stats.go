// Package observability aggregates live matchmaking metrics.
package observability

import (
	"sync/atomic"
	"time"
)

// Snapshot is a point-in-time view of the service, safe to log or expose
// on the health endpoint.
type Snapshot struct {
	OpenConnections  int64  `json:"open_connections"`
	Waiting          int64  `json:"waiting"`
	ActiveRooms      int64  `json:"active_rooms"`
	MatchesMade      uint64 `json:"matches_made"`
	MessagesRelayed  uint64 `json:"messages_relayed"`
	MessagesDropped  uint64 `json:"messages_dropped"`
	MessagesCensored uint64 `json:"messages_censored"`
	GuestSessions    uint64 `json:"guest_sessions"`
	TakenAt          string `json:"taken_at"`
}

// StatsManager keeps counters updated from the transport and dispatcher.
// Gauges (connections, waiting, rooms) go up and down; totals only grow.
type StatsManager struct {
	openConnections int64
	waiting         int64
	activeRooms     int64

	matchesMade      uint64
	messagesRelayed  uint64
	messagesDropped  uint64
	messagesCensored uint64
	guestSessions    uint64
}

func NewStatsManager() *StatsManager {
	return &StatsManager{}
}

func (s *StatsManager) ConnOpened()   { atomic.AddInt64(&s.openConnections, 1) }
func (s *StatsManager) ConnClosed()   { atomic.AddInt64(&s.openConnections, -1) }
func (s *StatsManager) GuestSession() { atomic.AddUint64(&s.guestSessions, 1) }

// SetWaiting records the waiting pool size after a dispatcher command.
func (s *StatsManager) SetWaiting(n int) { atomic.StoreInt64(&s.waiting, int64(n)) }

func (s *StatsManager) RoomOpened() {
	atomic.AddInt64(&s.activeRooms, 1)
	atomic.AddUint64(&s.matchesMade, 1)
}

func (s *StatsManager) RoomClosed() { atomic.AddInt64(&s.activeRooms, -1) }

func (s *StatsManager) MessageRelayed()  { atomic.AddUint64(&s.messagesRelayed, 1) }
func (s *StatsManager) MessageDropped()  { atomic.AddUint64(&s.messagesDropped, 1) }
func (s *StatsManager) MessageCensored() { atomic.AddUint64(&s.messagesCensored, 1) }

func (s *StatsManager) Snapshot() Snapshot {
	return Snapshot{
		OpenConnections:  atomic.LoadInt64(&s.openConnections),
		Waiting:          atomic.LoadInt64(&s.waiting),
		ActiveRooms:      atomic.LoadInt64(&s.activeRooms),
		MatchesMade:      atomic.LoadUint64(&s.matchesMade),
		MessagesRelayed:  atomic.LoadUint64(&s.messagesRelayed),
		MessagesDropped:  atomic.LoadUint64(&s.messagesDropped),
		MessagesCensored: atomic.LoadUint64(&s.messagesCensored),
		GuestSessions:    atomic.LoadUint64(&s.guestSessions),
		TakenAt:          time.Now().UTC().Format(time.RFC3339),
	}
}
