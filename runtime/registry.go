// Package runtime owns the live matchmaking state: the connection
// registry, the waiting pool, and the dispatcher that mutates them.
package runtime

import (
	"sync"

	"moodmatch/contract"
	"moodmatch/domain"
	apperrors "moodmatch/errors"
)

type session struct {
	participant *domain.Participant
	sink        contract.EventSink
}

// Registry tracks each live connection's participant and outbound sink,
// keyed by connection id. It is written by transport goroutines at connect
// time and read by the dispatcher, hence the lock; the waiting pool and
// room maps by contrast belong to the dispatcher alone.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]session)}
}

// Register records a participant under its connection id. Connection ids
// are transport-generated UUIDs, so a collision means a caller bug.
func (r *Registry) Register(connID string, p *domain.Participant, sink contract.EventSink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[connID]; exists {
		return apperrors.ErrAlreadyRegistered
	}
	r.sessions[connID] = session{participant: p, sink: sink}
	return nil
}

// Unregister removes the connection. Safe to call twice: the disconnect
// path can be triggered by both an explicit leave and the socket close.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, connID)
}

func (r *Registry) Get(connID string) (*domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connID]
	return s.participant, ok
}

func (r *Registry) Sink(connID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connID]
	return s.sink, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
