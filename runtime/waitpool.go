package runtime

import "time"

// WaitingPool is the FIFO queue of participants seeking a match.
//
// It is not safe for concurrent use and does not need to be: the
// dispatcher goroutine is its sole owner. Enqueue, DequeuePair, and Remove
// all complete synchronously so a pairing decision can never observe a
// half-removed entry.
type WaitingPool struct {
	order  []string
	queued map[string]time.Time
}

func NewWaitingPool() *WaitingPool {
	return &WaitingPool{queued: make(map[string]time.Time)}
}

// Enqueue appends the connection to the pool. Returns false without
// side effects when it is already queued.
func (p *WaitingPool) Enqueue(connID string) bool {
	if _, already := p.queued[connID]; already {
		return false
	}
	p.queued[connID] = time.Now().UTC()
	p.order = append(p.order, connID)
	return true
}

// DequeuePair removes and returns the two oldest entries. The third
// return value is false when fewer than two participants are waiting; the
// pool is left untouched in that case.
func (p *WaitingPool) DequeuePair() (string, string, bool) {
	if len(p.order) < 2 {
		return "", "", false
	}
	first, second := p.order[0], p.order[1]
	p.order = p.order[2:]
	delete(p.queued, first)
	delete(p.queued, second)
	return first, second, true
}

// Remove deletes a specific entry, preserving the order of the rest.
// Returns false when the connection was not queued.
func (p *WaitingPool) Remove(connID string) bool {
	if _, ok := p.queued[connID]; !ok {
		return false
	}
	delete(p.queued, connID)
	for i, id := range p.order {
		if id == connID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return true
}

func (p *WaitingPool) Contains(connID string) bool {
	_, ok := p.queued[connID]
	return ok
}

// EnqueuedAt returns when the connection entered the pool.
func (p *WaitingPool) EnqueuedAt(connID string) (time.Time, bool) {
	at, ok := p.queued[connID]
	return at, ok
}

func (p *WaitingPool) Len() int {
	return len(p.order)
}
