package transport

import (
	"context"

	"moodmatch/contract"
	"moodmatch/domain/event"
)

var _ contract.EventSink = (*Sink)(nil)

// Sink is a buffered bridge between the dispatcher and one connection's
// write pump. Consume blocks at most until the caller's context expires:
// a slow or dead connection must never stall the dispatcher.
type Sink struct {
	events chan event.DomainEvent
}

func NewSink(buffer int) *Sink {
	return &Sink{events: make(chan event.DomainEvent, buffer)}
}

func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events is read by the connection's write pump.
func (s *Sink) Events() <-chan event.DomainEvent {
	return s.events
}
