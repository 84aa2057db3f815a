//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"moodmatch/domain"
	"moodmatch/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding a manual naming method on the
// Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is a participant's outbound delivery channel. Consume must not
// block the caller beyond the context: delivery is fire-and-forget and a
// full sink drops rather than stalls the dispatcher.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// ProfileSource resolves the profile snapshot decorating matched payloads.
// The second return value is false when no profile is stored for the user.
type ProfileSource interface {
	Fetch(userID string) (domain.ProfileSnapshot, bool, error)
}
