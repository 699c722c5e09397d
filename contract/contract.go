//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-hub/domain"
	"chat-hub/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself; the supervisor recovers its panics.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// for logging and supervision purposes.
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

// EventSink is one connection's ordered delivery queue. Consume must not
// block: a sink that cannot keep up drops the event and reports an error.
type EventSink interface {
	Consume(e event.DomainEvent) error
}

// IRegistry maps rooms to the live set of subscribed connections.
type IRegistry interface {
	Subscribe(connID string, room domain.RoomID, sink EventSink)
	Unsubscribe(connID string, room domain.RoomID)
	Broadcast(room domain.RoomID, e event.DomainEvent)
	DropConnection(connID string)
}
