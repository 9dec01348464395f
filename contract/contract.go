//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
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

// IPublisher is the write side of the output bus.
type IPublisher interface {
	Publish(envelope event.Envelope)
	ReceiverCount() int
}

// ICommandQueue accepts command envelopes for sequential processing.
type ICommandQueue interface {
	Submit(ctx context.Context, envelope domain.CommandEnvelope) error
}

// ICensor masks forbidden words in a message body and reports the words found.
type ICensor interface {
	Censor(body string) (string, []string)
}
