//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
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

// LineTransport is one open chat connection.
// ReadLine strips the trailing line terminator. All calls block until the
// socket delivers, accepts, or fails; retrying is the caller's business.
type LineTransport interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Close() error
}

// Dialer opens a fresh LineTransport. Session workers hold a Dialer rather
// than a connection so a dead transport can be replaced across reconnects.
type Dialer interface {
	Dial(ctx context.Context, address string) (LineTransport, error)
}
