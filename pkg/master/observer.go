package master

import (
	"time"

	"github.com/robotalks/mbascii/pkg/frame"
)

// Transaction describes a finished Execute call.
type Transaction struct {
	Address   int
	Function  frame.FnCode
	Request   []byte
	Response  []byte
	Attempts  int
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

// Outcome summarizes the transaction result.
func (t *Transaction) Outcome() string {
	switch {
	case t.Err != nil:
		return "error"
	case t.Response == nil:
		return "no-reply"
	}
	return "ok"
}

// Observer receives every finished transaction.
type Observer interface {
	Transaction(*Transaction)
}

// ObserverFunc is func form of Observer.
type ObserverFunc func(*Transaction)

// Transaction implements Observer.
func (f ObserverFunc) Transaction(t *Transaction) {
	f(t)
}
