package mongos

import (
	"context"
	"sync"
)

// Operation names a connection lifecycle operation.
type Operation string

const (
	OpConnect    Operation = "connect"
	OpDisconnect Operation = "disconnect"
)

// Result is the deferred outcome of a Connect or Disconnect call.
// A Result settles exactly once; every waiter observes the same error.
type Result struct {
	id   string
	op   Operation
	done chan struct{}
	once sync.Once
	err  error
}

func newResult(op Operation) *Result {
	return &Result{
		id:   NewID(),
		op:   op,
		done: make(chan struct{}),
	}
}

// settledResult returns a Result that has already succeeded.
func settledResult(op Operation) *Result {
	r := newResult(op)
	r.settle(nil)
	return r
}

func (r *Result) settle(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// ID identifies the operation in logs.
func (r *Result) ID() string { return r.id }

// Operation reports which operation this result belongs to.
func (r *Result) Operation() Operation { return r.op }

// Done is closed once the operation has settled.
func (r *Result) Done() <-chan struct{} { return r.done }

// Settled reports whether the operation has finished.
func (r *Result) Settled() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Err returns the operation's error once settled, and nil while it is pending.
func (r *Result) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Wait blocks until the operation settles or ctx is done.
// Giving up on the wait does not cancel the operation.
func (r *Result) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
