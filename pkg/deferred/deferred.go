// Package deferred provides the bridge's future-like result: a cell that
// settles exactly once with either a value or an error.
package deferred

import (
	"context"
	"sync"
)

// Deferred is an eventually-settling result. Create with New, settle with
// Resolve or Reject (later settlements are ignored), and wait with Await.
// Registered functions may return a *Deferred to complete asynchronously;
// the dispatcher lifts plain return values into already-settled deferreds,
// so the caller cannot distinguish the two.
type Deferred struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

// New creates an unsettled Deferred.
func New() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

// Resolved creates a Deferred already settled with v.
func Resolved(v any) *Deferred {
	d := New()
	d.Resolve(v)
	return d
}

// Rejected creates a Deferred already settled with err.
func Rejected(err error) *Deferred {
	d := New()
	d.Reject(err)
	return d
}

// Resolve settles the deferred with a value. Only the first settlement
// takes effect.
func (d *Deferred) Resolve(v any) {
	d.once.Do(func() {
		d.value = v
		close(d.done)
	})
}

// Reject settles the deferred with an error. Only the first settlement
// takes effect.
func (d *Deferred) Reject(err error) {
	d.once.Do(func() {
		d.err = err
		close(d.done)
	})
}

// Await blocks until the deferred settles or ctx is done. Abandoning the
// wait does not cancel whatever computation will eventually settle it.
func (d *Deferred) Await(ctx context.Context) (any, error) {
	select {
	case <-d.done:
		return d.value, d.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
