// Package workflow drives the mutating flows of both consoles: admin status
// updates and borrower payments. Every mutation round-trips through the
// remote API and, on success, refetches the full collection; the local cache
// is never written optimistically and never mutated on failure.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrSubmissionInFlight rejects a second mutating submission while one is
	// still pending. Every trigger control stays disabled from invocation
	// until settlement.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")

	// ErrEditSurfaceOpen rejects opening a second edit surface; the design
	// assumes single-flight interaction per card.
	ErrEditSurfaceOpen = errors.New("an edit surface is already open")

	// ErrInvalidDecision rejects a status outside the admin-settable set
	// before the request is built.
	ErrInvalidDecision = errors.New("status is not admin-settable")

	// ErrNotPayable rejects payments against applications whose payment
	// action must be disabled (fully paid or rejected).
	ErrNotPayable = errors.New("application takes no further payments")
)

// latch is the in-flight guard shared by both surfaces: acquired when a
// mutating submission starts, released when it settles.
type latch struct {
	busy atomic.Bool
}

func (l *latch) acquire() error {
	if !l.busy.CompareAndSwap(false, true) {
		return ErrSubmissionInFlight
	}
	return nil
}

func (l *latch) release() {
	l.busy.Store(false)
}

// editSurface tracks the single open modal of a view.
type editSurface struct {
	mu sync.Mutex
	id string
}

func (e *editSurface) open(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.id != "" {
		return ErrEditSurfaceOpen
	}
	e.id = id
	return nil
}

func (e *editSurface) close() {
	e.mu.Lock()
	e.id = ""
	e.mu.Unlock()
}

func (e *editSurface) current() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id, e.id != ""
}

func notify(ctx context.Context, n Notifier, kind, format string, args ...any) {
	if n == nil {
		return
	}
	_ = n.Send(ctx, Message{Kind: kind, Body: fmt.Sprintf(format, args...)})
}
