// Package analyzer holds plumbing shared by the superclass analyzers.
package analyzer

import (
	"context"
	"sync/atomic"
)

// ProgressFunc receives the number of finished units, the expected total and
// a label for the unit that just finished.
type ProgressFunc func(done, total int, label string)

// Tracker counts finished units of work. It is safe for concurrent use and
// a nil *Tracker ignores every call, so callers never need to check for one.
type Tracker struct {
	total  atomic.Int64
	done   atomic.Int64
	onTick ProgressFunc
}

// NewTracker creates a tracker that calls fn after every Tick.
func NewTracker(fn ProgressFunc) *Tracker {
	return &Tracker{onTick: fn}
}

// Grow adds n units to the expected total.
func (t *Tracker) Grow(n int) {
	if t == nil {
		return
	}
	t.total.Add(int64(n))
}

// Tick records one finished unit.
func (t *Tracker) Tick(label string) {
	if t == nil {
		return
	}
	done := t.done.Add(1)
	if t.onTick != nil {
		t.onTick(int(done), int(t.total.Load()), label)
	}
}

// Done returns the number of finished units.
func (t *Tracker) Done() int {
	if t == nil {
		return 0
	}
	return int(t.done.Load())
}

// Total returns the expected number of units.
func (t *Tracker) Total() int {
	if t == nil {
		return 0
	}
	return int(t.total.Load())
}

type trackerKey struct{}

// WithTracker attaches t to ctx. Analyzers pick it up with TrackerFromContext.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext returns the tracker carried by ctx, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}
