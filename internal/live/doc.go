package live

import (
	"context"
	"sync"

	"memorylane/internal/domain/store"
)

// Doc binds to at most one document at a time and keeps a decoded view of
// it. Rebinding to the same reference is a no-op; rebinding to a different
// one tears the old watch down before the new one starts.
type Doc[T any] struct {
	store  store.Store
	decode func(id string, data map[string]any) *T

	mu      sync.Mutex
	ref     *store.DocRef
	gen     uint64
	cancel  store.CancelFunc
	state   State[T]
	updates chan State[T]
}

// NewDoc creates an unbound document binding. The initial state is absent:
// no data, not loading.
func NewDoc[T any](st store.Store, decode func(id string, data map[string]any) *T) *Doc[T] {
	return &Doc[T]{
		store:   st,
		decode:  decode,
		updates: make(chan State[T], 1),
	}
}

// Bind points the binding at ref. A nil ref detaches: the state becomes
// absent and no store calls are made until a non-nil ref is bound.
func (d *Doc[T]) Bind(ctx context.Context, ref *store.DocRef) {
	d.mu.Lock()

	if sameRef(d.ref, ref) {
		d.mu.Unlock()

		return
	}

	d.teardownLocked()
	d.gen++
	gen := d.gen

	if ref == nil {
		d.ref = nil
		d.setStateLocked(State[T]{})
		d.mu.Unlock()

		return
	}

	r := *ref
	d.ref = &r
	d.setStateLocked(State[T]{Loading: true})
	events, cancel := d.store.WatchDoc(ctx, r)
	d.cancel = cancel
	d.mu.Unlock()

	go d.consume(gen, events)
}

// State returns the current view.
func (d *Doc[T]) State() State[T] {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state
}

// Updates returns a stream carrying the latest state after each change.
// Intermediate states may be skipped; the newest is always delivered.
func (d *Doc[T]) Updates() <-chan State[T] {
	return d.updates
}

// Close detaches the binding and stops its watch.
func (d *Doc[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.teardownLocked()
	d.gen++
	d.ref = nil
	d.state = State[T]{}
}

func (d *Doc[T]) consume(gen uint64, events <-chan store.DocEvent) {
	for ev := range events {
		d.mu.Lock()
		if gen != d.gen {
			d.mu.Unlock()

			return
		}
		next := d.state
		next.Loading = false
		if ev.Err != nil {
			// Keep the last good data visible alongside the error.
			next.Err = ev.Err
		} else {
			next.Err = nil
			if ev.Snapshot.Exists {
				next.Data = d.decode(ev.Snapshot.Ref.ID, ev.Snapshot.Data)
			} else {
				next.Data = nil
			}
		}
		d.setStateLocked(next)
		d.mu.Unlock()
	}
}

func (d *Doc[T]) setStateLocked(s State[T]) {
	d.state = s
	publish(d.updates, s)
}

func (d *Doc[T]) teardownLocked() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func sameRef(a, b *store.DocRef) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
