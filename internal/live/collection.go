package live

import (
	"context"
	"sync"

	"memorylane/internal/domain/store"
)

// Collection binds to at most one query at a time and keeps a decoded view
// of its result set. Each snapshot replaces the item list wholesale.
type Collection[T any] struct {
	store  store.Store
	decode func(id string, data map[string]any) *T

	mu      sync.Mutex
	query   *store.Query
	gen     uint64
	cancel  store.CancelFunc
	state   ListState[T]
	updates chan ListState[T]
}

// NewCollection creates an unbound collection binding.
func NewCollection[T any](st store.Store, decode func(id string, data map[string]any) *T) *Collection[T] {
	return &Collection[T]{
		store:   st,
		decode:  decode,
		updates: make(chan ListState[T], 1),
	}
}

// Bind points the binding at q. A nil query detaches: the state becomes
// empty and no store calls are made until a non-nil query is bound.
func (c *Collection[T]) Bind(ctx context.Context, q *store.Query) {
	c.mu.Lock()

	if sameQuery(c.query, q) {
		c.mu.Unlock()

		return
	}

	c.teardownLocked()
	c.gen++
	gen := c.gen

	if q == nil {
		c.query = nil
		c.setStateLocked(ListState[T]{})
		c.mu.Unlock()

		return
	}

	query := *q
	c.query = &query
	c.setStateLocked(ListState[T]{Loading: true})
	events, cancel := c.store.WatchQuery(ctx, query)
	c.cancel = cancel
	c.mu.Unlock()

	go c.consume(gen, events)
}

// State returns the current view.
func (c *Collection[T]) State() ListState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Updates returns a stream carrying the latest state after each change.
// Intermediate states may be skipped; the newest is always delivered.
func (c *Collection[T]) Updates() <-chan ListState[T] {
	return c.updates
}

// Close detaches the binding and stops its watch.
func (c *Collection[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.gen++
	c.query = nil
	c.state = ListState[T]{}
}

func (c *Collection[T]) consume(gen uint64, events <-chan store.QueryEvent) {
	for ev := range events {
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()

			return
		}
		next := c.state
		next.Loading = false
		if ev.Err != nil {
			// Keep the last good list visible alongside the error.
			next.Err = ev.Err
		} else {
			next.Err = nil
			items := make([]*T, 0, len(ev.Snapshot.Docs))
			for _, doc := range ev.Snapshot.Docs {
				items = append(items, c.decode(doc.Ref.ID, doc.Data))
			}
			next.Items = items
		}
		c.setStateLocked(next)
		c.mu.Unlock()
	}
}

func (c *Collection[T]) setStateLocked(s ListState[T]) {
	c.state = s
	publish(c.updates, s)
}

func (c *Collection[T]) teardownLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func sameQuery(a, b *store.Query) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Equal(*b)
}
