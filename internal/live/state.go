// Package live provides generic live-updating bindings over the document
// store. A binding tracks one document or one query, keeps the latest
// decoded value, and exposes it both as a pollable state and as a coalescing
// update stream suitable for pushing to clients.
package live

// State is the current view of a bound document. Data is nil while loading
// and when the document is absent. Err holds the most recent watch error;
// the last good Data is preserved alongside it.
type State[T any] struct {
	Data    *T
	Loading bool
	Err     error
}

// ListState is the current view of a bound query.
type ListState[T any] struct {
	Items   []*T
	Loading bool
	Err     error
}

// publish delivers the latest state on a capacity-1 channel, dropping any
// undelivered older state. Consumers always observe the newest value.
func publish[S any](ch chan S, s S) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
