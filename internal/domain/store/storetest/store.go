// Package storetest provides an in-memory store.Store for tests. Documents
// live in a map, watches are notified synchronously on every mutation, and
// errors can be injected per operation.
package storetest

import (
	"context"
	"sort"
	"sync"

	"memorylane/internal/domain/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu   sync.Mutex
	docs map[store.DocRef]map[string]any

	docWatches   map[int]*docWatch
	queryWatches map[int]*queryWatch
	nextWatchID  int

	// Injectable failures, keyed by operation name ("GetDoc", "SetDoc",
	// "UpdateDoc", "DeleteDoc", "RunQuery", "ApplyBatch").
	failures map[string]error

	watchDocCalls   int
	watchQueryCalls int
	cancelCalls     int
}

type docWatch struct {
	ref store.DocRef
	ch  chan store.DocEvent
}

type queryWatch struct {
	q  store.Query
	ch chan store.QueryEvent
}

// New creates an empty fake store.
func New() *Store {
	return &Store{
		docs:         make(map[store.DocRef]map[string]any),
		docWatches:   make(map[int]*docWatch),
		queryWatches: make(map[int]*queryWatch),
		failures:     make(map[string]error),
	}
}

// Seed inserts a document without notifying watchers. Use it to arrange
// initial state before the code under test subscribes.
func (s *Store) Seed(ref store.DocRef, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[ref] = cloneDoc(data)
}

// FailWith makes the named operation return err until cleared with nil.
func (s *Store) FailWith(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
	} else {
		s.failures[op] = err
	}
}

// EmitDocError pushes an error event to every watcher of ref.
func (s *Store) EmitDocError(ref store.DocRef, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.docWatches {
		if w.ref == ref {
			publishDoc(w.ch, store.DocEvent{Err: err})
		}
	}
}

// EmitQueryError pushes an error event to every watcher whose query matches q.
func (s *Store) EmitQueryError(q store.Query, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.queryWatches {
		if w.q.Equal(q) {
			publishQuery(w.ch, store.QueryEvent{Err: err})
		}
	}
}

// WatchDocCalls reports how many document watches were opened.
func (s *Store) WatchDocCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.watchDocCalls
}

// WatchQueryCalls reports how many query watches were opened.
func (s *Store) WatchQueryCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.watchQueryCalls
}

// CancelCalls reports how many watches were cancelled.
func (s *Store) CancelCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancelCalls
}

// GetDoc implements store.Store.
func (s *Store) GetDoc(_ context.Context, ref store.DocRef) (store.DocSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["GetDoc"]; err != nil {
		return store.DocSnapshot{}, err
	}

	return s.snapshotLocked(ref), nil
}

// RunQuery implements store.Store.
func (s *Store) RunQuery(_ context.Context, q store.Query) (store.QuerySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["RunQuery"]; err != nil {
		return store.QuerySnapshot{}, err
	}

	return s.runQueryLocked(q), nil
}

// SetDoc implements store.Store.
func (s *Store) SetDoc(_ context.Context, ref store.DocRef, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["SetDoc"]; err != nil {
		return err
	}
	s.docs[ref] = cloneDoc(data)
	s.notifyLocked(ref)

	return nil
}

// UpdateDoc implements store.Store.
func (s *Store) UpdateDoc(_ context.Context, ref store.DocRef, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["UpdateDoc"]; err != nil {
		return err
	}
	s.updateLocked(ref, data)
	s.notifyLocked(ref)

	return nil
}

// DeleteDoc implements store.Store.
func (s *Store) DeleteDoc(_ context.Context, ref store.DocRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["DeleteDoc"]; err != nil {
		return err
	}
	delete(s.docs, ref)
	s.notifyLocked(ref)

	return nil
}

// ApplyBatch implements store.Store.
func (s *Store) ApplyBatch(_ context.Context, writes []store.Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["ApplyBatch"]; err != nil {
		return err
	}
	for _, w := range writes {
		switch w.Kind {
		case store.WriteSet:
			s.docs[w.Ref] = cloneDoc(w.Data)
		case store.WriteUpdate:
			s.updateLocked(w.Ref, w.Data)
		case store.WriteDelete:
			delete(s.docs, w.Ref)
		}
	}
	for _, w := range writes {
		s.notifyLocked(w.Ref)
	}

	return nil
}

// WatchDoc implements store.Store. The current snapshot is delivered
// synchronously before WatchDoc returns.
func (s *Store) WatchDoc(_ context.Context, ref store.DocRef) (<-chan store.DocEvent, store.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchDocCalls++

	id := s.nextWatchID
	s.nextWatchID++
	w := &docWatch{ref: ref, ch: make(chan store.DocEvent, 16)}
	s.docWatches[id] = w
	publishDoc(w.ch, store.DocEvent{Snapshot: s.snapshotLocked(ref)})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.cancelCalls++
			delete(s.docWatches, id)
			close(w.ch)
		})
	}

	return w.ch, cancel
}

// WatchQuery implements store.Store with the same synchronous initial
// delivery as WatchDoc.
func (s *Store) WatchQuery(_ context.Context, q store.Query) (<-chan store.QueryEvent, store.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchQueryCalls++

	id := s.nextWatchID
	s.nextWatchID++
	w := &queryWatch{q: q, ch: make(chan store.QueryEvent, 16)}
	s.queryWatches[id] = w
	publishQuery(w.ch, store.QueryEvent{Snapshot: s.runQueryLocked(q)})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.cancelCalls++
			delete(s.queryWatches, id)
			close(w.ch)
		})
	}

	return w.ch, cancel
}

func (s *Store) snapshotLocked(ref store.DocRef) store.DocSnapshot {
	data, ok := s.docs[ref]
	if !ok {
		return store.DocSnapshot{Ref: ref}
	}

	return store.DocSnapshot{Ref: ref, Exists: true, Data: cloneDoc(data)}
}

func (s *Store) updateLocked(ref store.DocRef, data map[string]any) {
	doc, ok := s.docs[ref]
	if !ok {
		doc = make(map[string]any)
		s.docs[ref] = doc
	}
	for k, v := range data {
		if v == store.DeleteField {
			delete(doc, k)

			continue
		}
		doc[k] = v
	}
}

func (s *Store) runQueryLocked(q store.Query) store.QuerySnapshot {
	var docs []store.DocSnapshot
	for ref, data := range s.docs {
		if ref.Collection != q.Collection {
			continue
		}
		if !matches(data, q.Filters) {
			continue
		}
		docs = append(docs, store.DocSnapshot{Ref: ref, Exists: true, Data: cloneDoc(data)})
	}

	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range q.Orders {
			c := compareValues(docs[i].Data[o.Field], docs[j].Data[o.Field])
			if c == 0 {
				continue
			}
			if o.Direction == store.Descending {
				return c > 0
			}

			return c < 0
		}

		return docs[i].Ref.ID < docs[j].Ref.ID
	})

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}

	return store.QuerySnapshot{Docs: docs}
}

func (s *Store) notifyLocked(ref store.DocRef) {
	for _, w := range s.docWatches {
		if w.ref == ref {
			publishDoc(w.ch, store.DocEvent{Snapshot: s.snapshotLocked(ref)})
		}
	}
	for _, w := range s.queryWatches {
		if w.q.Collection == ref.Collection {
			publishQuery(w.ch, store.QueryEvent{Snapshot: s.runQueryLocked(w.q)})
		}
	}
}

func publishDoc(ch chan store.DocEvent, ev store.DocEvent) {
	select {
	case ch <- ev:
	default:
	}
}

func publishQuery(ch chan store.QueryEvent, ev store.QueryEvent) {
	select {
	case ch <- ev:
	default:
	}
}

func matches(data map[string]any, filters []store.Filter) bool {
	for _, f := range filters {
		if data[f.Field] != f.Value {
			return false
		}
	}

	return true
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}

		return 0
	default:
		an, aok := asNumber(a)
		bn, bok := asNumber(b)
		if aok && bok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			}
		}

		return 0
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}

	return 0, false
}

func cloneDoc(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}

	return out
}
