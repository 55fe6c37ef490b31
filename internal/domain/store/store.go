// Package store defines the document store contract the rest of the
// application is written against. The production implementation is backed by
// Cloud Firestore; tests use an in-memory fake.
package store

import "context"

// DocRef identifies a single document. It is comparable so callers can
// detect whether two subscriptions target the same document.
type DocRef struct {
	Collection string
	ID         string
}

// DocSnapshot is the state of one document at a point in time. Exists is
// false when the document is absent, in which case Data is nil.
type DocSnapshot struct {
	Ref    DocRef
	Exists bool
	Data   map[string]any
}

// QuerySnapshot is the state of a query's result set at a point in time.
type QuerySnapshot struct {
	Docs []DocSnapshot
}

// DocEvent is delivered on every change to a watched document. Exactly one
// of Snapshot and Err is meaningful per event.
type DocEvent struct {
	Snapshot DocSnapshot
	Err      error
}

// QueryEvent is delivered on every change to a watched query result set.
type QueryEvent struct {
	Snapshot QuerySnapshot
	Err      error
}

// CancelFunc stops a watch. Safe to call more than once.
type CancelFunc = func()

// deleteField is unexported so the only value of its type is DeleteField.
type deleteField struct{}

// DeleteField marks a field for removal in an update.
var DeleteField = deleteField{}

// WriteKind discriminates batch operations.
type WriteKind int

const (
	WriteSet WriteKind = iota
	WriteUpdate
	WriteDelete
)

// Write is one operation in an atomic batch.
type Write struct {
	Kind WriteKind
	Ref  DocRef
	Data map[string]any
}

// Store is the document store contract.
type Store interface {
	// GetDoc reads a single document. A missing document is not an error:
	// the snapshot is returned with Exists false.
	GetDoc(ctx context.Context, ref DocRef) (DocSnapshot, error)

	// RunQuery executes a one-shot query.
	RunQuery(ctx context.Context, q Query) (QuerySnapshot, error)

	// SetDoc creates or fully replaces a document.
	SetDoc(ctx context.Context, ref DocRef, data map[string]any) error

	// UpdateDoc merges fields into an existing document. A field whose
	// value is DeleteField is removed.
	UpdateDoc(ctx context.Context, ref DocRef, data map[string]any) error

	// DeleteDoc removes a document. Deleting a missing document is a no-op.
	DeleteDoc(ctx context.Context, ref DocRef) error

	// ApplyBatch applies all writes atomically.
	ApplyBatch(ctx context.Context, writes []Write) error

	// WatchDoc subscribes to a document. An event carrying the current
	// state is delivered promptly after subscription, then on every
	// change, until the context is done or cancel is called.
	WatchDoc(ctx context.Context, ref DocRef) (<-chan DocEvent, CancelFunc)

	// WatchQuery subscribes to a query result set with the same delivery
	// semantics as WatchDoc.
	WatchQuery(ctx context.Context, q Query) (<-chan QueryEvent, CancelFunc)
}
