// Package firestoredb implements the document store contract on Cloud
// Firestore, including the snapshot listeners behind the live bindings.
package firestoredb

import (
	"context"
	"log/slog"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"memorylane/internal/domain/store"
)

// Store implements store.Store on a Firestore client.
type Store struct {
	client *firestore.Client
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// New creates the Firestore-backed store from the shared Firebase app.
func New(ctx context.Context, app *firebase.App, logger *slog.Logger) (*Store, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create firestore client")
	}

	return &Store{client: client, logger: logger}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// GetDoc reads a single document. A missing document is reported with
// Exists false, not an error.
func (s *Store) GetDoc(ctx context.Context, ref store.DocRef) (store.DocSnapshot, error) {
	snap, err := s.doc(ref).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return store.DocSnapshot{Ref: ref}, nil
		}

		return store.DocSnapshot{}, errors.Wrap(err, "failed to get document")
	}

	return toDocSnapshot(ref.Collection, snap), nil
}

// RunQuery executes a one-shot query.
func (s *Store) RunQuery(ctx context.Context, q store.Query) (store.QuerySnapshot, error) {
	iter := s.buildQuery(q).Documents(ctx)
	defer iter.Stop()

	var docs []store.DocSnapshot
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return store.QuerySnapshot{}, errors.Wrap(err, "failed to iterate query")
		}
		docs = append(docs, toDocSnapshot(q.Collection, snap))
	}

	return store.QuerySnapshot{Docs: docs}, nil
}

// SetDoc creates or fully replaces a document.
func (s *Store) SetDoc(ctx context.Context, ref store.DocRef, data map[string]any) error {
	if _, err := s.doc(ref).Set(ctx, data); err != nil {
		return errors.Wrap(err, "failed to set document")
	}

	return nil
}

// UpdateDoc merges fields into a document. DeleteField values remove the
// field entirely.
func (s *Store) UpdateDoc(ctx context.Context, ref store.DocRef, data map[string]any) error {
	if _, err := s.doc(ref).Set(ctx, translateSentinels(data), firestore.MergeAll); err != nil {
		return errors.Wrap(err, "failed to update document")
	}

	return nil
}

// DeleteDoc removes a document. Firestore treats deleting a missing
// document as success, matching the contract.
func (s *Store) DeleteDoc(ctx context.Context, ref store.DocRef) error {
	if _, err := s.doc(ref).Delete(ctx); err != nil {
		return errors.Wrap(err, "failed to delete document")
	}

	return nil
}

// ApplyBatch applies all writes in a single transaction.
func (s *Store) ApplyBatch(ctx context.Context, writes []store.Write) error {
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		for _, w := range writes {
			doc := s.doc(w.Ref)
			switch w.Kind {
			case store.WriteSet:
				if err := tx.Set(doc, w.Data); err != nil {
					return err
				}
			case store.WriteUpdate:
				if err := tx.Set(doc, translateSentinels(w.Data), firestore.MergeAll); err != nil {
					return err
				}
			case store.WriteDelete:
				if err := tx.Delete(doc); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "transaction failed")
	}

	return nil
}

// WatchDoc subscribes to a document via a Firestore snapshot listener.
func (s *Store) WatchDoc(ctx context.Context, ref store.DocRef) (<-chan store.DocEvent, store.CancelFunc) {
	watchCtx, stop := context.WithCancel(ctx)
	events := make(chan store.DocEvent, 16)

	var once sync.Once
	cancel := func() {
		once.Do(stop)
	}

	go func() {
		defer close(events)
		iter := s.doc(ref).Snapshots(watchCtx)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if err != nil {
				if watchCtx.Err() != nil {
					return
				}
				s.logger.Warn("document listener error", "collection", ref.Collection, "id", ref.ID, "error", err)
				sendDocEvent(watchCtx, events, store.DocEvent{Err: err})

				return
			}
			sendDocEvent(watchCtx, events, store.DocEvent{Snapshot: toDocSnapshot(ref.Collection, snap)})
		}
	}()

	return events, cancel
}

// WatchQuery subscribes to a query result set via a snapshot listener.
func (s *Store) WatchQuery(ctx context.Context, q store.Query) (<-chan store.QueryEvent, store.CancelFunc) {
	watchCtx, stop := context.WithCancel(ctx)
	events := make(chan store.QueryEvent, 16)

	var once sync.Once
	cancel := func() {
		once.Do(stop)
	}

	go func() {
		defer close(events)
		iter := s.buildQuery(q).Snapshots(watchCtx)
		defer iter.Stop()

		for {
			qsnap, err := iter.Next()
			if err != nil {
				if watchCtx.Err() != nil {
					return
				}
				s.logger.Warn("query listener error", "collection", q.Collection, "error", err)
				sendQueryEvent(watchCtx, events, store.QueryEvent{Err: err})

				return
			}

			docs, err := collectDocs(q.Collection, qsnap)
			if err != nil {
				sendQueryEvent(watchCtx, events, store.QueryEvent{Err: err})

				return
			}
			sendQueryEvent(watchCtx, events, store.QueryEvent{Snapshot: store.QuerySnapshot{Docs: docs}})
		}
	}()

	return events, cancel
}

func (s *Store) doc(ref store.DocRef) *firestore.DocumentRef {
	return s.client.Collection(ref.Collection).Doc(ref.ID)
}

func (s *Store) buildQuery(q store.Query) firestore.Query {
	query := s.client.Collection(q.Collection).Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, "==", f.Value)
	}
	for _, o := range q.Orders {
		dir := firestore.Asc
		if o.Direction == store.Descending {
			dir = firestore.Desc
		}
		query = query.OrderBy(o.Field, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	return query
}

func collectDocs(collection string, qsnap *firestore.QuerySnapshot) ([]store.DocSnapshot, error) {
	var docs []store.DocSnapshot
	for {
		snap, err := qsnap.Documents.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to iterate snapshot")
		}
		docs = append(docs, toDocSnapshot(collection, snap))
	}

	return docs, nil
}

func toDocSnapshot(collection string, snap *firestore.DocumentSnapshot) store.DocSnapshot {
	ref := store.DocRef{Collection: collection, ID: snap.Ref.ID}
	if !snap.Exists() {
		return store.DocSnapshot{Ref: ref}
	}

	return store.DocSnapshot{Ref: ref, Exists: true, Data: snap.Data()}
}

// translateSentinels maps the store's field-deletion marker onto the
// Firestore one.
func translateSentinels(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if v == store.DeleteField {
			out[k] = firestore.Delete

			continue
		}
		out[k] = v
	}

	return out
}

func sendDocEvent(ctx context.Context, ch chan store.DocEvent, ev store.DocEvent) {
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}

func sendQueryEvent(ctx context.Context, ch chan store.QueryEvent, ev store.QueryEvent) {
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}
