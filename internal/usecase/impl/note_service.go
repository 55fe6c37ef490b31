package impl

import (
	"context"
	"log/slog"
	"time"

	"memorylane/internal/domain/constants"
	"memorylane/internal/domain/entity"
	domainerrors "memorylane/internal/domain/errors"
	"memorylane/internal/domain/service"
	"memorylane/internal/domain/store"
	"memorylane/internal/live"
	"memorylane/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// noteService implements the NoteUsecase interface.
type noteService struct {
	store      store.Store
	summarizer service.Summarizer
	publisher  service.EventPublisher
	logger     *slog.Logger
}

// NewNoteService is the constructor for noteService.
func NewNoteService(
	st store.Store,
	summarizer service.Summarizer,
	publisher service.EventPublisher,
	logger *slog.Logger,
) usecase.NoteUsecase {
	return &noteService{
		store:      st,
		summarizer: summarizer,
		publisher:  publisher,
		logger:     logger,
	}
}

// latestQuery selects the patient's most recently updated note session.
func latestQuery(patientUID string) store.Query {
	return store.NewQuery(constants.CollectionNoteSessions).
		Where("patientUid", patientUID).
		OrderBy("updatedAt", store.Descending).
		WithLimit(1)
}

// Latest returns the patient's most recently updated note session, or nil
// when none exists.
func (srv *noteService) Latest(ctx context.Context, patientUID string) (*entity.NoteSession, error) {
	snap, err := srv.store.RunQuery(ctx, latestQuery(patientUID))
	if err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to query note sessions")
	}
	if len(snap.Docs) == 0 {
		return nil, nil
	}

	doc := snap.Docs[0]

	return entity.NoteSessionFromMap(doc.Ref.ID, doc.Data), nil
}

// WatchLatest opens a live binding over the most recently updated session.
func (srv *noteService) WatchLatest(ctx context.Context, patientUID string) *live.Collection[entity.NoteSession] {
	col := live.NewCollection(srv.store, entity.NoteSessionFromMap)
	q := latestQuery(patientUID)
	col.Bind(ctx, &q)

	return col
}

// StartSession creates a new note session with a first note.
func (srv *noteService) StartSession(ctx context.Context, patientUID, title, text string) (*entity.NoteSession, error) {
	if patientUID == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "patient UID is required")
	}
	if text == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "note text is required")
	}

	now := time.Now().UnixMilli()
	session := &entity.NoteSession{
		ID:         uuid.NewString(),
		PatientUID: patientUID,
		Title:      title,
		Notes:      []entity.Note{{Text: text, CreatedAt: now}},
		UpdatedAt:  now,
	}
	session.SummaryText = srv.summarizer.Summarize(session.CombinedText())

	ref := store.DocRef{Collection: constants.CollectionNoteSessions, ID: session.ID}
	if err := srv.store.SetDoc(ctx, ref, session.ToMap()); err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to write note session")
	}

	srv.logger.Info("Note session started", "sessionID", session.ID, "patientUID", patientUID)

	return session, nil
}

// Append adds a note to the session, refreshes the stored summary and
// publishes a note.appended activity event.
func (srv *noteService) Append(ctx context.Context, sessionID, text string) (*entity.NoteSession, error) {
	if text == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "note text is required")
	}

	session, err := srv.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	session.Notes = append(session.Notes, entity.Note{Text: text, CreatedAt: now})
	session.UpdatedAt = now
	session.SummaryText = srv.summarizer.Summarize(session.CombinedText())

	ref := store.DocRef{Collection: constants.CollectionNoteSessions, ID: sessionID}
	update := map[string]any{
		"notes":       session.ToMap()["notes"],
		"summaryText": session.SummaryText,
		"updatedAt":   session.UpdatedAt,
	}
	if err := srv.store.UpdateDoc(ctx, ref, update); err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to append note")
	}

	srv.publishActivity(ctx, session)

	return session, nil
}

// Summarize regenerates and stores the session summary, returning it.
func (srv *noteService) Summarize(ctx context.Context, sessionID string) (string, error) {
	session, err := srv.get(ctx, sessionID)
	if err != nil {
		return "", err
	}

	summary := srv.summarizer.Summarize(session.CombinedText())

	ref := store.DocRef{Collection: constants.CollectionNoteSessions, ID: sessionID}
	update := map[string]any{
		"summaryText": summary,
		"updatedAt":   time.Now().UnixMilli(),
	}
	if err := srv.store.UpdateDoc(ctx, ref, update); err != nil {
		return "", domainerrors.NewStoreExecuteError(err, "failed to store summary")
	}

	return summary, nil
}

func (srv *noteService) get(ctx context.Context, sessionID string) (*entity.NoteSession, error) {
	ref := store.DocRef{Collection: constants.CollectionNoteSessions, ID: sessionID}
	snap, err := srv.store.GetDoc(ctx, ref)
	if err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to read note session")
	}
	if !snap.Exists {
		return nil, errors.Wrap(domainerrors.ErrNoteSessionNotFound, sessionID)
	}

	return entity.NoteSessionFromMap(sessionID, snap.Data), nil
}

func (srv *noteService) publishActivity(ctx context.Context, session *entity.NoteSession) {
	event := &service.ActivityEvent{
		Type:       constants.ActivityNoteAppended,
		PatientUID: session.PatientUID,
		DocumentID: session.ID,
		OccurredAt: time.Now().UnixMilli(),
	}
	if err := srv.publisher.PublishActivityEvent(ctx, event); err != nil {
		srv.logger.Warn("failed to publish activity event", "type", event.Type, "error", err)
	}
}
