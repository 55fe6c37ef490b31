package usecase

import (
	"context"

	"memorylane/internal/domain/entity"
	"memorylane/internal/live"
)

// NoteUsecase defines fragmented-note operations. A patient has at most one
// active note session at a time; Latest returns the most recently updated.
type NoteUsecase interface {
	// Latest returns the patient's most recently updated note session, or
	// nil when none exists.
	Latest(ctx context.Context, patientUID string) (*entity.NoteSession, error)

	// WatchLatest opens a live binding over the most recently updated
	// session. The caller owns the returned binding and must Close it.
	WatchLatest(ctx context.Context, patientUID string) *live.Collection[entity.NoteSession]

	// StartSession creates a new note session with a first note.
	StartSession(ctx context.Context, patientUID, title, text string) (*entity.NoteSession, error)

	// Append adds a note to the session, refreshes the stored summary and
	// publishes a note.appended activity event.
	Append(ctx context.Context, sessionID, text string) (*entity.NoteSession, error)

	// Summarize regenerates and stores the session summary, returning it.
	Summarize(ctx context.Context, sessionID string) (string, error)
}
