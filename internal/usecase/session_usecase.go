// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"memorylane/internal/domain/entity"
	"memorylane/internal/domain/store"
)

// SessionStatus is the coarse phase of the resolved session.
type SessionStatus string

const (
	// SessionInitializing is the phase before the first auth event arrives.
	SessionInitializing SessionStatus = "initializing"
	// SessionUnauthenticated means nobody is signed in.
	SessionUnauthenticated SessionStatus = "unauthenticated"
	// SessionAuthenticated means a caregiver or patient session is active.
	SessionAuthenticated SessionStatus = "authenticated"
)

// SessionSnapshot is one resolved view of the device session. Profile is nil
// until a profile document (or a synthesized patient profile) is available.
// Pointer is the device-local patient pointer, present regardless of auth
// state once saved.
type SessionSnapshot struct {
	Status    SessionStatus
	Loading   bool
	Principal *entity.Principal
	Profile   *entity.Profile
	Pointer   *entity.PatientPointer
	Err       error
}

// SessionUsecase resolves the device session by combining the auth stream,
// the device-local patient pointer, and the live profile document.
type SessionUsecase interface {
	// Start begins watching auth state. It is idempotent.
	Start(ctx context.Context) error

	// Stop tears down all watches.
	Stop()

	// Snapshot returns the current resolved session.
	Snapshot() SessionSnapshot

	// Subscribe registers an observer of session snapshots. Each subscriber
	// has its own coalescing stream; intermediate snapshots may be skipped.
	// Cancel is idempotent and closes the channel.
	Subscribe() (<-chan SessionSnapshot, store.CancelFunc)
}
