package service

import (
	"context"

	"memorylane/internal/domain/entity"
	"memorylane/internal/domain/store"
)

// AuthEvent is one change of the authentication state. Principal is nil when
// signed out. Err reports a failure of the auth layer itself; delivery of an
// error does not end the stream.
type AuthEvent struct {
	Principal *entity.Principal
	Err       error
}

// AuthWatcher exposes the authentication state as a stream. The current
// state is delivered promptly after Watch, then on every change, until the
// context is done or cancel is called.
type AuthWatcher interface {
	Watch(ctx context.Context) (<-chan AuthEvent, store.CancelFunc)
}

// AuthClient performs authentication operations against the identity
// provider and broadcasts resulting state changes to watchers.
type AuthClient interface {
	AuthWatcher

	// SignInAnonymously creates an anonymous session and returns its uid.
	SignInAnonymously(ctx context.Context) (string, error)

	// SignInAs establishes a session for a known account.
	SignInAs(ctx context.Context, principal *entity.Principal) error

	// CreateUser registers a new account with the identity provider.
	CreateUser(ctx context.Context, email, displayName string) (uid string, err error)

	// SignOut ends the current session.
	SignOut(ctx context.Context) error
}
