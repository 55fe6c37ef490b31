package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"

	"memorylane/internal/domain/entity"
	"memorylane/internal/domain/service"
	"memorylane/internal/domain/store"
)

// firebaseAuthClient implements service.AuthClient on the Firebase Admin
// SDK. The admin SDK has no session of its own, so the client keeps the
// current principal in process and broadcasts changes to watchers.
type firebaseAuthClient struct {
	client *fbauth.Client
	logger *slog.Logger

	mu       sync.Mutex
	current  *entity.Principal
	watchers map[int]chan service.AuthEvent
	nextID   int
}

// NewFirebaseAuthClient is the constructor for firebaseAuthClient.
func NewFirebaseAuthClient(ctx context.Context, app *firebase.App, logger *slog.Logger) (service.AuthClient, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}

	return &firebaseAuthClient{
		client:   client,
		logger:   logger,
		watchers: make(map[int]chan service.AuthEvent),
	}, nil
}

// Watch delivers the current auth state promptly, then every change.
func (c *firebaseAuthClient) Watch(ctx context.Context) (<-chan service.AuthEvent, store.CancelFunc) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	ch := make(chan service.AuthEvent, 16)
	c.watchers[id] = ch
	publishEvent(ch, service.AuthEvent{Principal: c.current})
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.watchers, id)
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel
}

// SignInAnonymously creates an anonymous auth user and makes it the current
// principal.
func (c *firebaseAuthClient) SignInAnonymously(ctx context.Context) (string, error) {
	user, err := c.client.CreateUser(ctx, &fbauth.UserToCreate{})
	if err != nil {
		return "", fmt.Errorf("failed to create anonymous user: %w", err)
	}

	c.broadcast(entity.NewRealPrincipal(user.UID, "", "", true))
	c.logger.Debug("anonymous session started", "uid", user.UID)

	return user.UID, nil
}

// SignInAs makes the given principal current.
func (c *firebaseAuthClient) SignInAs(_ context.Context, principal *entity.Principal) error {
	c.broadcast(principal)

	return nil
}

// CreateUser registers a new account with the identity provider.
func (c *firebaseAuthClient) CreateUser(ctx context.Context, email, displayName string) (string, error) {
	params := (&fbauth.UserToCreate{}).Email(email)
	if displayName != "" {
		params = params.DisplayName(displayName)
	}

	user, err := c.client.CreateUser(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	return user.UID, nil
}

// SignOut ends the current session.
func (c *firebaseAuthClient) SignOut(_ context.Context) error {
	c.broadcast(nil)

	return nil
}

func (c *firebaseAuthClient) broadcast(principal *entity.Principal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = principal
	for _, ch := range c.watchers {
		publishEvent(ch, service.AuthEvent{Principal: principal})
	}
}

func publishEvent(ch chan service.AuthEvent, ev service.AuthEvent) {
	select {
	case ch <- ev:
	default:
	}
}
