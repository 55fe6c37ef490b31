package impl

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"memorylane/internal/domain/entity"
	"memorylane/internal/domain/service"
	"memorylane/internal/domain/store"

	"github.com/pkg/errors"
)

// fakeAuthClient is a scriptable service.AuthClient for tests.
type fakeAuthClient struct {
	mu           sync.Mutex
	watcher      *fakeAuthWatcher
	nextUID      int
	createdUsers map[string]string // email -> uid
	current      *entity.Principal
	signOuts     int
	createErr    error
	signInErr    error
}

func newFakeAuthClient() *fakeAuthClient {
	return &fakeAuthClient{
		watcher:      newFakeAuthWatcher(),
		createdUsers: make(map[string]string),
	}
}

func (f *fakeAuthClient) Watch(ctx context.Context) (<-chan service.AuthEvent, store.CancelFunc) {
	return f.watcher.Watch(ctx)
}

func (f *fakeAuthClient) SignInAnonymously(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return "", f.signInErr
	}
	f.nextUID++
	uid := fmt.Sprintf("anon-%d", f.nextUID)
	f.current = entity.NewRealPrincipal(uid, "", "", true)

	return uid, nil
}

func (f *fakeAuthClient) SignInAs(_ context.Context, principal *entity.Principal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return f.signInErr
	}
	f.current = principal

	return nil
}

func (f *fakeAuthClient) CreateUser(_ context.Context, email, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextUID++
	uid := fmt.Sprintf("uid-%d", f.nextUID)
	f.createdUsers[email] = uid

	return uid, nil
}

func (f *fakeAuthClient) SignOut(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = nil
	f.signOuts++

	return nil
}

func (f *fakeAuthClient) currentPrincipal() *entity.Principal {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.current
}

// fakeImageHost records uploads and deletions in memory.
type fakeImageHost struct {
	mu        sync.Mutex
	next      int
	uploads   []string
	deleted   []string
	uploadErr error
	deleteErr error
}

func (f *fakeImageHost) Upload(_ context.Context, name, _ string, body io.Reader) (*service.StoredImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if body != nil {
		if _, err := io.Copy(io.Discard, body); err != nil {
			return nil, err
		}
	}
	f.next++
	publicID := fmt.Sprintf("img-%d", f.next)
	f.uploads = append(f.uploads, publicID)

	return &service.StoredImage{
		URL:      "https://images.local/" + name,
		PublicID: publicID,
	}, nil
}

func (f *fakeImageHost) Delete(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, publicID)

	return nil
}

func (f *fakeImageHost) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.deleted...)
}

// fakePublisher records published activity events.
type fakePublisher struct {
	mu     sync.Mutex
	events []*service.ActivityEvent
	err    error
}

func (f *fakePublisher) PublishActivityEvent(_ context.Context, event *service.ActivityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)

	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) published() []*service.ActivityEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*service.ActivityEvent(nil), f.events...)
}

// fakeSummarizer wraps the input so tests can assert it was applied.
type fakeSummarizer struct{}

func (fakeSummarizer) Summarize(text string) string {
	return "summary: " + text
}

// fakeHasher is a transparent stand-in for bcrypt.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Check(password, hash string) bool {
	return hash == "hashed:"+password
}

// fakeTokenService issues recognizable token strings.
type fakeTokenService struct{}

func (fakeTokenService) GenerateTokens(userID string, _ []string) (string, string, error) {
	return "access-" + userID, "refresh-" + userID, nil
}

func (fakeTokenService) ValidateToken(tokenString string) (*service.Claims, error) {
	uid, ok := strings.CutPrefix(tokenString, "refresh-")
	if !ok {
		return nil, errors.New("malformed token")
	}

	return &service.Claims{
		UserID: uid,
		Roles:  []string{entity.RoleCaregiver.String()},
		Type:   "refresh",
	}, nil
}

func (fakeTokenService) GetRefreshTokenDuration() time.Duration {
	return time.Hour
}

// fakeQRCodeService renders access IDs as readable bytes.
type fakeQRCodeService struct{}

func (fakeQRCodeService) GenerateAccessQR(patientUID string) ([]byte, error) {
	return []byte("qr:" + patientUID), nil
}

func (fakeQRCodeService) ParseAccessQR(qrData string) (string, error) {
	uid, ok := strings.CutPrefix(qrData, "qr:")
	if !ok {
		return "", errors.New("malformed QR payload")
	}

	return uid, nil
}
