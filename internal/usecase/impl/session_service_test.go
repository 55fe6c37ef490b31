package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"memorylane/internal/domain/constants"
	"memorylane/internal/domain/entity"
	"memorylane/internal/domain/service"
	"memorylane/internal/domain/store"
	"memorylane/internal/domain/store/storetest"
	"memorylane/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pollWait = time.Second
	pollTick = 5 * time.Millisecond
)

// fakeAuthWatcher is a scriptable auth stream for tests.
type fakeAuthWatcher struct {
	mu sync.Mutex
	ch chan service.AuthEvent
}

func newFakeAuthWatcher() *fakeAuthWatcher {
	return &fakeAuthWatcher{ch: make(chan service.AuthEvent, 16)}
}

func (f *fakeAuthWatcher) Watch(_ context.Context) (<-chan service.AuthEvent, store.CancelFunc) {
	return f.ch, func() {}
}

func (f *fakeAuthWatcher) emit(p *entity.Principal) {
	f.ch <- service.AuthEvent{Principal: p}
}

func (f *fakeAuthWatcher) emitErr(err error) {
	f.ch <- service.AuthEvent{Err: err}
}

// fakePointerStore keeps the pointer in memory.
type fakePointerStore struct {
	mu  sync.Mutex
	ptr *entity.PatientPointer
	err error
}

func (f *fakePointerStore) Load() (*entity.PatientPointer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.ptr, f.err
}

func (f *fakePointerStore) Save(ptr *entity.PatientPointer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ptr = ptr

	return nil
}

func (f *fakePointerStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ptr = nil

	return nil
}

type sessionFixtures struct {
	service usecase.SessionUsecase
	auth    *fakeAuthWatcher
	store   *storetest.Store
	pointer *fakePointerStore
}

func createTestSessionService(t *testing.T) sessionFixtures {
	t.Helper()

	auth := newFakeAuthWatcher()
	st := storetest.New()
	pointer := &fakePointerStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewSessionService(auth, st, pointer, logger)
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(svc.Stop)

	return sessionFixtures{service: svc, auth: auth, store: st, pointer: pointer}
}

func userRef(uid string) store.DocRef {
	return store.DocRef{Collection: constants.CollectionUsers, ID: uid}
}

func TestSessionService_InitializingBeforeFirstAuthEvent(t *testing.T) {
	fx := createTestSessionService(t)

	s := fx.service.Snapshot()
	assert.Equal(t, usecase.SessionInitializing, s.Status)
	assert.True(t, s.Loading)
	assert.Nil(t, s.Principal)
	assert.Nil(t, s.Profile)
}

func TestSessionService_NoPrincipalWithPointerSynthesizesPatientSession(t *testing.T) {
	fx := createTestSessionService(t)
	require.NoError(t, fx.pointer.Save(&entity.PatientPointer{PatientUID: "p1", DisplayName: "Rose"}))

	fx.auth.emit(nil)

	require.Eventually(t, func() bool {
		return !fx.service.Snapshot().Loading
	}, pollWait, pollTick)

	s := fx.service.Snapshot()
	assert.Equal(t, usecase.SessionAuthenticated, s.Status)
	require.NotNil(t, s.Principal)
	assert.Equal(t, entity.PrincipalSynthetic, s.Principal.Kind)
	assert.Equal(t, "p1", s.Principal.UID)
	require.NotNil(t, s.Profile)
	assert.Equal(t, entity.RolePatient, s.Profile.Role)
	assert.Equal(t, "p1", s.Profile.PatientUID)
	assert.Equal(t, "Rose", s.Profile.DisplayName)
	require.NotNil(t, s.Pointer)
	assert.Equal(t, "p1", s.Pointer.PatientUID)
	assert.Zero(t, fx.store.WatchDocCalls())
}

func TestSessionService_NoPrincipalWithoutPointerIsUnauthenticated(t *testing.T) {
	fx := createTestSessionService(t)

	fx.auth.emit(nil)

	require.Eventually(t, func() bool {
		return !fx.service.Snapshot().Loading
	}, pollWait, pollTick)

	s := fx.service.Snapshot()
	assert.Equal(t, usecase.SessionUnauthenticated, s.Status)
	assert.Nil(t, s.Principal)
	assert.Nil(t, s.Profile)
	assert.Nil(t, s.Pointer)
	assert.Zero(t, fx.store.WatchDocCalls())
}

func TestSessionService_SyntheticPrincipalNeverReadsStore(t *testing.T) {
	fx := createTestSessionService(t)
	ptr := entity.PatientPointer{PatientUID: "p1", DisplayName: "Rose"}
	require.NoError(t, fx.pointer.Save(&ptr))

	fx.auth.emit(entity.NewSyntheticPrincipal(ptr))

	require.Eventually(t, func() bool {
		return fx.service.Snapshot().Status == usecase.SessionAuthenticated
	}, pollWait, pollTick)

	s := fx.service.Snapshot()
	require.NotNil(t, s.Profile)
	assert.Equal(t, "p1", s.Profile.UID)
	assert.Equal(t, "Rose", s.Profile.DisplayName)
	assert.Equal(t, entity.RolePatient, s.Profile.Role)
	assert.Zero(t, fx.store.WatchDocCalls())
}

func TestSessionService_AnonymousWithPointerWatchesPatientProfile(t *testing.T) {
	fx := createTestSessionService(t)
	require.NoError(t, fx.pointer.Save(&entity.PatientPointer{PatientUID: "p1", DisplayName: "Rose"}))
	fx.store.Seed(userRef("p1"), map[string]any{
		"role":        "patient",
		"displayName": "Rose Almeida",
	})

	fx.auth.emit(entity.NewRealPrincipal("anon-1", "", "", true))

	require.Eventually(t, func() bool {
		s := fx.service.Snapshot()

		return s.Profile != nil && s.Profile.DisplayName == "Rose Almeida"
	}, pollWait, pollTick)

	s := fx.service.Snapshot()
	assert.Equal(t, usecase.SessionAuthenticated, s.Status)
	// The stored document omits patientUid; the pointer fills it in.
	assert.Equal(t, "p1", s.Profile.PatientUID)
	assert.Equal(t, 1, fx.store.WatchDocCalls())
}

func TestSessionService_AnonymousWithMissingProfileSynthesizes(t *testing.T) {
	fx := createTestSessionService(t)
	require.NoError(t, fx.pointer.Save(&entity.PatientPointer{PatientUID: "p1", DisplayName: "Rose"}))

	fx.auth.emit(entity.NewRealPrincipal("anon-1", "", "", true))

	require.Eventually(t, func() bool {
		return fx.service.Snapshot().Status == usecase.SessionAuthenticated
	}, pollWait, pollTick)

	s := fx.service.Snapshot()
	require.NotNil(t, s.Profile)
	assert.Equal(t, "p1", s.Profile.UID)
	assert.Equal(t, "Rose", s.Profile.DisplayName)
	assert.Equal(t, entity.RolePatient, s.Profile.Role)
}

func TestSessionService_StandardPrincipalWatchesOwnProfile(t *testing.T) {
	fx := createTestSessionService(t)
	fx.store.Seed(userRef("c1"), map[string]any{
		"role":        "caregiver",
		"displayName": "Carol",
		"patientUid":  "p1",
	})

	fx.auth.emit(entity.NewRealPrincipal("c1", "carol@example.com", "Carol", false))

	require.Eventually(t, func() bool {
		return fx.service.Snapshot().Profile != nil
	}, pollWait, pollTick)

	s := fx.service.Snapshot()
	assert.Equal(t, usecase.SessionAuthenticated, s.Status)
	assert.Equal(t, "c1", s.Profile.UID)
	assert.Equal(t, entity.RoleCaregiver, s.Profile.Role)
	assert.Equal(t, "p1", s.Profile.PatientUID)
}

func TestSessionService_ProfileErrorIsSwallowed(t *testing.T) {
	fx := createTestSessionService(t)
	fx.store.Seed(userRef("c1"), map[string]any{
		"role":        "caregiver",
		"displayName": "Carol",
	})

	fx.auth.emit(entity.NewRealPrincipal("c1", "carol@example.com", "Carol", false))

	require.Eventually(t, func() bool {
		return fx.service.Snapshot().Profile != nil
	}, pollWait, pollTick)

	fx.store.EmitDocError(userRef("c1"), errors.New("permission denied"))

	// The error never reaches the snapshot and the profile stays.
	time.Sleep(50 * time.Millisecond)
	s := fx.service.Snapshot()
	require.NoError(t, s.Err)
	require.NotNil(t, s.Profile)
	assert.Equal(t, "Carol", s.Profile.DisplayName)
}

func TestSessionService_AuthErrorIsSurfaced(t *testing.T) {
	fx := createTestSessionService(t)

	fx.auth.emitErr(errors.New("token refresh failed"))

	require.Eventually(t, func() bool {
		return fx.service.Snapshot().Err != nil
	}, pollWait, pollTick)

	s := fx.service.Snapshot()
	assert.False(t, s.Loading)
	assert.ErrorContains(t, s.Err, "token refresh failed")
}

func TestSessionService_IdentityChangeRebindsProfileWatch(t *testing.T) {
	fx := createTestSessionService(t)
	fx.store.Seed(userRef("c1"), map[string]any{"role": "caregiver", "displayName": "Carol"})
	fx.store.Seed(userRef("c2"), map[string]any{"role": "caregiver", "displayName": "Dan"})

	fx.auth.emit(entity.NewRealPrincipal("c1", "carol@example.com", "Carol", false))
	require.Eventually(t, func() bool {
		s := fx.service.Snapshot()

		return s.Profile != nil && s.Profile.DisplayName == "Carol"
	}, pollWait, pollTick)

	fx.auth.emit(entity.NewRealPrincipal("c2", "dan@example.com", "Dan", false))
	require.Eventually(t, func() bool {
		s := fx.service.Snapshot()

		return s.Profile != nil && s.Profile.DisplayName == "Dan"
	}, pollWait, pollTick)

	assert.Equal(t, 2, fx.store.WatchDocCalls())
	assert.Equal(t, 1, fx.store.CancelCalls())
}

func TestSessionService_RepeatedSameIdentityEventDoesNotRebind(t *testing.T) {
	fx := createTestSessionService(t)
	fx.store.Seed(userRef("c1"), map[string]any{"role": "caregiver", "displayName": "Carol"})

	principal := entity.NewRealPrincipal("c1", "carol@example.com", "Carol", false)
	fx.auth.emit(principal)
	require.Eventually(t, func() bool {
		return fx.service.Snapshot().Profile != nil
	}, pollWait, pollTick)

	fx.auth.emit(entity.NewRealPrincipal("c1", "carol@example.com", "Carol", false))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, fx.store.WatchDocCalls())
	assert.Zero(t, fx.store.CancelCalls())
}

func TestSessionService_SignOutClearsProfile(t *testing.T) {
	fx := createTestSessionService(t)
	fx.store.Seed(userRef("c1"), map[string]any{"role": "caregiver", "displayName": "Carol"})

	fx.auth.emit(entity.NewRealPrincipal("c1", "carol@example.com", "Carol", false))
	require.Eventually(t, func() bool {
		return fx.service.Snapshot().Profile != nil
	}, pollWait, pollTick)

	fx.auth.emit(nil)

	require.Eventually(t, func() bool {
		return fx.service.Snapshot().Status == usecase.SessionUnauthenticated
	}, pollWait, pollTick)

	s := fx.service.Snapshot()
	assert.Nil(t, s.Profile)
	assert.Nil(t, s.Principal)
	assert.Equal(t, 1, fx.store.CancelCalls())
}

func TestSessionService_EachSubscriberReceivesSnapshots(t *testing.T) {
	fx := createTestSessionService(t)

	first, cancelFirst := fx.service.Subscribe()
	defer cancelFirst()
	second, cancelSecond := fx.service.Subscribe()
	defer cancelSecond()

	fx.auth.emit(entity.NewRealPrincipal("c1", "carol@example.com", "Carol", false))

	readSnapshot := func(ch <-chan usecase.SessionSnapshot) usecase.SessionSnapshot {
		t.Helper()
		select {
		case s := <-ch:
			return s
		case <-time.After(pollWait):
			t.Fatal("no snapshot delivered")

			return usecase.SessionSnapshot{}
		}
	}

	// Both subscribers observe the change; neither steals the other's copy.
	assert.Equal(t, usecase.SessionAuthenticated, readSnapshot(first).Status)
	assert.Equal(t, usecase.SessionAuthenticated, readSnapshot(second).Status)
}

func TestSessionService_SubscribeCancelClosesChannel(t *testing.T) {
	fx := createTestSessionService(t)

	ch, cancel := fx.service.Subscribe()
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
}
