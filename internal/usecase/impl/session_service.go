// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"
	"sync"

	"memorylane/internal/domain/constants"
	"memorylane/internal/domain/entity"
	"memorylane/internal/domain/service"
	"memorylane/internal/domain/store"
	"memorylane/internal/live"
	"memorylane/internal/usecase"
)

// sessionService resolves the device session. It combines three sources:
// the auth event stream, the device-local patient pointer, and a live
// binding over the signed-in account's profile document.
//
// Resolution rules:
//   - Before the first auth event the session is initializing and loading.
//   - Signed out with a saved pointer: a synthetic patient principal is
//     reconstructed from the pointer and the session stays authenticated;
//     the profile is synthesized and the store is never read.
//   - Signed out without a pointer: unauthenticated.
//   - Synthetic principal: authenticated with a profile synthesized from
//     the pointer; the profile document is never read.
//   - Anonymous principal (patient device): the profile document of the
//     pointed-at patient is watched; while it is absent a synthesized
//     profile stands in. Without a pointer there is no profile.
//   - Standard principal (caregiver): the account's own profile document
//     is watched.
//
// Profile watch errors are logged and swallowed; the last known profile
// stays visible. Auth errors are surfaced on the snapshot.
type sessionService struct {
	auth    service.AuthWatcher
	store   store.Store
	pointer service.PointerStore
	logger  *slog.Logger

	mu        sync.Mutex
	started   bool
	cancel    store.CancelFunc
	stop      context.CancelFunc
	principal *entity.Principal
	snapshot  usecase.SessionSnapshot
	subs      map[uint64]chan usecase.SessionSnapshot
	nextSubID uint64
	profile   *live.Doc[entity.Profile]
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(
	auth service.AuthWatcher,
	st store.Store,
	pointer service.PointerStore,
	logger *slog.Logger,
) usecase.SessionUsecase {
	return &sessionService{
		auth:    auth,
		store:   st,
		pointer: pointer,
		logger:  logger,
		snapshot: usecase.SessionSnapshot{
			Status:  usecase.SessionInitializing,
			Loading: true,
		},
		subs: make(map[uint64]chan usecase.SessionSnapshot),
	}
}

// Start begins watching auth state. It is idempotent.
func (srv *sessionService) Start(ctx context.Context) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.started {
		return nil
	}
	srv.started = true

	runCtx, stop := context.WithCancel(ctx)
	srv.stop = stop
	srv.profile = live.NewDoc(srv.store, entity.ProfileFromMap)

	events, cancel := srv.auth.Watch(runCtx)
	srv.cancel = cancel

	go srv.run(runCtx, events)

	return nil
}

// Stop tears down all watches.
func (srv *sessionService) Stop() {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if !srv.started {
		return
	}
	srv.started = false
	if srv.cancel != nil {
		srv.cancel()
		srv.cancel = nil
	}
	if srv.stop != nil {
		srv.stop()
		srv.stop = nil
	}
	if srv.profile != nil {
		srv.profile.Close()
	}
}

// Snapshot returns the current resolved session.
func (srv *sessionService) Snapshot() usecase.SessionSnapshot {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	return srv.snapshot
}

// Subscribe registers an observer of session snapshots. Every subscriber
// has its own coalescing stream, so concurrent consumers do not steal each
// other's snapshots.
func (srv *sessionService) Subscribe() (<-chan usecase.SessionSnapshot, store.CancelFunc) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	id := srv.nextSubID
	srv.nextSubID++
	ch := make(chan usecase.SessionSnapshot, 1)
	srv.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			srv.mu.Lock()
			defer srv.mu.Unlock()
			delete(srv.subs, id)
			close(ch)
		})
	}

	return ch, cancel
}

func (srv *sessionService) run(ctx context.Context, events <-chan service.AuthEvent) {
	profileUpdates := srv.profile.Updates()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			srv.handleAuthEvent(ctx, ev)
		case state := <-profileUpdates:
			srv.handleProfileState(state)
		}
	}
}

func (srv *sessionService) handleAuthEvent(ctx context.Context, ev service.AuthEvent) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	next := srv.snapshot
	// The loading latch releases on the first auth event and never re-arms.
	next.Loading = false

	if ev.Err != nil {
		srv.logger.Warn("auth watch error", "error", ev.Err)
		next.Err = ev.Err
		srv.setSnapshotLocked(next)

		return
	}
	next.Err = nil

	ptr, err := srv.pointer.Load()
	if err != nil {
		srv.logger.Warn("failed to load patient pointer", "error", err)
		ptr = nil
	}
	next.Pointer = ptr

	principal := ev.Principal
	if principal == nil && ptr != nil {
		// The provider reports no session but a pointer survives on the
		// device: reconstruct the patient identity from it instead of
		// dropping to unauthenticated.
		principal = entity.NewSyntheticPrincipal(*ptr)
	}

	identityChanged := !srv.principal.SameIdentity(principal)
	srv.principal = principal
	next.Principal = principal

	switch {
	case principal == nil:
		next.Status = usecase.SessionUnauthenticated
		next.Profile = nil
		if identityChanged {
			srv.profile.Bind(ctx, nil)
		}

	case principal.Kind == entity.PrincipalSynthetic:
		next.Status = usecase.SessionAuthenticated
		if ptr != nil {
			next.Profile = entity.SyntheticProfile(*ptr)
		} else {
			next.Profile = entity.SyntheticProfile(entity.PatientPointer{
				PatientUID:  principal.UID,
				DisplayName: principal.DisplayName,
			})
		}
		if identityChanged {
			srv.profile.Bind(ctx, nil)
		}

	case principal.Anonymous:
		next.Status = usecase.SessionAuthenticated
		if ptr == nil {
			next.Profile = nil
			if identityChanged {
				srv.profile.Bind(ctx, nil)
			}

			break
		}
		// Stand in with a synthesized profile until the document lands.
		next.Profile = entity.SyntheticProfile(*ptr)
		ref := store.DocRef{Collection: constants.CollectionUsers, ID: ptr.PatientUID}
		srv.profile.Bind(ctx, &ref)

	default:
		next.Status = usecase.SessionAuthenticated
		ref := store.DocRef{Collection: constants.CollectionUsers, ID: principal.UID}
		srv.profile.Bind(ctx, &ref)
	}

	srv.setSnapshotLocked(next)
}

func (srv *sessionService) handleProfileState(state live.State[entity.Profile]) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if state.Err != nil {
		// Profile read failures never break the session.
		srv.logger.Debug("profile watch error", "error", state.Err)

		return
	}
	if state.Loading {
		return
	}

	next := srv.snapshot
	p := srv.principal

	switch {
	case p == nil || p.Kind == entity.PrincipalSynthetic:
		return

	case p.Anonymous:
		if next.Pointer == nil {
			return
		}
		if state.Data == nil {
			next.Profile = entity.SyntheticProfile(*next.Pointer)
		} else {
			profile := *state.Data
			if profile.PatientUID == "" {
				profile.PatientUID = next.Pointer.PatientUID
			}
			next.Profile = &profile
		}

	default:
		next.Profile = state.Data
	}

	srv.setSnapshotLocked(next)
}

func (srv *sessionService) setSnapshotLocked(s usecase.SessionSnapshot) {
	srv.snapshot = s
	for _, ch := range srv.subs {
		publishSnapshot(ch, s)
	}
}

// publishSnapshot replaces any undelivered snapshot so subscribers always
// see the latest state.
func publishSnapshot(ch chan usecase.SessionSnapshot, s usecase.SessionSnapshot) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
