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
	"memorylane/internal/usecase"

	"github.com/pkg/errors"
)

// accountService implements the AccountUsecase interface for caregiver
// accounts. Credentials are kept in their own collection, separate from the
// profile document patients can read.
type accountService struct {
	auth         service.AuthClient
	store        store.Store
	hasher       service.PasswordHasher
	tokenService service.TokenService
	logger       *slog.Logger
}

// NewAccountService is the constructor for accountService.
func NewAccountService(
	auth service.AuthClient,
	st store.Store,
	hasher service.PasswordHasher,
	tokenService service.TokenService,
	logger *slog.Logger,
) usecase.AccountUsecase {
	return &accountService{
		auth:         auth,
		store:        st,
		hasher:       hasher,
		tokenService: tokenService,
		logger:       logger,
	}
}

// Register creates a caregiver account: an identity-provider user, a profile
// document and a credential record, written atomically.
func (srv *accountService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.logger.Info("Registering caregiver", "email", input.Email)

	taken, err := srv.emailRegistered(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errors.Wrap(domainerrors.ErrEmailAlreadyRegistered, input.Email)
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		var appErr domainerrors.AppError
		if errors.As(err, &appErr) {
			// Strength violations carry their own status already.
			return nil, err
		}

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	uid, err := srv.auth.CreateUser(ctx, input.Email, input.Name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create identity provider user")
	}

	profile := &entity.Profile{
		UID:         uid,
		Role:        entity.RoleCaregiver,
		DisplayName: input.Name,
		Email:       input.Email,
		CreatedAt:   time.Now().UnixMilli(),
	}

	writes := []store.Write{
		{
			Kind: store.WriteSet,
			Ref:  store.DocRef{Collection: constants.CollectionUsers, ID: uid},
			Data: profile.ToMap(),
		},
		{
			Kind: store.WriteSet,
			Ref:  store.DocRef{Collection: constants.CollectionCredentials, ID: uid},
			Data: map[string]any{
				"email":        input.Email,
				"passwordHash": hash,
				"createdAt":    profile.CreatedAt,
			},
		},
	}
	if err := srv.store.ApplyBatch(ctx, writes); err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to write caregiver records")
	}

	return &usecase.RegisterOutput{Profile: profile}, nil
}

// Login verifies the password against the stored credential record and
// issues a token pair.
func (srv *accountService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	cred, uid, err := srv.findCredentialByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "unknown email")
	}

	hash, _ := cred["passwordHash"].(string)
	if !srv.hasher.Check(input.Password, hash) {
		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "password mismatch")
	}

	profile, err := srv.loadProfile(ctx, uid)
	if err != nil {
		return nil, err
	}

	access, refresh, err := srv.tokenService.GenerateTokens(uid, []string{entity.RoleCaregiver.String()})
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate tokens")
	}

	if err := srv.auth.SignInAs(ctx, entity.NewRealPrincipal(uid, profile.Email, profile.DisplayName, false)); err != nil {
		return nil, errors.Wrap(err, "failed to establish session")
	}

	srv.logger.Info("Caregiver logged in", "uid", uid)

	return &usecase.LoginOutput{
		AccessToken:  access,
		RefreshToken: refresh,
		Profile:      profile,
	}, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (srv *accountService) Refresh(ctx context.Context, refreshToken string) (*usecase.LoginOutput, error) {
	claims, err := srv.tokenService.ValidateToken(refreshToken)
	if err != nil || claims.Type != "refresh" {
		return nil, errors.Wrap(domainerrors.ErrRefreshTokenInvalid, "token validation failed")
	}

	profile, err := srv.loadProfile(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	access, refresh, err := srv.tokenService.GenerateTokens(claims.UserID, claims.Roles)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate tokens")
	}

	return &usecase.LoginOutput{
		AccessToken:  access,
		RefreshToken: refresh,
		Profile:      profile,
	}, nil
}

// Profile reads the caregiver's profile document.
func (srv *accountService) Profile(ctx context.Context, uid string) (*entity.Profile, error) {
	return srv.loadProfile(ctx, uid)
}

// Logout ends the caregiver's session.
func (srv *accountService) Logout(ctx context.Context, uid string) error {
	srv.logger.Debug("Caregiver logout", "uid", uid)

	if err := srv.auth.SignOut(ctx); err != nil {
		return errors.Wrap(err, "failed to sign out")
	}

	return nil
}

// UpdateDisplayName renames the caregiver's profile.
func (srv *accountService) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	if displayName == "" {
		return errors.Wrap(domainerrors.ErrValidationFailed, "display name is required")
	}

	if _, err := srv.loadProfile(ctx, uid); err != nil {
		return err
	}

	ref := store.DocRef{Collection: constants.CollectionUsers, ID: uid}
	if err := srv.store.UpdateDoc(ctx, ref, map[string]any{"displayName": displayName}); err != nil {
		return domainerrors.NewStoreExecuteError(err, "failed to update display name")
	}

	return nil
}

// ChangePassword verifies the old password before storing a new hash.
func (srv *accountService) ChangePassword(ctx context.Context, input usecase.ChangePasswordInput) error {
	ref := store.DocRef{Collection: constants.CollectionCredentials, ID: input.UID}
	snap, err := srv.store.GetDoc(ctx, ref)
	if err != nil {
		return domainerrors.NewStoreExecuteError(err, "failed to read credentials")
	}
	if !snap.Exists {
		return errors.Wrap(domainerrors.ErrProfileNotFound, "no credential record")
	}

	hash, _ := snap.Data["passwordHash"].(string)
	if !srv.hasher.Check(input.OldPassword, hash) {
		return errors.Wrap(domainerrors.ErrInvalidCredentials, "old password mismatch")
	}

	newHash, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	if err := srv.store.UpdateDoc(ctx, ref, map[string]any{"passwordHash": newHash}); err != nil {
		return domainerrors.NewStoreExecuteError(err, "failed to store new password")
	}

	return nil
}

func (srv *accountService) emailRegistered(ctx context.Context, email string) (bool, error) {
	q := store.NewQuery(constants.CollectionCredentials).Where("email", email).WithLimit(1)
	snap, err := srv.store.RunQuery(ctx, q)
	if err != nil {
		return false, domainerrors.NewStoreExecuteError(err, "failed to query credentials")
	}

	return len(snap.Docs) > 0, nil
}

func (srv *accountService) findCredentialByEmail(ctx context.Context, email string) (map[string]any, string, error) {
	q := store.NewQuery(constants.CollectionCredentials).Where("email", email).WithLimit(1)
	snap, err := srv.store.RunQuery(ctx, q)
	if err != nil {
		return nil, "", domainerrors.NewStoreExecuteError(err, "failed to query credentials")
	}
	if len(snap.Docs) == 0 {
		return nil, "", nil
	}

	doc := snap.Docs[0]

	return doc.Data, doc.Ref.ID, nil
}

func (srv *accountService) loadProfile(ctx context.Context, uid string) (*entity.Profile, error) {
	ref := store.DocRef{Collection: constants.CollectionUsers, ID: uid}
	snap, err := srv.store.GetDoc(ctx, ref)
	if err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to read profile")
	}
	if !snap.Exists {
		return nil, errors.Wrap(domainerrors.ErrProfileNotFound, uid)
	}

	return entity.ProfileFromMap(uid, snap.Data), nil
}
