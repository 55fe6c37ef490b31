package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"memorylane/internal/domain/constants"
	"memorylane/internal/domain/entity"
	domainerrors "memorylane/internal/domain/errors"
	"memorylane/internal/domain/store"
	"memorylane/internal/domain/store/storetest"
	"memorylane/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountFixtures struct {
	service usecase.AccountUsecase
	auth    *fakeAuthClient
	store   *storetest.Store
}

func createTestAccountService(t *testing.T) accountFixtures {
	t.Helper()

	auth := newFakeAuthClient()
	st := storetest.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewAccountService(auth, st, fakeHasher{}, fakeTokenService{}, logger)

	return accountFixtures{service: svc, auth: auth, store: st}
}

func registerCarol(t *testing.T, fx accountFixtures) *entity.Profile {
	t.Helper()

	out, err := fx.service.Register(context.Background(), usecase.RegisterInput{
		Name:     "Carol",
		Email:    "carol@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)

	return out.Profile
}

func TestAccountService_Register_Success(t *testing.T) {
	fx := createTestAccountService(t)

	profile := registerCarol(t, fx)

	assert.Equal(t, entity.RoleCaregiver, profile.Role)
	assert.Equal(t, "Carol", profile.DisplayName)
	assert.NotEmpty(t, profile.UID)

	snap, err := fx.store.GetDoc(context.Background(), store.DocRef{
		Collection: constants.CollectionUsers, ID: profile.UID,
	})
	require.NoError(t, err)
	require.True(t, snap.Exists)

	cred, err := fx.store.GetDoc(context.Background(), store.DocRef{
		Collection: constants.CollectionCredentials, ID: profile.UID,
	})
	require.NoError(t, err)
	require.True(t, cred.Exists)
	assert.Equal(t, "hashed:Password123!", cred.Data["passwordHash"])
}

func TestAccountService_Register_DuplicateEmail(t *testing.T) {
	fx := createTestAccountService(t)
	registerCarol(t, fx)

	_, err := fx.service.Register(context.Background(), usecase.RegisterInput{
		Name:     "Other Carol",
		Email:    "carol@example.com",
		Password: "Different123!",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrEmailAlreadyRegistered)
}

func TestAccountService_Login_Success(t *testing.T) {
	fx := createTestAccountService(t)
	profile := registerCarol(t, fx)

	out, err := fx.service.Login(context.Background(), usecase.LoginInput{
		Email:    "carol@example.com",
		Password: "Password123!",
	})

	require.NoError(t, err)
	assert.Equal(t, "access-"+profile.UID, out.AccessToken)
	assert.Equal(t, "refresh-"+profile.UID, out.RefreshToken)
	assert.Equal(t, profile.UID, out.Profile.UID)

	principal := fx.auth.currentPrincipal()
	require.NotNil(t, principal)
	assert.Equal(t, profile.UID, principal.UID)
	assert.False(t, principal.Anonymous)
}

func TestAccountService_Login_WrongPassword(t *testing.T) {
	fx := createTestAccountService(t)
	registerCarol(t, fx)

	_, err := fx.service.Login(context.Background(), usecase.LoginInput{
		Email:    "carol@example.com",
		Password: "wrong",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAccountService_Login_UnknownEmail(t *testing.T) {
	fx := createTestAccountService(t)

	_, err := fx.service.Login(context.Background(), usecase.LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAccountService_Refresh_Success(t *testing.T) {
	fx := createTestAccountService(t)
	profile := registerCarol(t, fx)

	out, err := fx.service.Refresh(context.Background(), "refresh-"+profile.UID)

	require.NoError(t, err)
	assert.Equal(t, "access-"+profile.UID, out.AccessToken)
	assert.Equal(t, profile.UID, out.Profile.UID)
}

func TestAccountService_Refresh_MalformedToken(t *testing.T) {
	fx := createTestAccountService(t)

	_, err := fx.service.Refresh(context.Background(), "garbage")

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
}

func TestAccountService_UpdateDisplayName(t *testing.T) {
	fx := createTestAccountService(t)
	profile := registerCarol(t, fx)

	require.NoError(t, fx.service.UpdateDisplayName(context.Background(), profile.UID, "Caroline"))

	snap, err := fx.store.GetDoc(context.Background(), store.DocRef{
		Collection: constants.CollectionUsers, ID: profile.UID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Caroline", snap.Data["displayName"])
}

func TestAccountService_UpdateDisplayName_UnknownProfile(t *testing.T) {
	fx := createTestAccountService(t)

	err := fx.service.UpdateDisplayName(context.Background(), "ghost", "Name")

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrProfileNotFound)
}

func TestAccountService_ChangePassword(t *testing.T) {
	fx := createTestAccountService(t)
	profile := registerCarol(t, fx)

	err := fx.service.ChangePassword(context.Background(), usecase.ChangePasswordInput{
		UID:         profile.UID,
		OldPassword: "Password123!",
		NewPassword: "Better456!",
	})
	require.NoError(t, err)

	_, err = fx.service.Login(context.Background(), usecase.LoginInput{
		Email:    "carol@example.com",
		Password: "Better456!",
	})
	require.NoError(t, err)
}

func TestAccountService_ChangePassword_WrongOldPassword(t *testing.T) {
	fx := createTestAccountService(t)
	profile := registerCarol(t, fx)

	err := fx.service.ChangePassword(context.Background(), usecase.ChangePasswordInput{
		UID:         profile.UID,
		OldPassword: "nope",
		NewPassword: "Better456!",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAccountService_Logout(t *testing.T) {
	fx := createTestAccountService(t)
	profile := registerCarol(t, fx)

	_, err := fx.service.Login(context.Background(), usecase.LoginInput{
		Email:    "carol@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)

	require.NoError(t, fx.service.Logout(context.Background(), profile.UID))
	assert.Nil(t, fx.auth.currentPrincipal())
}
