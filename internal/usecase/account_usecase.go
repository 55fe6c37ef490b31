package usecase

import (
	"context"

	"memorylane/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a caregiver account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput defines the data required for a caregiver to log in.
type LoginInput struct {
	Email    string
	Password string
}

// ChangePasswordInput carries a password change request.
type ChangePasswordInput struct {
	UID         string
	OldPassword string
	NewPassword string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created profile.
type RegisterOutput struct {
	Profile *entity.Profile
}

// LoginOutput returns the generated tokens after a successful login.
type LoginOutput struct {
	AccessToken  string
	RefreshToken string
	Profile      *entity.Profile
}

// AccountUsecase defines caregiver account operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AccountUsecase interface {
	Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error)
	Profile(ctx context.Context, uid string) (*entity.Profile, error)
	Login(ctx context.Context, input LoginInput) (*LoginOutput, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginOutput, error)
	Logout(ctx context.Context, uid string) error
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
	ChangePassword(ctx context.Context, input ChangePasswordInput) error
}
