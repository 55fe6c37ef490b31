package handler

import (
	"log/slog"
	"net/http"

	"memorylane/internal/delivery/http/middleware"
	"memorylane/internal/delivery/http/response"
	"memorylane/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for caregiver account handlers.
type AuthHandler struct {
	accounts usecase.AccountUsecase
	logger   *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(accounts usecase.AccountUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register handles the caregiver registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	out, err := h.accounts.Register(c.Request().Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toProfileResponse(out.Profile))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	Profile      *profileResponse `json:"profile"`
}

// Login handles the caregiver login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	out, err := h.accounts.Login(c.Request().Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, tokenResponse{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		Profile:      toProfileResponse(out.Profile),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Refresh handles the token refresh request.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid refresh input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	out, err := h.accounts.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, tokenResponse{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		Profile:      toProfileResponse(out.Profile),
	})
}

// Logout ends the caregiver's session.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.accounts.Logout(c.Request().Context(), middleware.UID(c)); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

// Profile returns the authenticated caregiver's profile.
func (h *AuthHandler) Profile(c echo.Context) error {
	profile, err := h.accounts.Profile(c.Request().Context(), middleware.UID(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toProfileResponse(profile))
}

type displayNameRequest struct {
	DisplayName string `json:"displayName" validate:"required"`
}

// UpdateDisplayName renames the authenticated caregiver.
func (h *AuthHandler) UpdateDisplayName(c echo.Context) error {
	var req displayNameRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid display name input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.accounts.UpdateDisplayName(c.Request().Context(), middleware.UID(c), req.DisplayName); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Display name updated"})
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// ChangePassword rotates the caregiver's password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid password input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.accounts.ChangePassword(c.Request().Context(), usecase.ChangePasswordInput{
		UID:         middleware.UID(c),
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	}); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Password changed"})
}
