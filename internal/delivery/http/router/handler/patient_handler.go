package handler

import (
	"log/slog"
	"net/http"

	"memorylane/internal/delivery/http/middleware"
	"memorylane/internal/delivery/http/response"
	domainerrors "memorylane/internal/domain/errors"
	"memorylane/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PatientHandler groups the patient-side login flow with the caregiver's
// patient-link management.
type PatientHandler struct {
	access   usecase.PatientAccessUsecase
	link     usecase.PatientLinkUsecase
	accounts usecase.AccountUsecase
	logger   *slog.Logger
}

// NewPatientHandler is the constructor for PatientHandler, injected by Fx.
func NewPatientHandler(
	access usecase.PatientAccessUsecase,
	link usecase.PatientLinkUsecase,
	accounts usecase.AccountUsecase,
	logger *slog.Logger,
) *PatientHandler {
	return &PatientHandler{access: access, link: link, accounts: accounts, logger: logger}
}

type patientLoginRequest struct {
	PatientID string `json:"patientId" validate:"required"`
}

// PatientLogin signs the device in as a patient using only an access ID.
func (h *PatientHandler) PatientLogin(c echo.Context) error {
	var req patientLoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid patient login input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ptr, err := h.access.Login(c.Request().Context(), req.PatientID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toPointerResponse(ptr))
}

// PatientLogout ends the anonymous patient session on this device.
func (h *PatientHandler) PatientLogout(c echo.Context) error {
	if err := h.access.Logout(c.Request().Context()); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Patient session ended"})
}

type createPatientRequest struct {
	PatientName string `json:"patientName" validate:"required"`
}

// CreatePatient provisions a new patient identity for the caregiver.
func (h *PatientHandler) CreatePatient(c echo.Context) error {
	var req createPatientRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid patient input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	out, err := h.link.CreatePatient(c.Request().Context(), middleware.UID(c), req.PatientName)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toPointerResponse(out.Pointer))
}

type joinPatientRequest struct {
	PatientID string `json:"patientId" validate:"required"`
}

// JoinPatient links the caregiver to an existing patient by access ID.
func (h *PatientHandler) JoinPatient(c echo.Context) error {
	var req joinPatientRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid join input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ptr, err := h.link.JoinPatient(c.Request().Context(), middleware.UID(c), req.PatientID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toPointerResponse(ptr))
}

// LeavePatient removes the caregiver's patient link.
func (h *PatientHandler) LeavePatient(c echo.Context) error {
	if err := h.link.LeavePatient(c.Request().Context(), middleware.UID(c)); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Left patient"})
}

// AccessCode renders the linked patient's access ID as a QR code PNG.
func (h *PatientHandler) AccessCode(c echo.Context) error {
	profile, err := h.accounts.Profile(c.Request().Context(), middleware.UID(c))
	if err != nil {
		return errors.WithStack(err)
	}
	if profile.PatientUID == "" {
		return errors.Wrap(domainerrors.ErrNotLinkedToPatient, profile.UID)
	}

	png, err := h.link.AccessCode(c.Request().Context(), profile.PatientUID)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}
