package handler

import (
	"log/slog"
	"net/http"

	"memorylane/internal/delivery/http/response"
	"memorylane/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PeopleHandler holds dependencies for person handlers.
type PeopleHandler struct {
	people   usecase.PeopleUsecase
	accounts usecase.AccountUsecase
	logger   *slog.Logger
}

// NewPeopleHandler is the constructor for PeopleHandler, injected by Fx.
func NewPeopleHandler(people usecase.PeopleUsecase, accounts usecase.AccountUsecase, logger *slog.Logger) *PeopleHandler {
	return &PeopleHandler{people: people, accounts: accounts, logger: logger}
}

// Create accepts a multipart upload: displayName form field plus an
// optional faceThumb image file.
func (h *PeopleHandler) Create(c echo.Context) error {
	patientUID, err := patientScope(c, h.accounts)
	if err != nil {
		return errors.WithStack(err)
	}

	displayName := c.FormValue("displayName")
	if displayName == "" {
		return response.BindingError(c, "A display name is required")
	}

	input := usecase.CreatePersonInput{
		PatientUID:  patientUID,
		DisplayName: displayName,
	}

	if fileHeader, fileErr := c.FormFile("faceThumb"); fileErr == nil {
		file, openErr := fileHeader.Open()
		if openErr != nil {
			return response.BindingError(c, "Cannot read the uploaded face thumbnail")
		}
		defer file.Close()

		input.FaceThumb = file
		input.FaceThumbName = fileHeader.Filename
		input.FaceThumbContentType = fileHeader.Header.Get("Content-Type")
	}

	person, err := h.people.Create(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toPersonResponse(person))
}

// List returns the patient's people, oldest first.
func (h *PeopleHandler) List(c echo.Context) error {
	patientUID, err := patientScope(c, h.accounts)
	if err != nil {
		return errors.WithStack(err)
	}

	people, err := h.people.List(c.Request().Context(), patientUID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toPersonResponses(people))
}

// Get reads one person.
func (h *PeopleHandler) Get(c echo.Context) error {
	person, err := h.people.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toPersonResponse(person))
}

// Delete removes a person record. Memories keep their denormalized tags.
func (h *PeopleHandler) Delete(c echo.Context) error {
	if err := h.people.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Person deleted"})
}
