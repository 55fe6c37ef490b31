package handler

import (
	"log/slog"
	"net/http"

	"memorylane/internal/delivery/http/response"
	"memorylane/internal/domain/entity"
	"memorylane/internal/live"
	"memorylane/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// NoteHandler holds dependencies for fragmented-note handlers.
type NoteHandler struct {
	notes    usecase.NoteUsecase
	accounts usecase.AccountUsecase
	logger   *slog.Logger
}

// NewNoteHandler is the constructor for NoteHandler, injected by Fx.
func NewNoteHandler(notes usecase.NoteUsecase, accounts usecase.AccountUsecase, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, accounts: accounts, logger: logger}
}

// Latest returns the most recently updated note session, or null.
func (h *NoteHandler) Latest(c echo.Context) error {
	patientUID, err := patientScope(c, h.accounts)
	if err != nil {
		return errors.WithStack(err)
	}

	session, err := h.notes.Latest(c.Request().Context(), patientUID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toNoteSessionResponse(session))
}

// Stream pushes live updates of the latest note session as server-sent
// events.
func (h *NoteHandler) Stream(c echo.Context) error {
	patientUID, err := patientScope(c, h.accounts)
	if err != nil {
		return errors.WithStack(err)
	}

	binding := h.notes.WatchLatest(c.Request().Context(), patientUID)
	defer binding.Close()

	return streamSSE(c, binding.Updates(), func(state live.ListState[entity.NoteSession]) any {
		return toListPayload(state, toNoteSessionResponse)
	})
}

type startSessionRequest struct {
	Title string `json:"title"`
	Text  string `json:"text" validate:"required"`
}

// StartSession creates a new note session with a first note.
func (h *NoteHandler) StartSession(c echo.Context) error {
	patientUID, err := patientScope(c, h.accounts)
	if err != nil {
		return errors.WithStack(err)
	}

	var req startSessionRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid note input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.notes.StartSession(c.Request().Context(), patientUID, req.Title, req.Text)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toNoteSessionResponse(session))
}

type appendNoteRequest struct {
	Text string `json:"text" validate:"required"`
}

// Append adds a note to an existing session.
func (h *NoteHandler) Append(c echo.Context) error {
	var req appendNoteRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid note input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.notes.Append(c.Request().Context(), c.Param("id"), req.Text)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toNoteSessionResponse(session))
}

// Summarize regenerates the stored summary for a session.
func (h *NoteHandler) Summarize(c echo.Context) error {
	summary, err := h.notes.Summarize(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"summaryText": summary})
}
