package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"memorylane/internal/delivery/http/middleware"
	"memorylane/internal/delivery/http/response"
	"memorylane/internal/domain/entity"
	"memorylane/internal/live"
	"memorylane/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// MemoryHandler holds dependencies for memory timeline handlers.
type MemoryHandler struct {
	memories usecase.MemoryUsecase
	accounts usecase.AccountUsecase
	logger   *slog.Logger
}

// NewMemoryHandler is the constructor for MemoryHandler, injected by Fx.
func NewMemoryHandler(memories usecase.MemoryUsecase, accounts usecase.AccountUsecase, logger *slog.Logger) *MemoryHandler {
	return &MemoryHandler{memories: memories, accounts: accounts, logger: logger}
}

// Create accepts a multipart upload: the photo file plus caption, photoHint,
// keywords (comma separated), people (JSON array of person tags) and event
// (JSON event tag) form fields.
func (h *MemoryHandler) Create(c echo.Context) error {
	patientUID, err := patientScope(c, h.accounts)
	if err != nil {
		return errors.WithStack(err)
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return response.BindingError(c, "A photo file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return response.BindingError(c, "Cannot read the uploaded photo")
	}
	defer file.Close()

	input := usecase.CreateMemoryInput{
		OwnerUID:         middleware.UID(c),
		PatientUID:       patientUID,
		Photo:            file,
		PhotoName:        fileHeader.Filename,
		PhotoContentType: fileHeader.Header.Get("Content-Type"),
		PhotoHint:        c.FormValue("photoHint"),
		Caption:          c.FormValue("caption"),
		Keywords:         splitKeywords(c.FormValue("keywords")),
	}

	if raw := c.FormValue("people"); raw != "" {
		var tags []personTagResponse
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return response.BindingError(c, "Invalid people tags")
		}
		for _, t := range tags {
			input.People = append(input.People, entity.PersonTag{
				ID:           t.ID,
				DisplayName:  t.DisplayName,
				FaceThumbURL: t.FaceThumbURL,
			})
		}
	}

	if raw := c.FormValue("event"); raw != "" {
		var tag eventTagResponse
		if err := json.Unmarshal([]byte(raw), &tag); err != nil {
			return response.BindingError(c, "Invalid event tag")
		}
		input.Event = &entity.EventTag{ID: tag.ID, Title: tag.Title}
	}

	memory, err := h.memories.Create(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toMemoryResponse(memory))
}

// List returns the patient's memory timeline, newest first.
func (h *MemoryHandler) List(c echo.Context) error {
	patientUID, err := patientScope(c, h.accounts)
	if err != nil {
		return errors.WithStack(err)
	}

	memories, err := h.memories.List(c.Request().Context(), patientUID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toMemoryResponses(memories))
}

// Stream pushes live timeline updates as server-sent events.
func (h *MemoryHandler) Stream(c echo.Context) error {
	patientUID, err := patientScope(c, h.accounts)
	if err != nil {
		return errors.WithStack(err)
	}

	binding := h.memories.Watch(c.Request().Context(), patientUID)
	defer binding.Close()

	return streamSSE(c, binding.Updates(), func(state live.ListState[entity.Memory]) any {
		return toListPayload(state, toMemoryResponse)
	})
}

// Search filters the timeline by caption, hint and keyword text.
func (h *MemoryHandler) Search(c echo.Context) error {
	patientUID, err := patientScope(c, h.accounts)
	if err != nil {
		return errors.WithStack(err)
	}

	memories, err := h.memories.Search(c.Request().Context(), patientUID, c.QueryParam("q"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toMemoryResponses(memories))
}

// ForPerson returns the memories tagging a person.
func (h *MemoryHandler) ForPerson(c echo.Context) error {
	patientUID, err := patientScope(c, h.accounts)
	if err != nil {
		return errors.WithStack(err)
	}

	memories, err := h.memories.ForPerson(c.Request().Context(), patientUID, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toMemoryResponses(memories))
}

// ForEvent returns the memories attached to an event.
func (h *MemoryHandler) ForEvent(c echo.Context) error {
	patientUID, err := patientScope(c, h.accounts)
	if err != nil {
		return errors.WithStack(err)
	}

	memories, err := h.memories.ForEvent(c.Request().Context(), patientUID, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toMemoryResponses(memories))
}

// Get reads one memory.
func (h *MemoryHandler) Get(c echo.Context) error {
	memory, err := h.memories.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toMemoryResponse(memory))
}

// Delete removes a memory.
func (h *MemoryHandler) Delete(c echo.Context) error {
	if err := h.memories.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Memory deleted"})
}

// splitKeywords parses the comma separated keywords form field.
func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}

	var keywords []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}

	return keywords
}
