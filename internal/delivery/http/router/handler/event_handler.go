package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"memorylane/internal/delivery/http/response"
	"memorylane/internal/domain/entity"
	"memorylane/internal/live"
	"memorylane/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// EventHandler holds dependencies for life event handlers.
type EventHandler struct {
	events   usecase.EventUsecase
	accounts usecase.AccountUsecase
	logger   *slog.Logger
}

// NewEventHandler is the constructor for EventHandler, injected by Fx.
func NewEventHandler(events usecase.EventUsecase, accounts usecase.AccountUsecase, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, accounts: accounts, logger: logger}
}

// Create accepts a multipart upload: title, date (unix milliseconds),
// description form fields plus any number of image files under "images".
func (h *EventHandler) Create(c echo.Context) error {
	patientUID, err := patientScope(c, h.accounts)
	if err != nil {
		return errors.WithStack(err)
	}

	title := c.FormValue("title")
	if title == "" {
		return response.BindingError(c, "A title is required")
	}

	date, err := strconv.ParseInt(c.FormValue("date"), 10, 64)
	if err != nil {
		return response.BindingError(c, "date must be unix milliseconds")
	}

	input := usecase.CreateEventInput{
		PatientUID:  patientUID,
		Title:       title,
		Date:        date,
		Description: c.FormValue("description"),
	}

	form, err := c.MultipartForm()
	if err == nil {
		for _, fileHeader := range form.File["images"] {
			file, openErr := fileHeader.Open()
			if openErr != nil {
				return response.BindingError(c, "Cannot read an uploaded image")
			}
			defer file.Close()

			input.Images = append(input.Images, usecase.EventImageInput{
				Name:        fileHeader.Filename,
				ContentType: fileHeader.Header.Get("Content-Type"),
				Body:        file,
			})
		}
	}

	event, err := h.events.Create(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toEventResponse(event))
}

// List returns the patient's events, newest date first.
func (h *EventHandler) List(c echo.Context) error {
	patientUID, err := patientScope(c, h.accounts)
	if err != nil {
		return errors.WithStack(err)
	}

	events, err := h.events.List(c.Request().Context(), patientUID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toEventResponses(events))
}

// Stream pushes live event list updates as server-sent events.
func (h *EventHandler) Stream(c echo.Context) error {
	patientUID, err := patientScope(c, h.accounts)
	if err != nil {
		return errors.WithStack(err)
	}

	binding := h.events.Watch(c.Request().Context(), patientUID)
	defer binding.Close()

	return streamSSE(c, binding.Updates(), func(state live.ListState[entity.Event]) any {
		return toListPayload(state, toEventResponse)
	})
}

// Get reads one event.
func (h *EventHandler) Get(c echo.Context) error {
	event, err := h.events.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toEventResponse(event))
}

// Delete removes an event and its hosted images.
func (h *EventHandler) Delete(c echo.Context) error {
	if err := h.events.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Event deleted"})
}
