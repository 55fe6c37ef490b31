// Package handler contains the HTTP handlers for the application.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"memorylane/internal/delivery/http/middleware"
	"memorylane/internal/delivery/http/response"
	domainerrors "memorylane/internal/domain/errors"
	"memorylane/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}

// patientScope resolves the authenticated user's patient scope: a patient
// scopes to itself, a caregiver to the patient it is linked to.
func patientScope(c echo.Context, accounts usecase.AccountUsecase) (string, error) {
	uid := middleware.UID(c)
	if uid == "" {
		return "", errors.WithStack(domainerrors.ErrForbidden)
	}

	profile, err := accounts.Profile(c.Request().Context(), uid)
	if err != nil {
		return "", err
	}

	scope := profile.EffectivePatientUID()
	if scope == "" {
		return "", errors.Wrap(domainerrors.ErrNotLinkedToPatient, uid)
	}

	return scope, nil
}

// streamSSE pushes each update to the client as a server-sent event until
// the request context ends or the channel closes. convert maps the update
// to its wire form.
func streamSSE[T any](c echo.Context, updates <-chan T, convert func(T) any) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeSSEEvent(ctx, w, convert(v)); err != nil {
				return nil
			}
		}
	}
}

func writeSSEEvent(_ context.Context, w *echo.Response, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return errors.WithStack(err)
	}
	if _, err := w.Write(payload); err != nil {
		return errors.WithStack(err)
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return errors.WithStack(err)
	}
	w.Flush()

	return nil
}
