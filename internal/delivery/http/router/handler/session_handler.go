package handler

import (
	"net/http"

	"memorylane/internal/delivery/http/response"
	"memorylane/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SessionHandler exposes the resolved device session.
type SessionHandler struct {
	session usecase.SessionUsecase
}

// NewSessionHandler is the constructor for SessionHandler, injected by Fx.
func NewSessionHandler(session usecase.SessionUsecase) *SessionHandler {
	return &SessionHandler{session: session}
}

// Get returns the current session snapshot.
func (h *SessionHandler) Get(c echo.Context) error {
	return response.Success(c, http.StatusOK, toSessionResponse(h.session.Snapshot()))
}

// Stream pushes the current snapshot, then every later one, as server-sent
// events until the client disconnects. Each client gets its own
// subscription, so concurrent streams observe the same snapshots.
func (h *SessionHandler) Stream(c echo.Context) error {
	updates, cancel := h.session.Subscribe()
	defer cancel()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeSSEEvent(c.Request().Context(), w, toSessionResponse(h.session.Snapshot())); err != nil {
		return nil
	}

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeSSEEvent(ctx, w, toSessionResponse(snap)); err != nil {
				return nil
			}
		}
	}
}
