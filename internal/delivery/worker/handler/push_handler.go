package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"memorylane/config"
	deliverycontext "memorylane/internal/delivery/context"
	"memorylane/internal/domain/constants"
	"memorylane/internal/domain/entity"
	"memorylane/internal/domain/service"
	"memorylane/internal/domain/store"
	"memorylane/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// PubSubMessage represents the structure of a Pub/Sub push message
type PubSubMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// retryableError wraps an error to indicate it should trigger a Pub/Sub retry
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.err)
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// newRetryableError wraps an error as retryable
func newRetryableError(err error) error {
	return &retryableError{err: err}
}

// isRetryableError checks if an error is retryable
func isRetryableError(err error) bool {
	var re *retryableError

	return errors.As(err, &re)
}

// PushHandler handles Pub/Sub push messages carrying activity events. It
// runs the background maintenance that should not block interactive writes:
// refreshing note summaries and keeping event memory counts current.
type PushHandler struct {
	verifyPushAuth bool
	logger         *slog.Logger
	store          store.Store
	summarizer     service.Summarizer
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config     *config.Config
	Logger     *slog.Logger
	Store      store.Store
	Summarizer service.Summarizer
}

// NewPushHandler creates a new Pub/Sub push handler
func NewPushHandler(params PushHandlerParams) *PushHandler {
	// Determine if we need to verify push auth based on config
	verifyPushAuth := params.Config.PubSub != nil &&
		params.Config.PubSub.Provider == constants.PubSubProviderGoogle &&
		params.Config.Env.Env != constants.EnvDevelop

	return &PushHandler{
		verifyPushAuth: verifyPushAuth,
		logger:         params.Logger,
		store:          params.Store,
		summarizer:     params.Summarizer,
	}
}

// HandlePush handles incoming Pub/Sub push messages
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	// Verify Pub/Sub token in production for Google provider
	if h.verifyPushAuth {
		if err := verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	// Parse Pub/Sub message
	var pushMsg PubSubMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Decode base64 message data
	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode message data", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Parse activity event
	var event service.ActivityEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error("[Worker] Failed to parse activity event", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Extract request_id for distributed tracing
	requestID := h.extractRequestID(ctx, &pushMsg, &event)

	// Create request-scoped logger with request_id
	reqLogger := h.logger.With(slog.String("request_id", requestID))

	// Update context with request_id and logger
	ctx = deliverycontext.WithRequestID(ctx, requestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	reqLogger.Info("[Worker] Processing activity event",
		slog.String("type", event.Type),
		slog.String("patient_uid", event.PatientUID),
		slog.String("document_id", event.DocumentID),
	)

	if err := h.processEvent(ctx, &event); err != nil {
		reqLogger.Error("[Worker] Failed to process activity event",
			slog.String("type", event.Type),
			slog.String("document_id", event.DocumentID),
			slog.Any("error", err),
			slog.Bool("retryable", isRetryableError(err)),
		)
		// Return 503 for retryable errors to trigger Pub/Sub retry
		// Return 200 for non-retryable errors to prevent infinite retries
		if isRetryableError(err) {
			return c.NoContent(http.StatusServiceUnavailable)
		}

		return c.NoContent(http.StatusOK)
	}

	reqLogger.Info("[Worker] Activity event processed successfully",
		slog.String("type", event.Type),
		slog.String("document_id", event.DocumentID),
	)

	return c.NoContent(http.StatusOK)
}

// extractRequestID extracts request_id from message attributes, event, or generates a new one
func (h *PushHandler) extractRequestID(ctx context.Context, pushMsg *PubSubMessage, event *service.ActivityEvent) string {
	// 1. Try message attributes (from Pub/Sub)
	if requestID, ok := pushMsg.Message.Attributes["request_id"]; ok && requestID != "" {
		return requestID
	}

	// 2. Try event field (from JSON payload)
	if event.RequestID != "" {
		return event.RequestID
	}

	// 3. Try existing context (from RequestIDMiddleware via X-Request-Id header)
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	// 4. Generate new UUID as fallback
	return uuid.New().String()
}

// processEvent dispatches on the activity event type.
func (h *PushHandler) processEvent(ctx context.Context, event *service.ActivityEvent) error {
	switch event.Type {
	case constants.ActivityNoteAppended:
		return h.refreshNoteSummary(ctx, event)
	case constants.ActivityMemoryCreated:
		return h.refreshEventMemoryCount(ctx, event)
	default:
		h.logger.Info("[Worker] Ignoring unknown activity type",
			slog.String("type", event.Type),
		)

		return nil
	}
}

// refreshNoteSummary recomputes the stored summary of the note session the
// event points at. Stale summaries are possible when the interactive write
// path raced; the worker is the eventual authority.
func (h *PushHandler) refreshNoteSummary(ctx context.Context, event *service.ActivityEvent) error {
	ref := store.DocRef{Collection: constants.CollectionNoteSessions, ID: event.DocumentID}
	snap, err := h.store.GetDoc(ctx, ref)
	if err != nil {
		return newRetryableError(errors.WithStack(err))
	}
	if !snap.Exists {
		// The session was deleted after the event fired; nothing to do.
		return nil
	}

	session := entity.NoteSessionFromMap(snap.Ref.ID, snap.Data)
	summary := h.summarizer.Summarize(session.CombinedText())
	if summary == session.SummaryText {
		return nil
	}

	err = h.store.UpdateDoc(ctx, ref, map[string]any{
		"summaryText": summary,
		"updatedAt":   time.Now().UnixMilli(),
	})
	if err != nil {
		return newRetryableError(errors.WithStack(err))
	}

	return nil
}

// refreshEventMemoryCount recounts the memories attached to the event the
// new memory references and stores the denormalized count.
func (h *PushHandler) refreshEventMemoryCount(ctx context.Context, event *service.ActivityEvent) error {
	ref := store.DocRef{Collection: constants.CollectionMemories, ID: event.DocumentID}
	snap, err := h.store.GetDoc(ctx, ref)
	if err != nil {
		return newRetryableError(errors.WithStack(err))
	}
	if !snap.Exists {
		return nil
	}

	memory := entity.MemoryFromMap(snap.Ref.ID, snap.Data)
	if memory.Event == nil || memory.Event.ID == "" {
		return nil
	}

	result, err := h.store.RunQuery(ctx, usecase.MemoryQuery(memory.PatientUID))
	if err != nil {
		return newRetryableError(errors.WithStack(err))
	}

	var count int64
	for _, doc := range result.Docs {
		m := entity.MemoryFromMap(doc.Ref.ID, doc.Data)
		if m.Event != nil && m.Event.ID == memory.Event.ID {
			count++
		}
	}

	eventRef := store.DocRef{Collection: constants.CollectionEvents, ID: memory.Event.ID}
	if err := h.store.UpdateDoc(ctx, eventRef, map[string]any{"memoryCount": count}); err != nil {
		return newRetryableError(errors.WithStack(err))
	}

	return nil
}

// verifyPubSubToken verifies the JWT token from Google Pub/Sub push requests
// Reference: https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func verifyPubSubToken(req *http.Request) error {
	// Get the Authorization header
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		return errors.New("missing authorization header")
	}

	// Extract Bearer token
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return errors.New("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)

	// Construct the expected audience (the push endpoint URL)
	// The audience should be the URL of this endpoint
	scheme := "https"
	if req.TLS == nil {
		scheme = "http" // For local development
	}
	audience := fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)

	// Validate the token using Google's ID token validator
	ctx := req.Context()
	payload, err := idtoken.Validate(ctx, token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	// Verify the token is from Google Pub/Sub
	// The issuer should be accounts.google.com
	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	// Verify email is verified (if email claim exists)
	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
