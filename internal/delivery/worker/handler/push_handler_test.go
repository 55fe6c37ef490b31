package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"memorylane/config"
	"memorylane/internal/domain/constants"
	"memorylane/internal/domain/service"
	"memorylane/internal/domain/store"
	"memorylane/internal/domain/store/storetest"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSummarizer struct{}

func (stubSummarizer) Summarize(text string) string {
	return "summary: " + text
}

func newTestPushHandler(t *testing.T) (*PushHandler, *storetest.Store) {
	t.Helper()

	st := storetest.New()
	h := NewPushHandler(PushHandlerParams{
		Config:     &config.Config{},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:      st,
		Summarizer: stubSummarizer{},
	})

	return h, st
}

func pushRequest(t *testing.T, event *service.ActivityEvent) *http.Request {
	t.Helper()

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var msg PubSubMessage
	msg.Message.Data = base64.StdEncoding.EncodeToString(data)
	msg.Message.MessageID = event.DocumentID
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(string(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	return req
}

func TestPushHandler_NoteAppended_RefreshesSummary(t *testing.T) {
	h, st := newTestPushHandler(t)
	st.Seed(store.DocRef{Collection: constants.CollectionNoteSessions, ID: "s1"}, map[string]any{
		"patientUid":  "p1",
		"title":       "Morning",
		"notes":       []any{map[string]any{"text": "We fed the ducks.", "createdAt": int64(1)}},
		"summaryText": "stale",
		"updatedAt":   int64(1),
	})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(pushRequest(t, &service.ActivityEvent{
		Type:       constants.ActivityNoteAppended,
		PatientUID: "p1",
		DocumentID: "s1",
	}), rec)

	require.NoError(t, h.HandlePush(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	snap, err := st.GetDoc(context.Background(), store.DocRef{Collection: constants.CollectionNoteSessions, ID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "summary: We fed the ducks.", snap.Data["summaryText"])
}

func TestPushHandler_NoteAppended_MissingSessionIsAck(t *testing.T) {
	h, _ := newTestPushHandler(t)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(pushRequest(t, &service.ActivityEvent{
		Type:       constants.ActivityNoteAppended,
		DocumentID: "ghost",
	}), rec)

	require.NoError(t, h.HandlePush(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPushHandler_MemoryCreated_RecountsEvent(t *testing.T) {
	h, st := newTestPushHandler(t)
	st.Seed(store.DocRef{Collection: constants.CollectionEvents, ID: "e1"}, map[string]any{
		"patientUid":  "p1",
		"title":       "Wedding",
		"memoryCount": int64(0),
	})
	st.Seed(store.DocRef{Collection: constants.CollectionMemories, ID: "m1"}, map[string]any{
		"patientUid": "p1",
		"caption":    "First dance",
		"event":      map[string]any{"id": "e1", "title": "Wedding"},
		"createdAt":  int64(10),
	})
	st.Seed(store.DocRef{Collection: constants.CollectionMemories, ID: "m2"}, map[string]any{
		"patientUid": "p1",
		"caption":    "Cutting the cake",
		"event":      map[string]any{"id": "e1", "title": "Wedding"},
		"createdAt":  int64(20),
	})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(pushRequest(t, &service.ActivityEvent{
		Type:       constants.ActivityMemoryCreated,
		PatientUID: "p1",
		DocumentID: "m2",
	}), rec)

	require.NoError(t, h.HandlePush(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	snap, err := st.GetDoc(context.Background(), store.DocRef{Collection: constants.CollectionEvents, ID: "e1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Data["memoryCount"])
}

func TestPushHandler_MemoryCreated_NoEventTagIsAck(t *testing.T) {
	h, st := newTestPushHandler(t)
	st.Seed(store.DocRef{Collection: constants.CollectionMemories, ID: "m1"}, map[string]any{
		"patientUid": "p1",
		"caption":    "Just a walk",
		"createdAt":  int64(10),
	})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(pushRequest(t, &service.ActivityEvent{
		Type:       constants.ActivityMemoryCreated,
		PatientUID: "p1",
		DocumentID: "m1",
	}), rec)

	require.NoError(t, h.HandlePush(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPushHandler_UnknownTypeIsAck(t *testing.T) {
	h, _ := newTestPushHandler(t)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(pushRequest(t, &service.ActivityEvent{
		Type:       "something.else",
		DocumentID: "x",
	}), rec)

	require.NoError(t, h.HandlePush(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPushHandler_MalformedBody(t *testing.T) {
	h, _ := newTestPushHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.HandlePush(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPushHandler_RetryableFailureReturns503(t *testing.T) {
	h, st := newTestPushHandler(t)
	st.FailWith("GetDoc", assert.AnError)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(pushRequest(t, &service.ActivityEvent{
		Type:       constants.ActivityNoteAppended,
		DocumentID: "s1",
	}), rec)

	require.NoError(t, h.HandlePush(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
