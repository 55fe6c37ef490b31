package impl

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"memorylane/internal/domain/constants"
	"memorylane/internal/domain/entity"
	domainerrors "memorylane/internal/domain/errors"
	"memorylane/internal/domain/store"
	"memorylane/internal/domain/store/storetest"
	"memorylane/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryFixtures struct {
	service   usecase.MemoryUsecase
	store     *storetest.Store
	images    *fakeImageHost
	publisher *fakePublisher
}

func createTestMemoryService(t *testing.T) memoryFixtures {
	t.Helper()

	st := storetest.New()
	images := &fakeImageHost{}
	publisher := &fakePublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewMemoryService(st, images, publisher, logger)

	return memoryFixtures{service: svc, store: st, images: images, publisher: publisher}
}

func createMemory(t *testing.T, fx memoryFixtures, caption string, people []entity.PersonTag, keywords []string) *entity.Memory {
	t.Helper()

	m, err := fx.service.Create(context.Background(), usecase.CreateMemoryInput{
		OwnerUID:         "c1",
		PatientUID:       "p1",
		Photo:            strings.NewReader("jpegbytes"),
		PhotoName:        "photo.jpg",
		PhotoContentType: "image/jpeg",
		Caption:          caption,
		People:           people,
		Keywords:         keywords,
	})
	require.NoError(t, err)

	return m
}

func TestMemoryService_Create_Success(t *testing.T) {
	fx := createTestMemoryService(t)

	m := createMemory(t, fx, "Beach day", []entity.PersonTag{{ID: "per1", DisplayName: "Ana"}}, []string{"beach"})

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "none", m.DuplicateStatus)
	assert.Equal(t, []string{"per1"}, m.PeopleIDs)
	assert.NotEmpty(t, m.PhotoURL)
	assert.NotZero(t, m.CreatedAt)

	snap, err := fx.store.GetDoc(context.Background(), store.DocRef{
		Collection: constants.CollectionMemories, ID: m.ID,
	})
	require.NoError(t, err)
	require.True(t, snap.Exists)

	events := fx.publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, constants.ActivityMemoryCreated, events[0].Type)
	assert.Equal(t, "p1", events[0].PatientUID)
	assert.Equal(t, m.ID, events[0].DocumentID)
}

func TestMemoryService_Create_MissingPhoto(t *testing.T) {
	fx := createTestMemoryService(t)

	_, err := fx.service.Create(context.Background(), usecase.CreateMemoryInput{
		OwnerUID:   "c1",
		PatientUID: "p1",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestMemoryService_Create_StoreFailureCleansUpPhoto(t *testing.T) {
	fx := createTestMemoryService(t)
	fx.store.FailWith("SetDoc", assert.AnError)

	_, err := fx.service.Create(context.Background(), usecase.CreateMemoryInput{
		OwnerUID:         "c1",
		PatientUID:       "p1",
		Photo:            strings.NewReader("jpegbytes"),
		PhotoName:        "photo.jpg",
		PhotoContentType: "image/jpeg",
	})

	require.Error(t, err)
	assert.Equal(t, []string{"img-1"}, fx.images.deletedIDs())
	assert.Empty(t, fx.publisher.published())
}

func TestMemoryService_List_NewestFirst(t *testing.T) {
	fx := createTestMemoryService(t)
	fx.store.Seed(store.DocRef{Collection: constants.CollectionMemories, ID: "m1"}, map[string]any{
		"patientUid": "p1", "caption": "older", "createdAt": int64(100),
	})
	fx.store.Seed(store.DocRef{Collection: constants.CollectionMemories, ID: "m2"}, map[string]any{
		"patientUid": "p1", "caption": "newer", "createdAt": int64(200),
	})

	memories, err := fx.service.List(context.Background(), "p1")

	require.NoError(t, err)
	require.Len(t, memories, 2)
	assert.Equal(t, "newer", memories[0].Caption)
	assert.Equal(t, "older", memories[1].Caption)
}

func TestMemoryService_Search_MatchesCaptionHintAndKeywords(t *testing.T) {
	fx := createTestMemoryService(t)
	createMemory(t, fx, "Beach day with Ana", nil, nil)
	createMemory(t, fx, "Birthday party", nil, []string{"cake", "candles"})
	createMemory(t, fx, "Quiet morning", nil, nil)

	byCaption, err := fx.service.Search(context.Background(), "p1", "BEACH")
	require.NoError(t, err)
	require.Len(t, byCaption, 1)
	assert.Equal(t, "Beach day with Ana", byCaption[0].Caption)

	byKeyword, err := fx.service.Search(context.Background(), "p1", "cake")
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, "Birthday party", byKeyword[0].Caption)

	all, err := fx.service.Search(context.Background(), "p1", "  ")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryService_ForPerson(t *testing.T) {
	fx := createTestMemoryService(t)
	createMemory(t, fx, "With Ana", []entity.PersonTag{{ID: "per1", DisplayName: "Ana"}}, nil)
	createMemory(t, fx, "Alone", nil, nil)

	matched, err := fx.service.ForPerson(context.Background(), "p1", "per1")

	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "With Ana", matched[0].Caption)
}

func TestMemoryService_ForEvent(t *testing.T) {
	fx := createTestMemoryService(t)
	m, err := fx.service.Create(context.Background(), usecase.CreateMemoryInput{
		OwnerUID:         "c1",
		PatientUID:       "p1",
		Photo:            strings.NewReader("jpegbytes"),
		PhotoName:        "photo.jpg",
		PhotoContentType: "image/jpeg",
		Caption:          "Wedding photo",
		Event:            &entity.EventTag{ID: "ev1", Title: "Wedding"},
	})
	require.NoError(t, err)
	createMemory(t, fx, "Unrelated", nil, nil)

	matched, err := fx.service.ForEvent(context.Background(), "p1", "ev1")

	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, m.ID, matched[0].ID)
}

func TestMemoryService_Delete_RemovesDocAndPhoto(t *testing.T) {
	fx := createTestMemoryService(t)
	m := createMemory(t, fx, "Beach day", nil, nil)

	require.NoError(t, fx.service.Delete(context.Background(), m.ID))

	snap, err := fx.store.GetDoc(context.Background(), store.DocRef{
		Collection: constants.CollectionMemories, ID: m.ID,
	})
	require.NoError(t, err)
	assert.False(t, snap.Exists)
	assert.Equal(t, []string{m.PhotoPublicID}, fx.images.deletedIDs())
}

func TestMemoryService_Delete_NotFound(t *testing.T) {
	fx := createTestMemoryService(t)

	err := fx.service.Delete(context.Background(), "ghost")

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrMemoryNotFound)
}

func TestMemoryService_Watch_TracksTimeline(t *testing.T) {
	fx := createTestMemoryService(t)

	col := fx.service.Watch(context.Background(), "p1")
	defer col.Close()

	createMemory(t, fx, "First", nil, nil)

	require.Eventually(t, func() bool {
		s := col.State()

		return len(s.Items) == 1 && s.Items[0].Caption == "First"
	}, pollWait, pollTick)
}
