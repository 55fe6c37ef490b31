package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"memorylane/internal/domain/constants"
	"memorylane/internal/domain/entity"
	domainerrors "memorylane/internal/domain/errors"
	"memorylane/internal/domain/service"
	"memorylane/internal/domain/store"
	"memorylane/internal/live"
	"memorylane/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// duplicateStatusNone marks a freshly created memory before any duplicate
// detection has looked at it.
const duplicateStatusNone = "none"

// memoryService implements the MemoryUsecase interface.
type memoryService struct {
	store     store.Store
	images    service.ImageHost
	publisher service.EventPublisher
	logger    *slog.Logger
}

// NewMemoryService is the constructor for memoryService.
func NewMemoryService(
	st store.Store,
	images service.ImageHost,
	publisher service.EventPublisher,
	logger *slog.Logger,
) usecase.MemoryUsecase {
	return &memoryService{
		store:     st,
		images:    images,
		publisher: publisher,
		logger:    logger,
	}
}

// Create uploads the photo, writes the memory document and publishes a
// memory.created activity event.
func (srv *memoryService) Create(ctx context.Context, input usecase.CreateMemoryInput) (*entity.Memory, error) {
	if input.PatientUID == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "patient UID is required")
	}
	if input.Photo == nil {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "photo is required")
	}

	stored, err := srv.images.Upload(ctx, input.PhotoName, input.PhotoContentType, input.Photo)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrImageUploadFailed, err.Error())
	}

	peopleIDs := make([]string, 0, len(input.People))
	for _, p := range input.People {
		peopleIDs = append(peopleIDs, p.ID)
	}

	memory := &entity.Memory{
		ID:              uuid.NewString(),
		OwnerUID:        input.OwnerUID,
		PatientUID:      input.PatientUID,
		PhotoURL:        stored.URL,
		PhotoPublicID:   stored.PublicID,
		PhotoHint:       input.PhotoHint,
		Caption:         input.Caption,
		People:          input.People,
		PeopleIDs:       peopleIDs,
		Keywords:        input.Keywords,
		Event:           input.Event,
		CreatedAt:       time.Now().UnixMilli(),
		DuplicateStatus: duplicateStatusNone,
	}

	ref := store.DocRef{Collection: constants.CollectionMemories, ID: memory.ID}
	if err := srv.store.SetDoc(ctx, ref, memory.ToMap()); err != nil {
		// The photo is orphaned otherwise.
		if delErr := srv.images.Delete(ctx, stored.PublicID); delErr != nil {
			srv.logger.Warn("failed to clean up orphaned photo", "publicID", stored.PublicID, "error", delErr)
		}

		return nil, domainerrors.NewStoreExecuteError(err, "failed to write memory")
	}

	srv.publishActivity(ctx, constants.ActivityMemoryCreated, memory.PatientUID, memory.ID, memory.OwnerUID)

	srv.logger.Info("Memory created", "memoryID", memory.ID, "patientUID", memory.PatientUID)

	return memory, nil
}

// List returns the patient's memories, newest first.
func (srv *memoryService) List(ctx context.Context, patientUID string) ([]*entity.Memory, error) {
	snap, err := srv.store.RunQuery(ctx, usecase.MemoryQuery(patientUID))
	if err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to query memories")
	}

	memories := make([]*entity.Memory, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		memories = append(memories, entity.MemoryFromMap(doc.Ref.ID, doc.Data))
	}

	return memories, nil
}

// Watch opens a live binding over the patient's memory timeline.
func (srv *memoryService) Watch(ctx context.Context, patientUID string) *live.Collection[entity.Memory] {
	col := live.NewCollection(srv.store, entity.MemoryFromMap)
	q := usecase.MemoryQuery(patientUID)
	col.Bind(ctx, &q)

	return col
}

// Search filters the timeline by caption, hint and keyword text. Matching is
// case-insensitive substring matching, done application-side.
func (srv *memoryService) Search(ctx context.Context, patientUID, term string) ([]*entity.Memory, error) {
	memories, err := srv.List(ctx, patientUID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return memories, nil
	}

	matched := make([]*entity.Memory, 0, len(memories))
	for _, m := range memories {
		if memoryMatches(m, needle) {
			matched = append(matched, m)
		}
	}

	return matched, nil
}

// ForPerson returns the memories tagging the given person, newest first.
func (srv *memoryService) ForPerson(ctx context.Context, patientUID, personID string) ([]*entity.Memory, error) {
	memories, err := srv.List(ctx, patientUID)
	if err != nil {
		return nil, err
	}

	matched := make([]*entity.Memory, 0, len(memories))
	for _, m := range memories {
		if m.HasPerson(personID) {
			matched = append(matched, m)
		}
	}

	return matched, nil
}

// ForEvent returns the memories attached to the given event, newest first.
func (srv *memoryService) ForEvent(ctx context.Context, patientUID, eventID string) ([]*entity.Memory, error) {
	memories, err := srv.List(ctx, patientUID)
	if err != nil {
		return nil, err
	}

	matched := make([]*entity.Memory, 0, len(memories))
	for _, m := range memories {
		if m.Event != nil && m.Event.ID == eventID {
			matched = append(matched, m)
		}
	}

	return matched, nil
}

// Get reads one memory.
func (srv *memoryService) Get(ctx context.Context, id string) (*entity.Memory, error) {
	ref := store.DocRef{Collection: constants.CollectionMemories, ID: id}
	snap, err := srv.store.GetDoc(ctx, ref)
	if err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to read memory")
	}
	if !snap.Exists {
		return nil, errors.Wrap(domainerrors.ErrMemoryNotFound, id)
	}

	return entity.MemoryFromMap(id, snap.Data), nil
}

// Delete removes the memory document and best-effort deletes its photo.
func (srv *memoryService) Delete(ctx context.Context, id string) error {
	memory, err := srv.Get(ctx, id)
	if err != nil {
		return err
	}

	ref := store.DocRef{Collection: constants.CollectionMemories, ID: id}
	if err := srv.store.DeleteDoc(ctx, ref); err != nil {
		return domainerrors.NewStoreExecuteError(err, "failed to delete memory")
	}

	if memory.PhotoPublicID != "" {
		if err := srv.images.Delete(ctx, memory.PhotoPublicID); err != nil {
			srv.logger.Warn("failed to delete hosted photo", "publicID", memory.PhotoPublicID, "error", err)
		}
	}

	return nil
}

func (srv *memoryService) publishActivity(ctx context.Context, eventType, patientUID, docID, actorUID string) {
	event := &service.ActivityEvent{
		Type:       eventType,
		PatientUID: patientUID,
		DocumentID: docID,
		ActorUID:   actorUID,
		OccurredAt: time.Now().UnixMilli(),
	}
	if err := srv.publisher.PublishActivityEvent(ctx, event); err != nil {
		srv.logger.Warn("failed to publish activity event", "type", eventType, "error", err)
	}
}

func memoryMatches(m *entity.Memory, needle string) bool {
	if strings.Contains(strings.ToLower(m.Caption), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(m.PhotoHint), needle) {
		return true
	}
	for _, k := range m.Keywords {
		if strings.Contains(strings.ToLower(k), needle) {
			return true
		}
	}
	for _, p := range m.People {
		if strings.Contains(strings.ToLower(p.DisplayName), needle) {
			return true
		}
	}

	return false
}
