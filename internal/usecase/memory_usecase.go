package usecase

import (
	"context"
	"io"

	"memorylane/internal/domain/constants"
	"memorylane/internal/domain/entity"
	"memorylane/internal/domain/store"
	"memorylane/internal/live"
)

// CreateMemoryInput carries a new memory upload. Photo is consumed during
// Create; PhotoName and PhotoContentType describe it for the image host.
type CreateMemoryInput struct {
	OwnerUID         string
	PatientUID       string
	Photo            io.Reader
	PhotoName        string
	PhotoContentType string
	PhotoHint        string
	Caption          string
	People           []entity.PersonTag
	Keywords         []string
	Event            *entity.EventTag
}

// MemoryUsecase defines memory timeline operations.
type MemoryUsecase interface {
	// Create uploads the photo, writes the memory document and publishes
	// a memory.created activity event.
	Create(ctx context.Context, input CreateMemoryInput) (*entity.Memory, error)

	// List returns the patient's memories, newest first.
	List(ctx context.Context, patientUID string) ([]*entity.Memory, error)

	// Watch opens a live binding over the patient's memory timeline. The
	// caller owns the returned binding and must Close it.
	Watch(ctx context.Context, patientUID string) *live.Collection[entity.Memory]

	// Search filters the timeline by caption, hint and keyword text.
	Search(ctx context.Context, patientUID, term string) ([]*entity.Memory, error)

	// ForPerson returns the memories tagging the given person.
	ForPerson(ctx context.Context, patientUID, personID string) ([]*entity.Memory, error)

	// ForEvent returns the memories attached to the given event.
	ForEvent(ctx context.Context, patientUID, eventID string) ([]*entity.Memory, error)

	// Get reads one memory.
	Get(ctx context.Context, id string) (*entity.Memory, error)

	// Delete removes the memory document and best-effort deletes its photo.
	Delete(ctx context.Context, id string) error
}

// MemoryQuery builds the canonical timeline query for a patient.
func MemoryQuery(patientUID string) store.Query {
	return store.NewQuery(constants.CollectionMemories).
		Where("patientUid", patientUID).
		OrderBy("createdAt", store.Descending)
}
