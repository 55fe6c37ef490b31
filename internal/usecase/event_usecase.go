package usecase

import (
	"context"
	"io"

	"memorylane/internal/domain/entity"
	"memorylane/internal/live"
)

// EventImageInput is one photo attached to a new event.
type EventImageInput struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// CreateEventInput carries a new life event.
type CreateEventInput struct {
	PatientUID  string
	Title       string
	Date        int64 // unix milliseconds
	Description string
	Images      []EventImageInput
}

// EventUsecase defines life event operations.
type EventUsecase interface {
	// Create uploads the attached images and writes the event document.
	// The first image becomes the cover photo.
	Create(ctx context.Context, input CreateEventInput) (*entity.Event, error)

	// List returns the patient's events, newest date first.
	List(ctx context.Context, patientUID string) ([]*entity.Event, error)

	// Watch opens a live binding over the patient's events. The caller
	// owns the returned binding and must Close it.
	Watch(ctx context.Context, patientUID string) *live.Collection[entity.Event]

	// Get reads one event.
	Get(ctx context.Context, id string) (*entity.Event, error)

	// Delete removes the event and best-effort deletes its hosted images.
	// Memories referencing the event keep their denormalized tag.
	Delete(ctx context.Context, id string) error
}
