package impl

import (
	"context"
	"log/slog"
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

// eventService implements the EventUsecase interface.
type eventService struct {
	store  store.Store
	images service.ImageHost
	logger *slog.Logger
}

// NewEventService is the constructor for eventService.
func NewEventService(
	st store.Store,
	images service.ImageHost,
	logger *slog.Logger,
) usecase.EventUsecase {
	return &eventService{
		store:  st,
		images: images,
		logger: logger,
	}
}

// eventQuery builds the canonical event listing query for a patient.
func eventQuery(patientUID string) store.Query {
	return store.NewQuery(constants.CollectionEvents).
		Where("patientUid", patientUID).
		OrderBy("date", store.Descending)
}

// Create uploads the attached images and writes the event document. The
// first image becomes the cover photo.
func (srv *eventService) Create(ctx context.Context, input usecase.CreateEventInput) (*entity.Event, error) {
	if input.PatientUID == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "patient UID is required")
	}
	if input.Title == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "title is required")
	}

	images := make([]entity.EventImage, 0, len(input.Images))
	for _, img := range input.Images {
		stored, err := srv.images.Upload(ctx, img.Name, img.ContentType, img.Body)
		if err != nil {
			srv.cleanupImages(ctx, images)

			return nil, errors.Wrap(domainerrors.ErrImageUploadFailed, err.Error())
		}
		images = append(images, entity.EventImage{URL: stored.URL, PublicID: stored.PublicID})
	}

	event := &entity.Event{
		ID:          uuid.NewString(),
		PatientUID:  input.PatientUID,
		Title:       input.Title,
		Date:        input.Date,
		Description: input.Description,
		Images:      images,
		CreatedAt:   time.Now().UnixMilli(),
	}
	if len(images) > 0 {
		event.CoverPhotoURL = images[0].URL
	}

	ref := store.DocRef{Collection: constants.CollectionEvents, ID: event.ID}
	if err := srv.store.SetDoc(ctx, ref, event.ToMap()); err != nil {
		srv.cleanupImages(ctx, images)

		return nil, domainerrors.NewStoreExecuteError(err, "failed to write event")
	}

	srv.logger.Info("Event created", "eventID", event.ID, "patientUID", event.PatientUID)

	return event, nil
}

// List returns the patient's events, newest date first.
func (srv *eventService) List(ctx context.Context, patientUID string) ([]*entity.Event, error) {
	snap, err := srv.store.RunQuery(ctx, eventQuery(patientUID))
	if err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to query events")
	}

	events := make([]*entity.Event, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		events = append(events, entity.EventFromMap(doc.Ref.ID, doc.Data))
	}

	return events, nil
}

// Watch opens a live binding over the patient's events.
func (srv *eventService) Watch(ctx context.Context, patientUID string) *live.Collection[entity.Event] {
	col := live.NewCollection(srv.store, entity.EventFromMap)
	q := eventQuery(patientUID)
	col.Bind(ctx, &q)

	return col
}

// Get reads one event.
func (srv *eventService) Get(ctx context.Context, id string) (*entity.Event, error) {
	ref := store.DocRef{Collection: constants.CollectionEvents, ID: id}
	snap, err := srv.store.GetDoc(ctx, ref)
	if err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to read event")
	}
	if !snap.Exists {
		return nil, errors.Wrap(domainerrors.ErrEventNotFound, id)
	}

	return entity.EventFromMap(id, snap.Data), nil
}

// Delete removes the event and best-effort deletes its hosted images.
// Memories referencing the event keep their denormalized tag.
func (srv *eventService) Delete(ctx context.Context, id string) error {
	event, err := srv.Get(ctx, id)
	if err != nil {
		return err
	}

	ref := store.DocRef{Collection: constants.CollectionEvents, ID: id}
	if err := srv.store.DeleteDoc(ctx, ref); err != nil {
		return domainerrors.NewStoreExecuteError(err, "failed to delete event")
	}

	srv.cleanupImages(ctx, event.Images)

	return nil
}

func (srv *eventService) cleanupImages(ctx context.Context, images []entity.EventImage) {
	for _, img := range images {
		if img.PublicID == "" {
			continue
		}
		if err := srv.images.Delete(ctx, img.PublicID); err != nil {
			srv.logger.Warn("failed to delete hosted image", "publicID", img.PublicID, "error", err)
		}
	}
}
