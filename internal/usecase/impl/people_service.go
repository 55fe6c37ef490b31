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
	"memorylane/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// peopleService implements the PeopleUsecase interface.
type peopleService struct {
	store  store.Store
	images service.ImageHost
	logger *slog.Logger
}

// NewPeopleService is the constructor for peopleService.
func NewPeopleService(
	st store.Store,
	images service.ImageHost,
	logger *slog.Logger,
) usecase.PeopleUsecase {
	return &peopleService{
		store:  st,
		images: images,
		logger: logger,
	}
}

// Create registers a person, uploading the optional face thumbnail first.
func (srv *peopleService) Create(ctx context.Context, input usecase.CreatePersonInput) (*entity.Person, error) {
	if input.PatientUID == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "patient UID is required")
	}
	if input.DisplayName == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "display name is required")
	}

	person := &entity.Person{
		ID:          uuid.NewString(),
		PatientUID:  input.PatientUID,
		DisplayName: input.DisplayName,
		CreatedAt:   time.Now().UnixMilli(),
	}

	if input.FaceThumb != nil {
		stored, err := srv.images.Upload(ctx, input.FaceThumbName, input.FaceThumbContentType, input.FaceThumb)
		if err != nil {
			return nil, errors.Wrap(domainerrors.ErrImageUploadFailed, err.Error())
		}
		person.FaceThumbURL = stored.URL
	}

	ref := store.DocRef{Collection: constants.CollectionPeople, ID: person.ID}
	if err := srv.store.SetDoc(ctx, ref, person.ToMap()); err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to write person")
	}

	srv.logger.Info("Person created", "personID", person.ID, "patientUID", person.PatientUID)

	return person, nil
}

// List returns the patient's people, oldest first.
func (srv *peopleService) List(ctx context.Context, patientUID string) ([]*entity.Person, error) {
	q := store.NewQuery(constants.CollectionPeople).
		Where("patientUid", patientUID).
		OrderBy("createdAt", store.Ascending)
	snap, err := srv.store.RunQuery(ctx, q)
	if err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to query people")
	}

	people := make([]*entity.Person, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		people = append(people, entity.PersonFromMap(doc.Ref.ID, doc.Data))
	}

	return people, nil
}

// Get reads one person.
func (srv *peopleService) Get(ctx context.Context, id string) (*entity.Person, error) {
	ref := store.DocRef{Collection: constants.CollectionPeople, ID: id}
	snap, err := srv.store.GetDoc(ctx, ref)
	if err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to read person")
	}
	if !snap.Exists {
		return nil, errors.Wrap(domainerrors.ErrPersonNotFound, id)
	}

	return entity.PersonFromMap(id, snap.Data), nil
}

// Delete removes the person record. Memories keep their denormalized tags.
func (srv *peopleService) Delete(ctx context.Context, id string) error {
	if _, err := srv.Get(ctx, id); err != nil {
		return err
	}

	ref := store.DocRef{Collection: constants.CollectionPeople, ID: id}
	if err := srv.store.DeleteDoc(ctx, ref); err != nil {
		return domainerrors.NewStoreExecuteError(err, "failed to delete person")
	}

	return nil
}
