package impl

import (
	"context"
	"log/slog"

	"memorylane/internal/domain/constants"
	"memorylane/internal/domain/entity"
	domainerrors "memorylane/internal/domain/errors"
	"memorylane/internal/domain/service"
	"memorylane/internal/domain/store"
	"memorylane/internal/usecase"

	"github.com/pkg/errors"
)

// patientAccessService implements the PatientAccessUsecase interface.
type patientAccessService struct {
	auth    service.AuthClient
	store   store.Store
	pointer service.PointerStore
	logger  *slog.Logger
}

// NewPatientAccessService is the constructor for patientAccessService.
func NewPatientAccessService(
	auth service.AuthClient,
	st store.Store,
	pointer service.PointerStore,
	logger *slog.Logger,
) usecase.PatientAccessUsecase {
	return &patientAccessService{
		auth:    auth,
		store:   st,
		pointer: pointer,
		logger:  logger,
	}
}

// Login validates the access ID against the patient directory, starts an
// anonymous session and persists the device-local pointer.
func (srv *patientAccessService) Login(ctx context.Context, patientID string) (*entity.PatientPointer, error) {
	if patientID == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "patient ID is required")
	}

	srv.logger.Debug("Patient login attempt", "patientID", patientID)

	ref := store.DocRef{Collection: constants.CollectionPatientDirectory, ID: patientID}
	snap, err := srv.store.GetDoc(ctx, ref)
	if err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to read patient directory")
	}
	if !snap.Exists {
		return nil, errors.Wrap(domainerrors.ErrPatientNotFound, "unknown patient ID")
	}

	entry := entity.DirectoryEntryFromMap(patientID, snap.Data)
	patientUID := entry.UID
	if patientUID == "" {
		patientUID = patientID
	}

	if _, err := srv.auth.SignInAnonymously(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to start anonymous session")
	}

	ptr := &entity.PatientPointer{
		PatientUID:  patientUID,
		DisplayName: entry.DisplayName,
	}
	if err := srv.pointer.Save(ptr); err != nil {
		return nil, errors.Wrap(err, "failed to persist patient pointer")
	}

	srv.logger.Info("Patient logged in", "patientUID", patientUID)

	return ptr, nil
}

// Logout ends the anonymous session and clears the pointer.
func (srv *patientAccessService) Logout(ctx context.Context) error {
	if err := srv.auth.SignOut(ctx); err != nil {
		return errors.Wrap(err, "failed to sign out")
	}
	if err := srv.pointer.Clear(); err != nil {
		return errors.Wrap(err, "failed to clear patient pointer")
	}

	return nil
}
