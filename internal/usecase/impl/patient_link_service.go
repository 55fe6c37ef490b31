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
	"memorylane/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// accessIDPrefix namespaces generated patient access IDs.
const accessIDPrefix = "patient_"

// patientEmailDomain is the synthetic mail domain for patient identities;
// patients never receive mail, the provider just requires an address.
const patientEmailDomain = "@memory-app.local"

// patientLinkService implements the PatientLinkUsecase interface.
type patientLinkService struct {
	auth   service.AuthClient
	store  store.Store
	qrcode service.QRCodeService
	logger *slog.Logger
}

// NewPatientLinkService is the constructor for patientLinkService.
func NewPatientLinkService(
	auth service.AuthClient,
	st store.Store,
	qrcode service.QRCodeService,
	logger *slog.Logger,
) usecase.PatientLinkUsecase {
	return &patientLinkService{
		auth:   auth,
		store:  st,
		qrcode: qrcode,
		logger: logger,
	}
}

// CreatePatient provisions a fresh patient identity, registers it in the
// patient directory and links the caregiver to it, all in one batch.
func (srv *patientLinkService) CreatePatient(ctx context.Context, caregiverUID, patientName string) (*usecase.CreatePatientOutput, error) {
	if patientName == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "patient name is required")
	}

	if err := srv.ensureNotLinked(ctx, caregiverUID); err != nil {
		return nil, err
	}

	accessID := newAccessID()
	dirRef := store.DocRef{Collection: constants.CollectionPatientDirectory, ID: accessID}
	snap, err := srv.store.GetDoc(ctx, dirRef)
	if err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to check patient directory")
	}
	if snap.Exists {
		return nil, errors.Wrap(domainerrors.ErrPatientIDTaken, accessID)
	}

	uid, err := srv.auth.CreateUser(ctx, accessID+patientEmailDomain, patientName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create patient identity")
	}

	profile := &entity.Profile{
		UID:         uid,
		Role:        entity.RolePatient,
		DisplayName: patientName,
		CreatedAt:   time.Now().UnixMilli(),
		PatientUID:  uid,
	}
	entry := &entity.DirectoryEntry{AccessID: accessID, UID: uid, DisplayName: patientName}

	writes := []store.Write{
		{
			Kind: store.WriteSet,
			Ref:  store.DocRef{Collection: constants.CollectionUsers, ID: uid},
			Data: profile.ToMap(),
		},
		{
			Kind: store.WriteSet,
			Ref:  dirRef,
			Data: entry.ToMap(),
		},
		{
			Kind: store.WriteUpdate,
			Ref:  store.DocRef{Collection: constants.CollectionUsers, ID: caregiverUID},
			Data: map[string]any{"patientUid": uid},
		},
	}
	if err := srv.store.ApplyBatch(ctx, writes); err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to write patient records")
	}

	srv.logger.Info("Patient created", "accessID", accessID, "patientUID", uid, "caregiverUID", caregiverUID)

	return &usecase.CreatePatientOutput{
		Pointer: &entity.PatientPointer{PatientUID: uid, DisplayName: patientName},
	}, nil
}

// JoinPatient links the caregiver to an existing patient by access ID.
func (srv *patientLinkService) JoinPatient(ctx context.Context, caregiverUID, patientID string) (*entity.PatientPointer, error) {
	if patientID == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "patient ID is required")
	}

	dirRef := store.DocRef{Collection: constants.CollectionPatientDirectory, ID: patientID}
	snap, err := srv.store.GetDoc(ctx, dirRef)
	if err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to read patient directory")
	}
	if !snap.Exists {
		return nil, errors.Wrap(domainerrors.ErrPatientNotFound, patientID)
	}

	entry := entity.DirectoryEntryFromMap(patientID, snap.Data)
	patientUID := entry.UID
	if patientUID == "" {
		patientUID = patientID
	}

	caregiverRef := store.DocRef{Collection: constants.CollectionUsers, ID: caregiverUID}
	if err := srv.store.UpdateDoc(ctx, caregiverRef, map[string]any{"patientUid": patientUID}); err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to link caregiver")
	}

	srv.logger.Info("Caregiver joined patient", "caregiverUID", caregiverUID, "patientUID", patientUID)

	return &entity.PatientPointer{PatientUID: patientUID, DisplayName: entry.DisplayName}, nil
}

// LeavePatient removes the caregiver's patient link. The patient record and
// its content are left untouched for the remaining caregivers.
func (srv *patientLinkService) LeavePatient(ctx context.Context, caregiverUID string) error {
	ref := store.DocRef{Collection: constants.CollectionUsers, ID: caregiverUID}
	snap, err := srv.store.GetDoc(ctx, ref)
	if err != nil {
		return domainerrors.NewStoreExecuteError(err, "failed to read caregiver profile")
	}
	if !snap.Exists {
		return errors.Wrap(domainerrors.ErrProfileNotFound, caregiverUID)
	}
	if entity.ProfileFromMap(caregiverUID, snap.Data).PatientUID == "" {
		return errors.Wrap(domainerrors.ErrNotLinkedToPatient, caregiverUID)
	}

	if err := srv.store.UpdateDoc(ctx, ref, map[string]any{"patientUid": store.DeleteField}); err != nil {
		return domainerrors.NewStoreExecuteError(err, "failed to unlink caregiver")
	}

	srv.logger.Info("Caregiver left patient", "caregiverUID", caregiverUID)

	return nil
}

// AccessCode resolves the patient's directory entry and renders its access
// ID as a QR code image.
func (srv *patientLinkService) AccessCode(ctx context.Context, patientUID string) ([]byte, error) {
	if patientUID == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "patient UID is required")
	}

	q := store.NewQuery(constants.CollectionPatientDirectory).Where("uid", patientUID).WithLimit(1)
	result, err := srv.store.RunQuery(ctx, q)
	if err != nil {
		return nil, domainerrors.NewStoreExecuteError(err, "failed to resolve access ID")
	}
	if len(result.Docs) == 0 {
		return nil, errors.Wrap(domainerrors.ErrPatientNotFound, patientUID)
	}

	png, err := srv.qrcode.GenerateAccessQR(result.Docs[0].Ref.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render access code")
	}

	return png, nil
}

func (srv *patientLinkService) ensureNotLinked(ctx context.Context, caregiverUID string) error {
	ref := store.DocRef{Collection: constants.CollectionUsers, ID: caregiverUID}
	snap, err := srv.store.GetDoc(ctx, ref)
	if err != nil {
		return domainerrors.NewStoreExecuteError(err, "failed to read caregiver profile")
	}
	if !snap.Exists {
		return errors.Wrap(domainerrors.ErrProfileNotFound, caregiverUID)
	}
	if entity.ProfileFromMap(caregiverUID, snap.Data).PatientUID != "" {
		return errors.Wrap(domainerrors.ErrAlreadyLinkedToPatient, caregiverUID)
	}

	return nil
}

// newAccessID generates a short, shareable patient access ID.
func newAccessID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")

	return accessIDPrefix + raw[:10]
}
