package usecase

import (
	"context"

	"memorylane/internal/domain/entity"
)

// CreatePatientOutput returns the newly provisioned patient identity.
type CreatePatientOutput struct {
	Pointer *entity.PatientPointer
}

// PatientLinkUsecase manages the caregiver-to-patient link: provisioning a
// patient identity, joining an existing one, and leaving it.
type PatientLinkUsecase interface {
	// CreatePatient provisions a fresh patient identity, registers it in
	// the patient directory and links the caregiver to it.
	CreatePatient(ctx context.Context, caregiverUID, patientName string) (*CreatePatientOutput, error)

	// JoinPatient links the caregiver to an existing patient by access ID.
	JoinPatient(ctx context.Context, caregiverUID, patientID string) (*entity.PatientPointer, error)

	// LeavePatient removes the caregiver's patient link.
	LeavePatient(ctx context.Context, caregiverUID string) error

	// AccessCode renders the patient access ID as a QR code image.
	AccessCode(ctx context.Context, patientUID string) ([]byte, error)
}
