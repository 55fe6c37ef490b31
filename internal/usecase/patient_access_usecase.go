package usecase

import (
	"context"

	"memorylane/internal/domain/entity"
)

// PatientAccessUsecase defines the patient-side login flow: a patient device
// signs in with nothing but a patient access ID.
type PatientAccessUsecase interface {
	// Login validates the access ID against the patient directory, starts
	// an anonymous session and persists the device-local pointer.
	Login(ctx context.Context, patientID string) (*entity.PatientPointer, error)

	// Logout ends the anonymous session and clears the pointer.
	Logout(ctx context.Context) error
}
