package service

import "memorylane/internal/domain/entity"

// PointerStore persists the device-local patient pointer across restarts.
// Load returns (nil, nil) when no pointer has been saved.
type PointerStore interface {
	Load() (*entity.PatientPointer, error)
	Save(ptr *entity.PatientPointer) error
	Clear() error
}
