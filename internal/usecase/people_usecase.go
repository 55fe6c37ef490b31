package usecase

import (
	"context"
	"io"

	"memorylane/internal/domain/entity"
)

// CreatePersonInput carries a new person record. FaceThumb is optional.
type CreatePersonInput struct {
	PatientUID           string
	DisplayName          string
	FaceThumb            io.Reader
	FaceThumbName        string
	FaceThumbContentType string
}

// PeopleUsecase defines operations over the people appearing in memories.
type PeopleUsecase interface {
	Create(ctx context.Context, input CreatePersonInput) (*entity.Person, error)
	List(ctx context.Context, patientUID string) ([]*entity.Person, error)
	Get(ctx context.Context, id string) (*entity.Person, error)
	Delete(ctx context.Context, id string) error
}
