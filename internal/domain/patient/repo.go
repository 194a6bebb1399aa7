package patient

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no patient matches the given id.
var ErrNotFound = errors.New("patient not found")

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	SearchByName(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error)

	// MaxMedicalRecordNumber returns the greatest assigned record number,
	// or "" when no patient has one yet.
	MaxMedicalRecordNumber(ctx context.Context) (string, error)
	// SetMedicalRecordNumber assigns a record number to a patient that does
	// not have one. It fails if the patient already carries a number.
	SetMedicalRecordNumber(ctx context.Context, id int64, mrn string) error
}
