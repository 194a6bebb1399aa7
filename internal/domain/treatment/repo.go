package treatment

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("treatment not found")

type Repository interface {
	Create(ctx context.Context, t *Treatment) error
	GetByID(ctx context.Context, id int64) (*Treatment, error)
	Update(ctx context.Context, t *Treatment) error
	List(ctx context.Context, limit, offset int) ([]Treatment, int, error)
}
