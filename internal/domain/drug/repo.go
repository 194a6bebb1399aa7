package drug

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("drug not found")

type Repository interface {
	Create(ctx context.Context, d *Drug) error
	GetByID(ctx context.Context, id int64) (*Drug, error)
	Update(ctx context.Context, d *Drug) error
	// Restock adds delta to the drug's stock atomically.
	Restock(ctx context.Context, id int64, delta int) (*Drug, error)
	List(ctx context.Context, limit, offset int) ([]Drug, int, error)
}
