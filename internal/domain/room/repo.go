package room

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("room not found")

type Repository interface {
	Create(ctx context.Context, r *Room) error
	GetByID(ctx context.Context, id int64) (*Room, error)
	Update(ctx context.Context, r *Room) error
	List(ctx context.Context, limit, offset int) ([]Room, int, error)
}
