package drug

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(d *Drug) error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if d.Unit == "" {
		return fmt.Errorf("unit is required")
	}
	if d.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	if d.Stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, d *Drug) error {
	if err := s.validate(d); err != nil {
		return err
	}
	return s.repo.Create(ctx, d)
}

func (s *Service) Get(ctx context.Context, id int64) (*Drug, error) {
	return s.repo.GetByID(ctx, id)
}

// Update changes catalog fields only. Stock moves through Restock and
// session drug orders, never through a blind overwrite.
func (s *Service) Update(ctx context.Context, d *Drug) error {
	if err := s.validate(d); err != nil {
		return err
	}
	return s.repo.Update(ctx, d)
}

func (s *Service) Restock(ctx context.Context, id int64, quantity int) (*Drug, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	return s.repo.Restock(ctx, id, quantity)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Drug, int, error) {
	return s.repo.List(ctx, limit, offset)
}
