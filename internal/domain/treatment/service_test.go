package treatment

import (
	"context"
	"errors"
	"testing"
)

type mockRepo struct {
	treatments map[int64]*Treatment
	nextID     int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{treatments: make(map[int64]*Treatment)}
}

func (m *mockRepo) Create(_ context.Context, t *Treatment) error {
	m.nextID++
	t.ID = m.nextID
	cp := *t
	m.treatments[t.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Treatment, error) {
	t, ok := m.treatments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, t *Treatment) error {
	if _, ok := m.treatments[t.ID]; !ok {
		return ErrNotFound
	}
	cp := *t
	m.treatments[t.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]Treatment, int, error) {
	out := make([]Treatment, 0, len(m.treatments))
	for _, t := range m.treatments {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func TestCreateTreatment(t *testing.T) {
	svc := NewService(newMockRepo())

	tr := &Treatment{Name: "Wound dressing", Price: 50000}
	if err := svc.Create(context.Background(), tr); err != nil {
		t.Fatalf("create: %v", err)
	}
	if tr.ID == 0 {
		t.Error("id not assigned")
	}
}

func TestCreateTreatmentValidation(t *testing.T) {
	svc := NewService(newMockRepo())

	if err := svc.Create(context.Background(), &Treatment{Price: 100}); err == nil {
		t.Error("missing name must be rejected")
	}
	if err := svc.Create(context.Background(), &Treatment{Name: "X", Price: -1}); err == nil {
		t.Error("negative price must be rejected")
	}
}

func TestUpdateTreatmentPrice(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	tr := &Treatment{Name: "Wound dressing", Price: 50000}
	if err := svc.Create(context.Background(), tr); err != nil {
		t.Fatalf("create: %v", err)
	}

	tr.Price = 75000
	if err := svc.Update(context.Background(), tr); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.Get(context.Background(), tr.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Price != 75000 {
		t.Errorf("price = %d, want 75000", got.Price)
	}

	missing := &Treatment{ID: 99, Name: "X"}
	if err := svc.Update(context.Background(), missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown treatment: got %v, want ErrNotFound", err)
	}
}
