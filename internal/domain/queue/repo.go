package queue

import (
	"context"
	"time"
)

type Repository interface {
	// InTx runs fn inside a single transaction. Nested calls join the
	// outer transaction.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LockQueueAllocation serializes queue-number allocation for the
	// duration of the current transaction.
	LockQueueAllocation(ctx context.Context) error
	// LockRecordAllocation serializes medical-record-number allocation for
	// the duration of the current transaction.
	LockRecordAllocation(ctx context.Context) error

	CountCreatedBetween(ctx context.Context, start, end time.Time) (int, error)
	CreateSession(ctx context.Context, s *CareSession) error
	GetSession(ctx context.Context, id int64) (*CareSession, error)
	UpdateSession(ctx context.Context, s *CareSession) error

	// EntriesByStatus returns display-ready entries for the given status,
	// ordered by session creation time ascending.
	EntriesByStatus(ctx context.Context, status Status) ([]QueueEntry, error)

	AddDiagnoses(ctx context.Context, sessionID int64, descriptions []string) error
	ListDiagnoses(ctx context.Context, sessionID int64) ([]SessionDiagnosis, error)
	// AddTreatments snapshots each treatment's current catalog price into
	// the session rows in one batch.
	AddTreatments(ctx context.Context, sessionID int64, treatmentIDs []int64) ([]SessionTreatment, error)
	ListTreatments(ctx context.Context, sessionID int64) ([]SessionTreatment, error)
	// AddDrugOrder records an order with the drug's current price and
	// decrements stock, failing when stock is insufficient.
	AddDrugOrder(ctx context.Context, sessionID, drugID int64, quantity int) (*DrugOrder, error)
	ListDrugOrders(ctx context.Context, sessionID int64) ([]DrugOrder, error)
}
