package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
)

// Advisory lock keys for the two read-then-write allocation paths. Held
// until the surrounding transaction ends.
const (
	queueAllocLockKey  = 920001
	recordAllocLockKey = 920002
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.RunInTx(ctx, r.pool, fn)
}

func (r *repoPG) LockQueueAllocation(ctx context.Context) error {
	if db.TxFromContext(ctx) == nil {
		return fmt.Errorf("queue allocation lock requires a transaction")
	}
	_, err := r.conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, queueAllocLockKey)
	return err
}

func (r *repoPG) LockRecordAllocation(ctx context.Context) error {
	if db.TxFromContext(ctx) == nil {
		return fmt.Errorf("record allocation lock requires a transaction")
	}
	_, err := r.conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, recordAllocLockKey)
	return err
}

func (r *repoPG) CountCreatedBetween(ctx context.Context, start, end time.Time) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM care_session WHERE created_at >= $1 AND created_at < $2`,
		start, end,
	).Scan(&count)
	return count, err
}

const sessionCols = `id, queue_number, status, doctor_id, room_id, patient_id, complaints, diagnosis, created_at, updated_at`

func (r *repoPG) CreateSession(ctx context.Context, s *CareSession) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO care_session (queue_number, status, doctor_id, room_id, patient_id, complaints)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at`,
		s.QueueNumber, s.Status, s.DoctorID, s.RoomID, s.PatientID, s.Complaints,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *repoPG) GetSession(ctx context.Context, id int64) (*CareSession, error) {
	s, err := scanSession(r.conn(ctx).QueryRow(ctx,
		`SELECT `+sessionCols+` FROM care_session WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *repoPG) UpdateSession(ctx context.Context, s *CareSession) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE care_session SET
			status=$2, complaints=$3, diagnosis=$4, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Status, s.Complaints, s.Diagnosis,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) EntriesByStatus(ctx context.Context, status Status) ([]QueueEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT cs.id, cs.queue_number, cs.status,
		       cs.doctor_id, d.name,
		       cs.room_id, rm.name,
		       cs.patient_id, p.name
		FROM care_session cs
		JOIN doctor d ON d.id = cs.doctor_id
		JOIN room rm ON rm.id = cs.room_id
		JOIN patient p ON p.id = cs.patient_id
		WHERE cs.status = $1
		ORDER BY cs.created_at ASC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []QueueEntry
	for rows.Next() {
		var e QueueEntry
		if err := rows.Scan(&e.SessionID, &e.QueueNumber, &e.Status,
			&e.DoctorID, &e.DoctorName, &e.RoomID, &e.RoomName,
			&e.PatientID, &e.PatientName); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repoPG) AddDiagnoses(ctx context.Context, sessionID int64, descriptions []string) error {
	for _, desc := range descriptions {
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO care_session_diagnosis (session_id, description)
			VALUES ($1, $2)`, sessionID, desc); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) ListDiagnoses(ctx context.Context, sessionID int64) ([]SessionDiagnosis, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, session_id, description, created_at
		FROM care_session_diagnosis WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diags []SessionDiagnosis
	for rows.Next() {
		var d SessionDiagnosis
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Description, &d.CreatedAt); err != nil {
			return nil, err
		}
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

// AddTreatments copies each treatment's current catalog price into the
// session row, so later catalog edits cannot rewrite billing history.
func (r *repoPG) AddTreatments(ctx context.Context, sessionID int64, treatmentIDs []int64) ([]SessionTreatment, error) {
	var applied []SessionTreatment
	for _, tid := range treatmentIDs {
		var st SessionTreatment
		err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO care_session_treatment (session_id, treatment_id, name, applied_price)
			SELECT $1, t.id, t.name, t.price FROM treatment t WHERE t.id = $2
			RETURNING id, session_id, treatment_id, name, applied_price, created_at`,
			sessionID, tid,
		).Scan(&st.ID, &st.SessionID, &st.TreatmentID, &st.Name, &st.AppliedPrice, &st.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: treatment %d does not exist", ErrInvalidRequest, tid)
		}
		if err != nil {
			return nil, err
		}
		applied = append(applied, st)
	}
	return applied, nil
}

func (r *repoPG) ListTreatments(ctx context.Context, sessionID int64) ([]SessionTreatment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, session_id, treatment_id, name, applied_price, created_at
		FROM care_session_treatment WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var treatments []SessionTreatment
	for rows.Next() {
		var st SessionTreatment
		if err := rows.Scan(&st.ID, &st.SessionID, &st.TreatmentID, &st.Name,
			&st.AppliedPrice, &st.CreatedAt); err != nil {
			return nil, err
		}
		treatments = append(treatments, st)
	}
	return treatments, rows.Err()
}

func (r *repoPG) AddDrugOrder(ctx context.Context, sessionID, drugID int64, quantity int) (*DrugOrder, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE drug SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
		drugID, quantity)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("drug %d: %w", drugID, ErrInsufficientStock)
	}

	var o DrugOrder
	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO care_session_drug_order (session_id, drug_id, quantity, unit_price)
		SELECT $1, d.id, $3, d.price FROM drug d WHERE d.id = $2
		RETURNING id, session_id, drug_id, quantity, unit_price, created_at`,
		sessionID, drugID, quantity,
	).Scan(&o.ID, &o.SessionID, &o.DrugID, &o.Quantity, &o.UnitPrice, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repoPG) ListDrugOrders(ctx context.Context, sessionID int64) ([]DrugOrder, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, session_id, drug_id, quantity, unit_price, created_at
		FROM care_session_drug_order WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []DrugOrder
	for rows.Next() {
		var o DrugOrder
		if err := rows.Scan(&o.ID, &o.SessionID, &o.DrugID, &o.Quantity,
			&o.UnitPrice, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanSession(row pgx.Row) (*CareSession, error) {
	var s CareSession
	err := row.Scan(&s.ID, &s.QueueNumber, &s.Status, &s.DoctorID, &s.RoomID,
		&s.PatientID, &s.Complaints, &s.Diagnosis, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
