package drug

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
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

const drugCols = `id, name, unit, price, stock, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, d *Drug) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO drug (name, unit, price, stock)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at, updated_at`,
		d.Name, d.Unit, d.Price, d.Stock,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Drug, error) {
	var d Drug
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+drugCols+` FROM drug WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.Unit, &d.Price, &d.Stock, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) Update(ctx context.Context, d *Drug) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE drug SET name=$2, unit=$3, price=$4, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Unit, d.Price)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Restock(ctx context.Context, id int64, delta int) (*Drug, error) {
	var d Drug
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE drug SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+drugCols,
		id, delta,
	).Scan(&d.ID, &d.Name, &d.Unit, &d.Price, &d.Stock, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]Drug, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM drug`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+drugCols+` FROM drug ORDER BY name ASC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	drugs := make([]Drug, 0, limit)
	for rows.Next() {
		var d Drug
		if err := rows.Scan(&d.ID, &d.Name, &d.Unit, &d.Price, &d.Stock, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		drugs = append(drugs, d)
	}
	return drugs, total, rows.Err()
}
