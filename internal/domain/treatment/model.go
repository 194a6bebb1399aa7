package treatment

import "time"

// Treatment is a catalog entry. Price is the current list price in the
// smallest currency unit; applying a treatment to a session snapshots the
// price at that moment, so edits here never change past sessions.
type Treatment struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Price     int64     `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
