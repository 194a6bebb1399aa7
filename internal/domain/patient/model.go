package patient

import "time"

// Patient maps to the patient table. MedicalRecordNumber is nil until the
// patient's first completed visit; once set it never changes.
type Patient struct {
	ID                  int64      `db:"id" json:"id"`
	Name                string     `db:"name" json:"name"`
	Gender              string     `db:"gender" json:"gender"`
	BirthDate           *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Address             *string    `db:"address" json:"address,omitempty"`
	Phone               *string    `db:"phone" json:"phone,omitempty"`
	MedicalRecordNumber *string    `db:"medical_record_number" json:"medical_record_number,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}
