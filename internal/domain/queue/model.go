// Package queue implements the care-session lifecycle engine: queue-number
// assignment, status transitions, medical-record-number allocation on
// completion, and fan-out of live queue snapshots.
package queue

import (
	"errors"
	"time"
)

// Status is a care session's position in the clinic workflow. Transitions
// are set explicitly by callers; the engine validates the value but does not
// restrict which status may follow which.
type Status string

const (
	StatusWaitingConsultation Status = "WAITING_CONSULTATION"
	StatusInConsultation      Status = "IN_CONSULTATION"
	StatusWaitingMedication   Status = "WAITING_MEDICATION"
	StatusWaitingPayment      Status = "WAITING_PAYMENT"
	StatusCompleted           Status = "COMPLETED"
)

var validStatuses = map[Status]bool{
	StatusWaitingConsultation: true,
	StatusInConsultation:      true,
	StatusWaitingMedication:   true,
	StatusWaitingPayment:      true,
	StatusCompleted:           true,
}

// Valid reports whether s is a recognized lifecycle status.
func (s Status) Valid() bool { return validStatuses[s] }

var (
	// ErrNotFound is returned when no care session matches the given id.
	ErrNotFound = errors.New("care session not found")
	// ErrCapacityExceeded is returned when the daily queue is full (999).
	ErrCapacityExceeded = errors.New("daily queue capacity exceeded")
	// ErrInvalidStatus is returned for an unrecognized lifecycle status.
	ErrInvalidStatus = errors.New("invalid session status")
	// ErrInvalidRequest is returned for malformed or inconsistent input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInsufficientStock is returned when a drug order exceeds inventory.
	ErrInsufficientStock = errors.New("insufficient drug stock")
)

// CareSession maps to the care_session table: one patient's visit through
// the clinic workflow.
type CareSession struct {
	ID          int64     `db:"id" json:"id"`
	QueueNumber string    `db:"queue_number" json:"queue_number"`
	Status      Status    `db:"status" json:"status"`
	DoctorID    int64     `db:"doctor_id" json:"doctor_id"`
	RoomID      int64     `db:"room_id" json:"room_id"`
	PatientID   int64     `db:"patient_id" json:"patient_id"`
	Complaints  string    `db:"complaints" json:"complaints"`
	Diagnosis   *string   `db:"diagnosis" json:"diagnosis,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SessionDiagnosis maps to the care_session_diagnosis table.
type SessionDiagnosis struct {
	ID          int64     `db:"id" json:"id"`
	SessionID   int64     `db:"session_id" json:"session_id"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SessionTreatment maps to the care_session_treatment table. AppliedPrice
// is the catalog price frozen at the moment the treatment was applied;
// later catalog changes never alter it.
type SessionTreatment struct {
	ID           int64     `db:"id" json:"id"`
	SessionID    int64     `db:"session_id" json:"session_id"`
	TreatmentID  int64     `db:"treatment_id" json:"treatment_id"`
	Name         string    `db:"name" json:"name"`
	AppliedPrice int64     `db:"applied_price" json:"applied_price"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DrugOrder maps to the care_session_drug_order table. UnitPrice is frozen
// at order time, mirroring SessionTreatment.
type DrugOrder struct {
	ID        int64     `db:"id" json:"id"`
	SessionID int64     `db:"session_id" json:"session_id"`
	DrugID    int64     `db:"drug_id" json:"drug_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	UnitPrice int64     `db:"unit_price" json:"unit_price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// QueueEntry is the read model pushed to displays: one row of the waiting
// (or called) queue with display names joined in.
type QueueEntry struct {
	SessionID   int64  `json:"id"`
	QueueNumber string `json:"queue_number"`
	Status      Status `json:"status"`
	DoctorID    int64  `json:"doctor_id"`
	DoctorName  string `json:"doctor"`
	RoomID      int64  `json:"room_id"`
	RoomName    string `json:"room"`
	PatientID   int64  `json:"patient_id"`
	PatientName string `json:"patient"`
}

// ActiveQueue projects the session currently being served plus the ordered
// list behind it. Recomputed from the store on every call; never cached.
type ActiveQueue struct {
	Current    *QueueEntry  `json:"current"`
	NextQueues []QueueEntry `json:"next_queues"`
}

// SessionDetail bundles a session with its child collections.
type SessionDetail struct {
	Session    *CareSession       `json:"session"`
	Diagnoses  []SessionDiagnosis `json:"diagnoses"`
	Treatments []SessionTreatment `json:"treatments"`
	DrugOrders []DrugOrder        `json:"drug_orders"`
}
