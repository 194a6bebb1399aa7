package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/patient"
)

// PatientStore is the slice of the patient repository the engine needs:
// resolving and creating patients, and persisting record numbers.
type PatientStore interface {
	GetByID(ctx context.Context, id int64) (*patient.Patient, error)
	Create(ctx context.Context, p *patient.Patient) error
	SetMedicalRecordNumber(ctx context.Context, id int64, mrn string) error
}

// Broadcaster pushes queue state to connected displays. Calls are
// fire-and-forget from the engine's perspective: errors are logged by the
// caller and never fail the triggering operation.
type Broadcaster interface {
	PublishWaitingQueue(ctx context.Context, entries []QueueEntry) error
	PublishCalled(ctx context.Context, sessionID int64, queueNumber string) error
}

// Service is the queue lifecycle engine. It owns session status changes,
// orchestrates number allocation, and triggers snapshot broadcasts. It
// keeps no queue state between calls; the store is the single source of
// truth.
type Service struct {
	repo        Repository
	patients    PatientStore
	alloc       *Allocator
	broadcaster Broadcaster
	log         zerolog.Logger
}

func NewService(repo Repository, patients PatientStore, alloc *Allocator, broadcaster Broadcaster, log zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		patients:    patients,
		alloc:       alloc,
		broadcaster: broadcaster,
		log:         log,
	}
}

// NewPatient is inline patient data for first-visit registration.
type NewPatient struct {
	Name      string     `json:"name"`
	Gender    string     `json:"gender"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Address   *string    `json:"address,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
}

// CreateRequest registers a patient visit. Exactly one of PatientID or
// Patient must be given.
type CreateRequest struct {
	DoctorID     int64       `json:"doctor_id"`
	RoomID       int64       `json:"room_id"`
	Complaints   string      `json:"complaints"`
	PatientID    int64       `json:"patient_id,omitempty"`
	Patient      *NewPatient `json:"patient,omitempty"`
	TreatmentIDs []int64     `json:"treatment_ids,omitempty"`
}

func (r CreateRequest) validate() error {
	if r.DoctorID == 0 {
		return fmt.Errorf("%w: doctor_id is required", ErrInvalidRequest)
	}
	if r.RoomID == 0 {
		return fmt.Errorf("%w: room_id is required", ErrInvalidRequest)
	}
	if r.PatientID == 0 && r.Patient == nil {
		return fmt.Errorf("%w: patient_id or patient is required", ErrInvalidRequest)
	}
	if r.PatientID != 0 && r.Patient != nil {
		return fmt.Errorf("%w: patient_id and patient are mutually exclusive", ErrInvalidRequest)
	}
	if r.Patient != nil && (r.Patient.Name == "" || r.Patient.Gender == "") {
		return fmt.Errorf("%w: patient name and gender are required", ErrInvalidRequest)
	}
	return nil
}

// UpdateRequest moves a session to a new status, optionally updating
// clinical fields in the same call.
type UpdateRequest struct {
	Status    Status   `json:"status"`
	Diagnosis *string  `json:"diagnosis,omitempty"`
	Diagnoses []string `json:"diagnoses,omitempty"`
}

// Create registers a visit: resolves or creates the patient, allocates the
// next queue number under the allocation lock, and inserts the session in
// WAITING_CONSULTATION, all in one transaction. On success the recomputed
// waiting snapshot is pushed to displays.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CareSession, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var session *CareSession
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		patientID := req.PatientID
		if req.Patient != nil {
			p := &patient.Patient{
				Name:      req.Patient.Name,
				Gender:    req.Patient.Gender,
				BirthDate: req.Patient.BirthDate,
				Address:   req.Patient.Address,
				Phone:     req.Patient.Phone,
			}
			if err := s.patients.Create(ctx, p); err != nil {
				return fmt.Errorf("create patient: %w", err)
			}
			patientID = p.ID
		} else if _, err := s.patients.GetByID(ctx, patientID); err != nil {
			return fmt.Errorf("resolve patient %d: %w", patientID, err)
		}

		if err := s.repo.LockQueueAllocation(ctx); err != nil {
			return fmt.Errorf("acquire queue lock: %w", err)
		}
		number, err := s.alloc.NextQueueNumber(ctx)
		if err != nil {
			return err
		}

		sess := &CareSession{
			QueueNumber: number,
			Status:      StatusWaitingConsultation,
			DoctorID:    req.DoctorID,
			RoomID:      req.RoomID,
			PatientID:   patientID,
			Complaints:  req.Complaints,
		}
		if err := s.repo.CreateSession(ctx, sess); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if len(req.TreatmentIDs) > 0 {
			if _, err := s.repo.AddTreatments(ctx, sess.ID, req.TreatmentIDs); err != nil {
				return fmt.Errorf("apply treatments: %w", err)
			}
		}
		session = sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishWaitingQueue(ctx)
	return session, nil
}

// UpdateStatus applies a status transition. Any recognized status may
// follow any other; the engine does not enforce a forward-only order. On
// the transition to COMPLETED, a patient without a medical record number
// gets one allocated and persisted in the same transaction. Every
// successful call pushes a fresh waiting snapshot, and a transition to
// IN_CONSULTATION additionally announces the called ticket.
func (s *Service) UpdateStatus(ctx context.Context, id int64, req UpdateRequest) (*CareSession, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}

	var session *CareSession
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		sess, err := s.repo.GetSession(ctx, id)
		if err != nil {
			return err
		}

		sess.Status = req.Status
		if req.Diagnosis != nil {
			sess.Diagnosis = req.Diagnosis
		}
		if len(req.Diagnoses) > 0 {
			if err := s.repo.AddDiagnoses(ctx, id, req.Diagnoses); err != nil {
				return fmt.Errorf("add diagnoses: %w", err)
			}
		}

		if req.Status == StatusCompleted {
			if err := s.ensureRecordNumber(ctx, sess.PatientID); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateSession(ctx, sess); err != nil {
			return err
		}
		session = sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishWaitingQueue(ctx)
	if session.Status == StatusInConsultation {
		s.publishCalled(ctx, session.ID, session.QueueNumber)
	}
	return session, nil
}

// ensureRecordNumber allocates a medical record number for the patient if
// they don't have one yet. Runs at most once per patient; later completed
// visits are no-ops.
func (s *Service) ensureRecordNumber(ctx context.Context, patientID int64) error {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return fmt.Errorf("resolve patient %d: %w", patientID, err)
	}
	if p.MedicalRecordNumber != nil {
		return nil
	}

	if err := s.repo.LockRecordAllocation(ctx); err != nil {
		return fmt.Errorf("acquire record lock: %w", err)
	}
	mrn, err := s.alloc.NextMedicalRecordNumber(ctx)
	if err != nil {
		return err
	}
	if err := s.patients.SetMedicalRecordNumber(ctx, p.ID, mrn); err != nil {
		return fmt.Errorf("assign record number: %w", err)
	}
	return nil
}

// ListWaiting returns the authoritative "who's next" ordering: sessions in
// WAITING_CONSULTATION sorted by creation time ascending.
func (s *Service) ListWaiting(ctx context.Context) ([]QueueEntry, error) {
	return s.repo.EntriesByStatus(ctx, StatusWaitingConsultation)
}

// ActiveForDoctor projects the doctor's session currently in consultation
// plus the waiting entries queued for the same doctor.
func (s *Service) ActiveForDoctor(ctx context.Context, doctorID int64) (*ActiveQueue, error) {
	inConsultation, err := s.repo.EntriesByStatus(ctx, StatusInConsultation)
	if err != nil {
		return nil, err
	}
	var current *QueueEntry
	for i := range inConsultation {
		if inConsultation[i].DoctorID == doctorID {
			current = &inConsultation[i]
			break
		}
	}

	waiting, err := s.repo.EntriesByStatus(ctx, StatusWaitingConsultation)
	if err != nil {
		return nil, err
	}
	next := make([]QueueEntry, 0, len(waiting))
	for _, e := range waiting {
		if e.DoctorID == doctorID {
			next = append(next, e)
		}
	}
	return &ActiveQueue{Current: current, NextQueues: next}, nil
}

// ActiveForPharmacy projects the oldest session waiting for medication plus
// the ordered list behind it.
func (s *Service) ActiveForPharmacy(ctx context.Context) (*ActiveQueue, error) {
	entries, err := s.repo.EntriesByStatus(ctx, StatusWaitingMedication)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return &ActiveQueue{NextQueues: []QueueEntry{}}, nil
	}
	return &ActiveQueue{Current: &entries[0], NextQueues: entries[1:]}, nil
}

// GetDetail returns a session with its diagnoses, treatments, and drug
// orders.
func (s *Service) GetDetail(ctx context.Context, id int64) (*SessionDetail, error) {
	sess, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	diagnoses, err := s.repo.ListDiagnoses(ctx, id)
	if err != nil {
		return nil, err
	}
	treatments, err := s.repo.ListTreatments(ctx, id)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListDrugOrders(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{
		Session:    sess,
		Diagnoses:  diagnoses,
		Treatments: treatments,
		DrugOrders: orders,
	}, nil
}

// ApplyTreatments records treatments against a session, freezing each
// catalog price at application time.
func (s *Service) ApplyTreatments(ctx context.Context, sessionID int64, treatmentIDs []int64) ([]SessionTreatment, error) {
	if len(treatmentIDs) == 0 {
		return nil, fmt.Errorf("%w: treatment_ids is required", ErrInvalidRequest)
	}

	var applied []SessionTreatment
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
			return err
		}
		var err error
		applied, err = s.repo.AddTreatments(ctx, sessionID, treatmentIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// OrderDrug records a drug order for a session, freezing the unit price
// and decrementing inventory atomically.
func (s *Service) OrderDrug(ctx context.Context, sessionID, drugID int64, quantity int) (*DrugOrder, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
	}

	var order *DrugOrder
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
			return err
		}
		var err error
		order, err = s.repo.AddDrugOrder(ctx, sessionID, drugID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// publishWaitingQueue recomputes the waiting snapshot and pushes it.
// Failures here never surface to the caller.
func (s *Service) publishWaitingQueue(ctx context.Context) {
	entries, err := s.repo.EntriesByStatus(ctx, StatusWaitingConsultation)
	if err != nil {
		s.log.Error().Err(err).Msg("recompute waiting queue snapshot")
		return
	}
	if err := s.broadcaster.PublishWaitingQueue(ctx, entries); err != nil {
		s.log.Error().Err(err).Msg("publish waiting queue")
	}
}

func (s *Service) publishCalled(ctx context.Context, sessionID int64, queueNumber string) {
	if err := s.broadcaster.PublishCalled(ctx, sessionID, queueNumber); err != nil {
		s.log.Error().Err(err).
			Int64("session_id", sessionID).
			Str("queue_number", queueNumber).
			Msg("publish called queue")
	}
}
