package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/psyconnect/backend/internal/domain/billing"
)

type Modality string

const (
	ModalityOnline   Modality = "online"
	ModalityInPerson Modality = "in_person"
)

func (m Modality) IsValid() bool {
	switch m {
	case ModalityOnline, ModalityInPerson:
		return true
	}
	return false
}

// State transitions possibilities:
//
//	scheduled → confirmed → completed
//	scheduled → cancelled
//	confirmed → cancelled
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	PatientID      uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	ProfessionalID uuid.UUID `gorm:"column:professional_id;type:uuid;not null;index"`

	ScheduledAt  time.Time `gorm:"column:scheduled_at;not null;index"`
	DurationMins int       `gorm:"column:duration_mins;not null;default:50"`
	Modality     Modality  `gorm:"column:modality;type:varchar(20);not null"`
	Status       Status    `gorm:"column:status;type:varchar(30);not null;default:'scheduled';index"`

	ConsultationReason string `gorm:"column:consultation_reason;type:text"`

	// Set exactly once when the patient bundles this session into a
	// reimbursement request; cleared when that request is deleted.
	ReimbursementRequestID *uuid.UUID `gorm:"column:reimbursement_request_id;type:uuid;index;constraint:OnDelete:SET NULL"`

	// Cancellation tracking
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancellationReason string     `gorm:"column:cancellation_reason;type:text"`
	CancelledBy        *uuid.UUID `gorm:"column:cancelled_by;type:uuid"`

	CompletedAt *time.Time `gorm:"column:completed_at"`

	// Populated by repository queries that join billing rows; nil otherwise.
	Payment *billing.Payment `gorm:"foreignKey:AppointmentID"`
	Invoice *billing.Invoice `gorm:"foreignKey:AppointmentID"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

func (a *Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMins) * time.Minute)
}

func (a *Appointment) CanTransitionTo(newStatus Status) bool {
	allowed := map[Status][]Status{
		StatusScheduled: {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusCompleted, StatusCancelled},
		StatusCompleted: {},
		StatusCancelled: {},
	}

	for _, s := range allowed[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

func (a *Appointment) Cancel(reason string, cancelledBy uuid.UUID) error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.CancelledBy = &cancelledBy
	return nil
}

func (a *Appointment) Complete() error {
	if !a.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCompleted
	a.CompletedAt = &now
	return nil
}

// EligibleForReimbursement reports whether this session can still be bundled
// into a reimbursement request: completed, paid, invoiced, and not yet linked.
func (a *Appointment) EligibleForReimbursement() bool {
	return a.Status == StatusCompleted &&
		a.Payment != nil && a.Payment.Status == billing.PaymentCompleted &&
		a.Invoice != nil &&
		a.ReimbursementRequestID == nil
}

type BookAppointmentCommand struct {
	PatientID          uuid.UUID
	ProfessionalID     uuid.UUID
	ScheduledAt        time.Time
	DurationMins       int
	Modality           Modality
	ConsultationReason string
}

type CancelAppointmentCommand struct {
	Reason      string
	CancelledBy uuid.UUID
}

type ListAppointmentsQuery struct {
	PatientID      *uuid.UUID
	ProfessionalID *uuid.UUID
	Status         *Status
	DateFrom       *time.Time
	DateTo         *time.Time
	Page           int
	PageSize       int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}
