package reimbursement

import (
	"time"

	"github.com/google/uuid"

	"github.com/psyconnect/backend/internal/domain"
)

// State transitions possibilities:
//
//	draft → submitted            (requires the kit PDF to exist)
//	submitted → processing | approved | rejected
//	processing → approved | rejected
//
// Transitions past draft are administratively driven; this package only
// validates them, it never decides them.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusSubmitted  Status = "submitted"
	StatusProcessing Status = "processing"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusProcessing, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Request bundles a patient's invoiced sessions for one civil month into a
// claim against their Isapre. Appointments reference it through a nullable
// FK with ON DELETE SET NULL: deleting a request detaches its sessions and
// they become selectable again.
type Request struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	Month int `gorm:"column:month;not null"`
	Year  int `gorm:"column:year;not null"`

	TotalAmount            int64 `gorm:"column:total_amount;not null"`
	EstimatedReimbursement int64 `gorm:"column:estimated_reimbursement;not null"`

	HealthSystem       domain.HealthSystem `gorm:"column:health_system;type:varchar(20);not null"`
	IsapreID           *uuid.UUID          `gorm:"column:isapre_id;type:uuid"`
	HasMedicalReferral bool                `gorm:"column:has_medical_referral;default:false"`
	Notes              string              `gorm:"column:notes;type:text"`

	Status      Status     `gorm:"column:status;type:varchar(20);not null;default:'draft';index"`
	KitPdfURL   string     `gorm:"column:kit_pdf_url;type:text"`
	SubmittedAt *time.Time `gorm:"column:submitted_at"`
}

func (Request) TableName() string {
	return "billing.reimbursement_requests"
}

func (r *Request) CanTransitionTo(newStatus Status) bool {
	allowed := map[Status][]Status{
		StatusDraft:      {StatusSubmitted},
		StatusSubmitted:  {StatusProcessing, StatusApproved, StatusRejected},
		StatusProcessing: {StatusApproved, StatusRejected},
		StatusApproved:   {},
		StatusRejected:   {},
	}

	for _, s := range allowed[r.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// Transition applies a validated status change. Draft requests may only be
// submitted once their invoice kit has been generated.
func (r *Request) Transition(target Status) error {
	if !target.IsValid() {
		return ErrInvalidStatus
	}
	if !r.CanTransitionTo(target) {
		return ErrInvalidStatusTransition
	}
	if target == StatusSubmitted {
		if r.KitPdfURL == "" {
			return ErrKitNotGenerated
		}
		now := time.Now()
		r.SubmittedAt = &now
	}
	r.Status = target
	return nil
}

type CreateRequestCommand struct {
	PatientID          uuid.UUID
	AppointmentIDs     []uuid.UUID
	HasMedicalReferral bool
	Notes              string
}

type ListRequestsQuery struct {
	PatientID *uuid.UUID
	Status    *Status
	Year      *int
	Month     *int
	Page      int
	PageSize  int
}

type PagedRequests struct {
	Requests   []*Request
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
