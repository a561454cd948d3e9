package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/psyconnect/backend/internal/domain"
)

// State transitions possibilities:
//
//	draft → paid
//	draft → cancelled
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Invoice is the boleta de honorarios issued once a payment completes.
// NetAmount = BrutAmount - SiiRetention - commission; the commission lives on
// the sibling Payment row and the identity is enforced at issuance time.
type Invoice struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;uniqueIndex"`

	InvoiceNumber string    `gorm:"column:invoice_number;type:varchar(20);not null;uniqueIndex"`
	IssueDate     time.Time `gorm:"column:issue_date;not null"`

	BrutAmount   int64 `gorm:"column:brut_amount;not null"`
	SiiRetention int64 `gorm:"column:sii_retention;not null"`
	NetAmount    int64 `gorm:"column:net_amount;not null"`

	HealthSystem domain.HealthSystem `gorm:"column:health_system;type:varchar(20);not null"`
	Status       InvoiceStatus       `gorm:"column:status;type:varchar(20);not null;default:'draft';index"`

	PaidAt *time.Time `gorm:"column:paid_at"`
}

func (Invoice) TableName() string {
	return "billing.invoices"
}

func (i *Invoice) CanTransitionTo(newStatus InvoiceStatus) bool {
	allowed := map[InvoiceStatus][]InvoiceStatus{
		InvoiceDraft:     {InvoicePaid, InvoiceCancelled},
		InvoicePaid:      {},
		InvoiceCancelled: {},
	}

	for _, s := range allowed[i.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

func (i *Invoice) MarkPaid() error {
	if !i.CanTransitionTo(InvoicePaid) {
		return ErrInvalidInvoiceTransition
	}
	now := time.Now()
	i.Status = InvoicePaid
	i.PaidAt = &now
	return nil
}
