package billing

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	MethodWebpay   PaymentMethod = "webpay"
	MethodTransfer PaymentMethod = "transfer"
	MethodCard     PaymentMethod = "card"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodWebpay, MethodTransfer, MethodCard:
		return true
	}
	return false
}

// State transitions possibilities:
//
//	pending → completed
//	pending → failed
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment records a patient's checkout for a single appointment. Amounts are
// integer Chilean pesos; Commission is withheld by the platform and the
// invariant commission <= amount holds for every persisted row.
type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;uniqueIndex"`

	Amount     int64         `gorm:"column:amount;not null"`
	Currency   string        `gorm:"column:currency;type:varchar(3);not null;default:'CLP'"`
	Method     PaymentMethod `gorm:"column:method;type:varchar(20);not null"`
	Status     PaymentStatus `gorm:"column:status;type:varchar(20);not null;default:'pending';index"`
	Commission int64         `gorm:"column:commission;not null"`

	PaidAt *time.Time `gorm:"column:paid_at"`
}

func (Payment) TableName() string {
	return "billing.payments"
}

func (p *Payment) CanTransitionTo(newStatus PaymentStatus) bool {
	allowed := map[PaymentStatus][]PaymentStatus{
		PaymentPending:   {PaymentCompleted, PaymentFailed},
		PaymentCompleted: {},
		PaymentFailed:    {},
	}

	for _, s := range allowed[p.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// NetAmount is the professional's share of the payment: gross minus the
// platform commission. Derived, never stored.
func (p *Payment) NetAmount() int64 {
	return p.Amount - p.Commission
}

func (p *Payment) Complete() error {
	if !p.CanTransitionTo(PaymentCompleted) {
		return ErrInvalidPaymentTransition
	}
	now := time.Now()
	p.Status = PaymentCompleted
	p.PaidAt = &now
	return nil
}

func (p *Payment) Fail() error {
	if !p.CanTransitionTo(PaymentFailed) {
		return ErrInvalidPaymentTransition
	}
	p.Status = PaymentFailed
	return nil
}
