package billing

import (
	"context"

	"github.com/google/uuid"
)

type PaymentRepository interface {
	// Create persists a new payment. Returns ErrPaymentAlreadyExists when the
	// appointment already has one (unique appointment_id).
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Payment, error)
	UpdateStatus(ctx context.Context, p *Payment) error
}

type InvoiceRepository interface {
	// Create persists a new invoice. Returns ErrInvoiceAlreadyExists when the
	// appointment already has one.
	Create(ctx context.Context, i *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error)
	UpdateStatus(ctx context.Context, i *Invoice) error

	// NextInvoiceNumber reserves the next value of the folio sequence,
	// formatted F-%06d. Backed by a database sequence so concurrent issuers
	// never collide.
	NextInvoiceNumber(ctx context.Context) (string, error)
}
