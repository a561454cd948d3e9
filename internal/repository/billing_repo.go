package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/psyconnect/backend/internal/domain/billing"
)

type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)

func (r *GormPaymentRepository) Create(ctx context.Context, p *billing.Payment) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return billing.ErrPaymentAlreadyExists
	}
	return err
}

func (r *GormPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var p billing.Payment
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*billing.Payment, error) {
	var p billing.Payment
	err := r.db.WithContext(ctx).First(&p, "appointment_id = ?", appointmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) UpdateStatus(ctx context.Context, p *billing.Payment) error {
	return r.db.WithContext(ctx).Model(p).
		Select("status", "paid_at").
		Updates(p).Error
}

type GormInvoiceRepository struct {
	db *gorm.DB
}

func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)

func (r *GormInvoiceRepository) Create(ctx context.Context, i *billing.Invoice) error {
	err := r.db.WithContext(ctx).Create(i).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return billing.ErrInvoiceAlreadyExists
	}
	return err
}

func (r *GormInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var i billing.Invoice
	err := r.db.WithContext(ctx).First(&i, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *GormInvoiceRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*billing.Invoice, error) {
	var i billing.Invoice
	err := r.db.WithContext(ctx).First(&i, "appointment_id = ?", appointmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *GormInvoiceRepository) UpdateStatus(ctx context.Context, i *billing.Invoice) error {
	return r.db.WithContext(ctx).Model(i).
		Select("status", "paid_at").
		Updates(i).Error
}

// NextInvoiceNumber draws from a dedicated database sequence so concurrent
// payment completions never issue the same folio.
func (r *GormInvoiceRepository) NextInvoiceNumber(ctx context.Context) (string, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Raw("SELECT nextval('billing.invoice_number_seq')").
		Scan(&n).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("F-%06d", n), nil
}
