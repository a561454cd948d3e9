package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/psyconnect/backend/internal/domain/appointment"
	"github.com/psyconnect/backend/internal/domain/billing"
)

type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

var _ appointment.Repository = (*GormAppointmentRepository)(nil)

func (r *GormAppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *GormAppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appointment.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAppointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	db := r.db.WithContext(ctx).Model(&appointment.Appointment{})

	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.ProfessionalID != nil {
		db = db.Where("professional_id = ?", *q.ProfessionalID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.DateFrom != nil {
		db = db.Where("scheduled_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		db = db.Where("scheduled_at < ?", *q.DateTo)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []*appointment.Appointment
	offset := (q.Page - 1) * q.PageSize
	err := db.Order("scheduled_at DESC").Offset(offset).Limit(q.PageSize).Find(&items).Error
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	return &appointment.PagedAppointments{
		Appointments: items,
		TotalCount:   total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   totalPages,
	}, nil
}

func (r *GormAppointmentRepository) UpdateStatus(ctx context.Context, a *appointment.Appointment) error {
	return r.db.WithContext(ctx).Model(a).
		Select("status", "cancelled_at", "cancellation_reason", "cancelled_by", "completed_at").
		Updates(a).Error
}

func (r *GormAppointmentRepository) HasConflict(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	db := r.db.WithContext(ctx).Model(&appointment.Appointment{}).
		Where("professional_id = ?", professionalID).
		Where("status NOT IN ?", []appointment.Status{appointment.StatusCancelled}).
		Where("scheduled_at < ? AND (scheduled_at + (duration_mins || ' minutes')::interval) > ?", end, start)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormAppointmentRepository) FindEligibleForReimbursement(ctx context.Context, patientID uuid.UUID) ([]*appointment.Appointment, error) {
	var items []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Preload("Payment").
		Preload("Invoice").
		Joins("JOIN billing.payments p ON p.appointment_id = clinical.appointments.id AND p.status = ?", billing.PaymentCompleted).
		Joins("JOIN billing.invoices i ON i.appointment_id = clinical.appointments.id").
		Where("clinical.appointments.patient_id = ?", patientID).
		Where("clinical.appointments.status = ?", appointment.StatusCompleted).
		Where("clinical.appointments.reimbursement_request_id IS NULL").
		Order("clinical.appointments.scheduled_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormAppointmentRepository) GetManyWithBilling(ctx context.Context, ids []uuid.UUID) ([]*appointment.Appointment, error) {
	var items []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Preload("Payment").
		Preload("Invoice").
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormAppointmentRepository) FindByProfessionalInWindow(ctx context.Context, professionalID uuid.UUID, start, end time.Time) ([]*appointment.Appointment, error) {
	var items []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Preload("Payment").
		Where("professional_id = ?", professionalID).
		Where("scheduled_at >= ? AND scheduled_at < ?", start, end).
		Order("scheduled_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
