package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/psyconnect/backend/internal/domain/appointment"
	"github.com/psyconnect/backend/internal/domain/reimbursement"
)

type GormReimbursementRepository struct {
	db *gorm.DB
}

func NewGormReimbursementRepository(db *gorm.DB) *GormReimbursementRepository {
	return &GormReimbursementRepository{db: db}
}

var _ reimbursement.Repository = (*GormReimbursementRepository)(nil)

// CreateAndLink inserts the request and claims its appointments in one
// transaction. The link update is conditional on reimbursement_request_id
// still being NULL: if two selections race on the same appointment, exactly
// one sees RowsAffected == len(ids) and the loser rolls back with
// ErrAlreadyLinked.
func (r *GormReimbursementRepository) CreateAndLink(ctx context.Context, req *reimbursement.Request, appointmentIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(req).Error; err != nil {
			return err
		}

		res := tx.Model(&appointment.Appointment{}).
			Where("id IN ? AND reimbursement_request_id IS NULL", appointmentIDs).
			Update("reimbursement_request_id", req.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(appointmentIDs)) {
			return appointment.ErrAlreadyLinked
		}
		return nil
	})
}

func (r *GormReimbursementRepository) GetByID(ctx context.Context, id uuid.UUID) (*reimbursement.Request, error) {
	var req reimbursement.Request
	err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, reimbursement.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *GormReimbursementRepository) List(ctx context.Context, q *reimbursement.ListRequestsQuery) (*reimbursement.PagedRequests, error) {
	db := r.db.WithContext(ctx).Model(&reimbursement.Request{})

	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.Year != nil {
		db = db.Where("year = ?", *q.Year)
	}
	if q.Month != nil {
		db = db.Where("month = ?", *q.Month)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []*reimbursement.Request
	offset := (q.Page - 1) * q.PageSize
	if err := db.Order("created_at DESC").Offset(offset).Limit(q.PageSize).Find(&items).Error; err != nil {
		return nil, err
	}

	totalPages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	return &reimbursement.PagedRequests{
		Requests:   items,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}, nil
}

func (r *GormReimbursementRepository) UpdateStatus(ctx context.Context, req *reimbursement.Request) error {
	return r.db.WithContext(ctx).Model(req).
		Select("status", "submitted_at").
		Updates(req).Error
}

// SetKitPdfURL attaches the kit only while the request is still draft. The
// status predicate guards against a concurrent submit between the service's
// read and this write.
func (r *GormReimbursementRepository) SetKitPdfURL(ctx context.Context, id uuid.UUID, url string) error {
	res := r.db.WithContext(ctx).Model(&reimbursement.Request{}).
		Where("id = ? AND status = ?", id, reimbursement.StatusDraft).
		Update("kit_pdf_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reimbursement.ErrInvalidStatusTransition
	}
	return nil
}

func (r *GormReimbursementRepository) DeleteAndUnlink(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&appointment.Appointment{}).
			Where("reimbursement_request_id = ?", id).
			Update("reimbursement_request_id", nil).Error; err != nil {
			return err
		}

		res := tx.Delete(&reimbursement.Request{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return reimbursement.ErrRequestNotFound
		}
		return nil
	})
}
