package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/psyconnect/backend/internal/domain/waitlist"
)

type GormWaitlistRepository struct {
	db *gorm.DB
}

func NewGormWaitlistRepository(db *gorm.DB) *GormWaitlistRepository {
	return &GormWaitlistRepository{db: db}
}

var _ waitlist.Repository = (*GormWaitlistRepository)(nil)

func (r *GormWaitlistRepository) Create(ctx context.Context, e *waitlist.Entry) error {
	err := r.db.WithContext(ctx).Create(e).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return waitlist.ErrAlreadySignedUp
	}
	return err
}

func (r *GormWaitlistRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&waitlist.Entry{}).Count(&n).Error
	return n, err
}
