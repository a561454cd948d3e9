package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/psyconnect/backend/internal/domain/patient"
	"github.com/psyconnect/backend/internal/domain/professional"
)

type GormPatientRepository struct {
	db *gorm.DB
}

func NewGormPatientRepository(db *gorm.DB) *GormPatientRepository {
	return &GormPatientRepository{db: db}
}

var _ patient.Repository = (*GormPatientRepository)(nil)

func (r *GormPatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return patient.ErrPatientAlreadyExists
	}
	return err
}

func (r *GormPatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type GormProfessionalRepository struct {
	db *gorm.DB
}

func NewGormProfessionalRepository(db *gorm.DB) *GormProfessionalRepository {
	return &GormProfessionalRepository{db: db}
}

var _ professional.Repository = (*GormProfessionalRepository)(nil)

func (r *GormProfessionalRepository) GetByID(ctx context.Context, id uuid.UUID) (*professional.Professional, error) {
	var p professional.Professional
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, professional.ErrProfessionalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
