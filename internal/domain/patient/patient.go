package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/psyconnect/backend/internal/domain"
)

// Status represents the lifecycle state of a patient record.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"` // Soft Delete

	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`

	FirstName   string    `gorm:"column:first_name;type:varchar(100);not null"`
	LastName    string    `gorm:"column:last_name;type:varchar(100);not null"`
	RUT         string    `gorm:"column:rut;type:varchar(12);uniqueIndex"`
	DateOfBirth time.Time `gorm:"column:date_of_birth"`

	Phone  string `gorm:"column:phone;type:varchar(20)"`
	Email  string `gorm:"column:email;type:varchar(255)"`
	Region string `gorm:"column:region;type:varchar(100)"`

	// Insurance: drives invoice stamping and reimbursement coverage.
	HealthSystem domain.HealthSystem `gorm:"column:health_system;type:varchar(20);not null;default:'particular'"`
	IsapreID     *uuid.UUID          `gorm:"column:isapre_id;type:uuid"`

	Status Status `gorm:"column:status;type:varchar(20);default:'active';index"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *Patient) IsActive() bool {
	return p.Status == StatusActive && p.DeletedAt == nil
}

type CreatePatientCommand struct {
	UserID       uuid.UUID
	FirstName    string
	LastName     string
	RUT          string
	DateOfBirth  time.Time
	Phone        string
	Email        string
	Region       string
	HealthSystem domain.HealthSystem
	IsapreID     *uuid.UUID
}

// New builds an active patient record from a create command.
func New(cmd CreatePatientCommand) *Patient {
	return &Patient{
		UserID:       cmd.UserID,
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		RUT:          cmd.RUT,
		DateOfBirth:  cmd.DateOfBirth,
		Phone:        cmd.Phone,
		Email:        cmd.Email,
		Region:       cmd.Region,
		HealthSystem: cmd.HealthSystem,
		IsapreID:     cmd.IsapreID,
		Status:       StatusActive,
	}
}
