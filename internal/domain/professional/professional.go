package professional

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Professional struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`

	FirstName string `gorm:"column:first_name;type:varchar(100);not null"`
	LastName  string `gorm:"column:last_name;type:varchar(100);not null"`
	RUT       string `gorm:"column:rut;type:varchar(12);uniqueIndex"`

	Title     string `gorm:"column:title;type:varchar(100)"` // Psicólogo/a, Psiquiatra
	Specialty string `gorm:"column:specialty;type:varchar(100)"`

	// Standard session price in CLP; the checkout amount for bookings.
	SessionPrice int64 `gorm:"column:session_price;not null;default:0"`

	AcceptsNewPatients bool `gorm:"column:accepts_new_patients;default:true"`
}

func (Professional) TableName() string {
	return "clinical.professionals"
}

func (p *Professional) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
