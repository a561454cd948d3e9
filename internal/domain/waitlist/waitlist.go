package waitlist

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadySignedUp = errors.New("this email is already on the waitlist")
	ErrInvalidEmail    = errors.New("invalid email address")
)

// Entry is a pre-launch signup from the public landing page.
type Entry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	Email    string `gorm:"column:email;type:varchar(255);not null;uniqueIndex"`
	FullName string `gorm:"column:full_name;type:varchar(200)"`
	Region   string `gorm:"column:region;type:varchar(100)"`
	Concern  string `gorm:"column:concern;type:text"`

	// Position is the entry's place in the queue, computed at signup time.
	Position int64 `gorm:"-" json:"position"`
}

func (Entry) TableName() string {
	return "clinical.waitlist_entries"
}

type Repository interface {
	// Create persists a signup. Returns ErrAlreadySignedUp on duplicate email.
	Create(ctx context.Context, e *Entry) error
	Count(ctx context.Context) (int64, error)
}
