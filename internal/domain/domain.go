package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleProfessional Role = "professional"
	RolePatient      Role = "patient"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleProfessional, RolePatient:
		return true
	}
	return false
}

// HealthSystem identifies how a patient is insured in Chile. Isapre patients
// can claim partial reimbursement of therapy invoices; Fonasa and uninsured
// (particular) patients cannot, but still receive invoices.
type HealthSystem string

const (
	HealthSystemFonasa     HealthSystem = "fonasa"
	HealthSystemIsapre     HealthSystem = "isapre"
	HealthSystemParticular HealthSystem = "particular"
)

func (h HealthSystem) IsValid() bool {
	switch h {
	case HealthSystemFonasa, HealthSystemIsapre, HealthSystemParticular:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null"`
	FirstName    string `gorm:"column:first_name;type:varchar(100);not null"`
	LastName     string `gorm:"column:last_name;type:varchar(100);not null"`
	Role         Role   `gorm:"column:role;type:varchar(30);not null;index"`

	// For professional role, links to their professional record
	ProfessionalID *uuid.UUID `gorm:"column:professional_id;type:uuid;index"`
	// For patient role, links to their patient record
	PatientID *uuid.UUID `gorm:"column:patient_id;type:uuid;index"`

	IsActive      bool       `gorm:"column:is_active;default:true;index"`
	EmailVerified bool       `gorm:"column:email_verified;default:false"`
	LastLoginAt   *time.Time `gorm:"column:last_login_at"`

	// Single-use tokens (password reset, email verification) are stored as
	// SHA-256 digests so a database leak does not expose live tokens.
	ResetTokenHash      string     `gorm:"column:reset_token_hash;type:varchar(64);index"`
	ResetTokenExpiresAt *time.Time `gorm:"column:reset_token_expires_at"`
	VerifyTokenHash     string     `gorm:"column:verify_token_hash;type:varchar(64);index"`
}

func (User) TableName() string {
	return "auth.users"
}

type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionRead   AuditAction = "read"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
	ActionLogin  AuditAction = "login"
	ActionLogout AuditAction = "logout"
)

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	// Who
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	UserRole  Role      `gorm:"column:user_role;type:varchar(30);not null"`
	IPAddress string    `gorm:"column:ip_address;type:varchar(45)"` // Supports IPv6

	// What
	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index"`

	RequestID  string `gorm:"column:request_id;type:varchar(50);index"`
	UserAgent  string `gorm:"column:user_agent;type:text"`
	StatusCode int    `gorm:"column:status_code"`

	Changes string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "audit.logs"
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

type Claims struct {
	UserID         uuid.UUID  `json:"sub"`
	Email          string     `json:"email"`
	Role           Role       `json:"role"`
	ProfessionalID *uuid.UUID `json:"professional_id,omitempty"`
	PatientID      *uuid.UUID `json:"patient_id,omitempty"`
}
