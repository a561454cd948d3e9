package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/psyconnect/backend/internal/domain"
	"github.com/psyconnect/backend/internal/domain/patient"
	"github.com/psyconnect/backend/pkg/auth"
)

const resetTokenTTL = time.Hour

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.User, error)
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	GetByVerifyTokenHash(ctx context.Context, tokenHash string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// Mailer delivers transactional email. Delivery itself is an external
// collaborator; a zap-backed implementation ships for development.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, token string) error
	SendEmailVerification(ctx context.Context, to, token string) error
}

type LogMailer struct {
	Log *zap.Logger
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	m.Log.Info("password reset email", zap.String("to", to), zap.String("token", token))
	return nil
}

func (m *LogMailer) SendEmailVerification(ctx context.Context, to, token string) error {
	m.Log.Info("verification email", zap.String("to", to), zap.String("token", token))
	return nil
}

type AuthService struct {
	userRepo   UserRepository
	patients   patient.Repository
	jwtManager *auth.JWTManager
	mailer     Mailer
	log        *zap.Logger
}

func NewAuthService(userRepo UserRepository, patients patient.Repository, jwtManager *auth.JWTManager, mailer Mailer, log *zap.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, patients: patients, jwtManager: jwtManager, mailer: mailer, log: log}
}

type RegisterPatientCommand struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	RUT          string
	DateOfBirth  time.Time
	Phone        string
	Region       string
	HealthSystem domain.HealthSystem
	IsapreID     *uuid.UUID
}

// RegisterPatient provisions a patient account: the auth user, its clinical
// profile, and the email-verification token consumed by VerifyEmail.
func (s *AuthService) RegisterPatient(ctx context.Context, cmd *RegisterPatientCommand) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &ValidationError{Fields: []string{"email is not a valid address"}}
	}
	if err := validatePasswordStrength(cmd.Password); err != nil {
		return nil, err
	}
	if cmd.FirstName == "" || cmd.LastName == "" {
		return nil, &ValidationError{Fields: []string{"firstName and lastName are required"}}
	}
	if !cmd.HealthSystem.IsValid() {
		return nil, patient.ErrInvalidHealthSystem
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	token, tokenHash, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generating verification token: %w", err)
	}

	userID := uuid.New()
	p := patient.New(patient.CreatePatientCommand{
		UserID:       userID,
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		RUT:          cmd.RUT,
		DateOfBirth:  cmd.DateOfBirth,
		Phone:        cmd.Phone,
		Email:        email,
		Region:       cmd.Region,
		HealthSystem: cmd.HealthSystem,
		IsapreID:     cmd.IsapreID,
	})
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}

	u := &domain.User{
		ID:              userID,
		Email:           email,
		PasswordHash:    string(hash),
		FirstName:       cmd.FirstName,
		LastName:        cmd.LastName,
		Role:            domain.RolePatient,
		PatientID:       &p.ID,
		IsActive:        true,
		VerifyTokenHash: tokenHash,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	if err := s.mailer.SendEmailVerification(ctx, u.Email, token); err != nil {
		s.log.Error("failed to send verification email", zap.Error(err))
	}

	s.log.Info("patient registered",
		zap.String("user_id", u.ID.String()),
		zap.String("patient_id", p.ID.String()),
	)

	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string, ip string) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Use bcrypt dummy hash to prevent timing-based user enumeration.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("failed login attempt",
			zap.String("email", email),
			zap.String("ip", ip),
		)
		return nil, ErrInvalidCredentials
	}

	_ = s.userRepo.UpdateLastLogin(ctx, user.ID)

	pair, err := s.jwtManager.GenerateTokenPair(claimsFor(user))
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("ip", ip),
	)

	return pair, nil
}

// RefreshToken issues a new access token given a valid refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Re-validate user is still active
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.jwtManager.GenerateTokenPair(claimsFor(user))
}

// ChangePassword updates a user's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if err := validatePasswordStrength(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

// RequestPasswordReset issues a single-use reset token and mails it. It
// reports success whether or not the email exists: the response must never
// reveal which addresses are registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		s.log.Debug("password reset requested for unknown email", zap.String("email", email))
		return nil
	}

	token, tokenHash, err := newToken()
	if err != nil {
		return fmt.Errorf("generating reset token: %w", err)
	}

	if err := s.userRepo.SetResetToken(ctx, user.ID, tokenHash, time.Now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("storing reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		// Mailer failures are logged, not surfaced: surfacing them would
		// still leak which emails exist.
		s.log.Error("failed to send reset email", zap.Error(err))
	}

	return nil
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := validatePasswordStrength(newPassword); err != nil {
		return err
	}

	tokenHash := hashToken(token)
	user, err := s.userRepo.GetByResetTokenHash(ctx, tokenHash)
	if err != nil {
		return ErrInvalidResetToken
	}
	if user.ResetTokenExpiresAt == nil || time.Now().After(*user.ResetTokenExpiresAt) {
		return ErrInvalidResetToken
	}
	if subtle.ConstantTimeCompare([]byte(user.ResetTokenHash), []byte(tokenHash)) != 1 {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	return s.userRepo.ClearResetToken(ctx, user.ID)
}

// VerifyEmail consumes a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.userRepo.GetByVerifyTokenHash(ctx, hashToken(token))
	if err != nil {
		return ErrInvalidResetToken
	}
	return s.userRepo.MarkEmailVerified(ctx, user.ID)
}

func claimsFor(user *domain.User) *domain.Claims {
	return &domain.Claims{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		ProfessionalID: user.ProfessionalID,
		PatientID:      user.PatientID,
	}
}

func newToken() (token, tokenHash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(raw)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func validatePasswordStrength(password string) error {
	if len(password) < 12 {
		return errors.New("password must be at least 12 characters")
	}
	return nil
}
