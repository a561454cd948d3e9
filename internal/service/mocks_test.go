package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psyconnect/backend/internal/domain"
	"github.com/psyconnect/backend/internal/domain/appointment"
	"github.com/psyconnect/backend/internal/domain/billing"
	"github.com/psyconnect/backend/internal/domain/patient"
	"github.com/psyconnect/backend/internal/domain/professional"
	"github.com/psyconnect/backend/internal/domain/reimbursement"
)

type mockAppointmentRepo struct {
	CreateFn                       func(ctx context.Context, a *appointment.Appointment) error
	GetByIDFn                      func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	ListFn                         func(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error)
	UpdateStatusFn                 func(ctx context.Context, a *appointment.Appointment) error
	HasConflictFn                  func(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
	FindEligibleForReimbursementFn func(ctx context.Context, patientID uuid.UUID) ([]*appointment.Appointment, error)
	GetManyWithBillingFn           func(ctx context.Context, ids []uuid.UUID) ([]*appointment.Appointment, error)
	FindByProfessionalInWindowFn   func(ctx context.Context, professionalID uuid.UUID, start, end time.Time) ([]*appointment.Appointment, error)
}

func (m *mockAppointmentRepo) Create(ctx context.Context, a *appointment.Appointment) error {
	return m.CreateFn(ctx, a)
}

func (m *mockAppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockAppointmentRepo) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	return m.ListFn(ctx, q)
}

func (m *mockAppointmentRepo) UpdateStatus(ctx context.Context, a *appointment.Appointment) error {
	return m.UpdateStatusFn(ctx, a)
}

func (m *mockAppointmentRepo) HasConflict(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	return m.HasConflictFn(ctx, professionalID, start, end, excludeID)
}

func (m *mockAppointmentRepo) FindEligibleForReimbursement(ctx context.Context, patientID uuid.UUID) ([]*appointment.Appointment, error) {
	return m.FindEligibleForReimbursementFn(ctx, patientID)
}

func (m *mockAppointmentRepo) GetManyWithBilling(ctx context.Context, ids []uuid.UUID) ([]*appointment.Appointment, error) {
	return m.GetManyWithBillingFn(ctx, ids)
}

func (m *mockAppointmentRepo) FindByProfessionalInWindow(ctx context.Context, professionalID uuid.UUID, start, end time.Time) ([]*appointment.Appointment, error) {
	return m.FindByProfessionalInWindowFn(ctx, professionalID, start, end)
}

type mockReimbursementRepo struct {
	CreateAndLinkFn   func(ctx context.Context, r *reimbursement.Request, appointmentIDs []uuid.UUID) error
	GetByIDFn         func(ctx context.Context, id uuid.UUID) (*reimbursement.Request, error)
	ListFn            func(ctx context.Context, q *reimbursement.ListRequestsQuery) (*reimbursement.PagedRequests, error)
	UpdateStatusFn    func(ctx context.Context, r *reimbursement.Request) error
	SetKitPdfURLFn    func(ctx context.Context, id uuid.UUID, url string) error
	DeleteAndUnlinkFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockReimbursementRepo) CreateAndLink(ctx context.Context, r *reimbursement.Request, appointmentIDs []uuid.UUID) error {
	return m.CreateAndLinkFn(ctx, r, appointmentIDs)
}

func (m *mockReimbursementRepo) GetByID(ctx context.Context, id uuid.UUID) (*reimbursement.Request, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockReimbursementRepo) List(ctx context.Context, q *reimbursement.ListRequestsQuery) (*reimbursement.PagedRequests, error) {
	return m.ListFn(ctx, q)
}

func (m *mockReimbursementRepo) UpdateStatus(ctx context.Context, r *reimbursement.Request) error {
	return m.UpdateStatusFn(ctx, r)
}

func (m *mockReimbursementRepo) SetKitPdfURL(ctx context.Context, id uuid.UUID, url string) error {
	return m.SetKitPdfURLFn(ctx, id, url)
}

func (m *mockReimbursementRepo) DeleteAndUnlink(ctx context.Context, id uuid.UUID) error {
	return m.DeleteAndUnlinkFn(ctx, id)
}

type mockPatientRepo struct {
	CreateFn  func(ctx context.Context, p *patient.Patient) error
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

func (m *mockPatientRepo) Create(ctx context.Context, p *patient.Patient) error {
	return m.CreateFn(ctx, p)
}

func (m *mockPatientRepo) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	return m.GetByIDFn(ctx, id)
}

type mockProfessionalRepo struct {
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*professional.Professional, error)
}

func (m *mockProfessionalRepo) GetByID(ctx context.Context, id uuid.UUID) (*professional.Professional, error) {
	return m.GetByIDFn(ctx, id)
}

type mockPaymentRepo struct {
	CreateFn             func(ctx context.Context, p *billing.Payment) error
	GetByIDFn            func(ctx context.Context, id uuid.UUID) (*billing.Payment, error)
	GetByAppointmentIDFn func(ctx context.Context, appointmentID uuid.UUID) (*billing.Payment, error)
	UpdateStatusFn       func(ctx context.Context, p *billing.Payment) error
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *billing.Payment) error {
	return m.CreateFn(ctx, p)
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockPaymentRepo) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*billing.Payment, error) {
	return m.GetByAppointmentIDFn(ctx, appointmentID)
}

func (m *mockPaymentRepo) UpdateStatus(ctx context.Context, p *billing.Payment) error {
	return m.UpdateStatusFn(ctx, p)
}

type mockInvoiceRepo struct {
	CreateFn             func(ctx context.Context, i *billing.Invoice) error
	GetByIDFn            func(ctx context.Context, id uuid.UUID) (*billing.Invoice, error)
	GetByAppointmentIDFn func(ctx context.Context, appointmentID uuid.UUID) (*billing.Invoice, error)
	UpdateStatusFn       func(ctx context.Context, i *billing.Invoice) error
	NextInvoiceNumberFn  func(ctx context.Context) (string, error)
}

func (m *mockInvoiceRepo) Create(ctx context.Context, i *billing.Invoice) error {
	return m.CreateFn(ctx, i)
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockInvoiceRepo) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*billing.Invoice, error) {
	return m.GetByAppointmentIDFn(ctx, appointmentID)
}

func (m *mockInvoiceRepo) UpdateStatus(ctx context.Context, i *billing.Invoice) error {
	return m.UpdateStatusFn(ctx, i)
}

func (m *mockInvoiceRepo) NextInvoiceNumber(ctx context.Context) (string, error) {
	return m.NextInvoiceNumberFn(ctx)
}

type mockUserRepo struct {
	CreateFn              func(ctx context.Context, u *domain.User) error
	GetByEmailFn          func(ctx context.Context, email string) (*domain.User, error)
	GetByIDFn             func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdatePasswordFn      func(ctx context.Context, id uuid.UUID, hash string) error
	SetResetTokenFn       func(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetByResetTokenHashFn func(ctx context.Context, tokenHash string) (*domain.User, error)
	ClearResetTokenFn     func(ctx context.Context, id uuid.UUID) error
	MarkEmailVerifiedFn   func(ctx context.Context, id uuid.UUID) error
	GetByVerifyTokenFn    func(ctx context.Context, tokenHash string) (*domain.User, error)
	UpdateLastLoginFn     func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.CreateFn(ctx, u)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.GetByEmailFn(ctx, email)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return m.UpdatePasswordFn(ctx, id, hash)
}

func (m *mockUserRepo) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return m.SetResetTokenFn(ctx, id, tokenHash, expiresAt)
}

func (m *mockUserRepo) GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	return m.GetByResetTokenHashFn(ctx, tokenHash)
}

func (m *mockUserRepo) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	return m.ClearResetTokenFn(ctx, id)
}

func (m *mockUserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	return m.MarkEmailVerifiedFn(ctx, id)
}

func (m *mockUserRepo) GetByVerifyTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	return m.GetByVerifyTokenFn(ctx, tokenHash)
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	return m.UpdateLastLoginFn(ctx, id)
}

type mockAuditRepo struct {
	CreateFn func(ctx context.Context, entry *domain.AuditLog) error
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, entry)
	}
	return nil
}

func newTestAuditService(t interface{ Cleanup(func()) }) *AuditService {
	svc := NewAuditService(&mockAuditRepo{}, zap.NewNop())
	t.Cleanup(svc.Shutdown)
	return svc
}

func patientClaims(patientID uuid.UUID) *domain.Claims {
	return &domain.Claims{
		UserID:    uuid.New(),
		Role:      domain.RolePatient,
		PatientID: &patientID,
	}
}

func professionalClaims(professionalID uuid.UUID) *domain.Claims {
	return &domain.Claims{
		UserID:         uuid.New(),
		Role:           domain.RoleProfessional,
		ProfessionalID: &professionalID,
	}
}

func adminClaims() *domain.Claims {
	return &domain.Claims{UserID: uuid.New(), Role: domain.RoleAdmin}
}
