package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psyconnect/backend/internal/config"
	"github.com/psyconnect/backend/internal/domain"
	"github.com/psyconnect/backend/internal/domain/appointment"
	"github.com/psyconnect/backend/internal/domain/billing"
	"github.com/psyconnect/backend/internal/domain/patient"
	"github.com/psyconnect/backend/internal/money"
)

// BillingService owns the payment lifecycle and invoice issuance. An invoice
// is created exactly once, at the moment its payment completes.
type BillingService struct {
	payments     billing.PaymentRepository
	invoices     billing.InvoiceRepository
	appointments appointment.Repository
	patients     patient.Repository
	cfg          config.BillingConfig
	auditSvc     *AuditService
	log          *zap.Logger
}

func NewBillingService(
	payments billing.PaymentRepository,
	invoices billing.InvoiceRepository,
	appointments appointment.Repository,
	patients patient.Repository,
	cfg config.BillingConfig,
	auditSvc *AuditService,
	log *zap.Logger,
) *BillingService {
	return &BillingService{
		payments:     payments,
		invoices:     invoices,
		appointments: appointments,
		patients:     patients,
		cfg:          cfg,
		auditSvc:     auditSvc,
		log:          log,
	}
}

type CreatePaymentCommand struct {
	AppointmentID uuid.UUID
	Amount        int64
	Method        billing.PaymentMethod
}

func (s *BillingService) CreatePayment(ctx context.Context, cmd *CreatePaymentCommand, caller *domain.Claims, ip string) (*billing.Payment, error) {
	if !cmd.Method.IsValid() {
		return nil, billing.ErrInvalidPaymentMethod
	}

	a, err := s.appointments.GetByID(ctx, cmd.AppointmentID)
	if err != nil {
		return nil, err
	}
	if caller.Role == domain.RolePatient {
		if caller.PatientID == nil || *caller.PatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}

	commission, err := money.Commission(cmd.Amount, s.cfg.CommissionBps)
	if err != nil {
		return nil, &ValidationError{Fields: []string{"amount: " + err.Error()}}
	}

	p := &billing.Payment{
		AppointmentID: cmd.AppointmentID,
		Amount:        cmd.Amount,
		Currency:      "CLP",
		Method:        cmd.Method,
		Status:        billing.PaymentPending,
		Commission:    commission,
	}

	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "create", ResourceType: "payment", ResourceID: p.ID.String(), IPAddress: ip,
	})

	return p, nil
}

// CompletePayment marks a checkout as settled and issues the invoice for it.
// The invoice carries the SII retention; its net is gross minus retention
// minus the payment's commission.
func (s *BillingService) CompletePayment(ctx context.Context, paymentID uuid.UUID, caller *domain.Claims, ip string) (*billing.Payment, *billing.Invoice, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorizeSettlement(ctx, p, caller); err != nil {
		return nil, nil, err
	}

	if err := p.Complete(); err != nil {
		return nil, nil, err
	}
	if err := s.payments.UpdateStatus(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("updating payment status: %w", err)
	}

	inv, err := s.issueInvoice(ctx, p)
	if err != nil {
		s.log.Error("invoice issuance failed after payment completion",
			zap.String("payment_id", p.ID.String()),
			zap.Error(err),
		)
		return nil, nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "payment", ResourceID: p.ID.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"status":"completed","invoice":"%s"}`, inv.InvoiceNumber),
	})

	return p, inv, nil
}

func (s *BillingService) FailPayment(ctx context.Context, paymentID uuid.UUID, caller *domain.Claims) (*billing.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeSettlement(ctx, p, caller); err != nil {
		return nil, err
	}
	if err := p.Fail(); err != nil {
		return nil, err
	}
	if err := s.payments.UpdateStatus(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// authorizeSettlement gates payment state changes: only an admin or the
// patient the payment belongs to may settle or fail it.
func (s *BillingService) authorizeSettlement(ctx context.Context, p *billing.Payment, caller *domain.Claims) error {
	if caller.Role == domain.RoleAdmin {
		return nil
	}
	if caller.Role != domain.RolePatient {
		return ErrForbidden
	}
	a, err := s.appointments.GetByID(ctx, p.AppointmentID)
	if err != nil {
		return err
	}
	if caller.PatientID == nil || *caller.PatientID != a.PatientID {
		return ErrForbidden
	}
	return nil
}

func (s *BillingService) GetInvoice(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*billing.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role == domain.RoleAdmin {
		return inv, nil
	}
	a, err := s.appointments.GetByID(ctx, inv.AppointmentID)
	if err != nil {
		return nil, err
	}
	switch caller.Role {
	case domain.RolePatient:
		if caller.PatientID == nil || *caller.PatientID != a.PatientID {
			return nil, ErrForbidden
		}
	case domain.RoleProfessional:
		if caller.ProfessionalID == nil || *caller.ProfessionalID != a.ProfessionalID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}
	return inv, nil
}

func (s *BillingService) issueInvoice(ctx context.Context, p *billing.Payment) (*billing.Invoice, error) {
	a, err := s.appointments.GetByID(ctx, p.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("loading appointment for invoice: %w", err)
	}
	pat, err := s.patients.GetByID(ctx, a.PatientID)
	if err != nil {
		return nil, fmt.Errorf("loading patient for invoice: %w", err)
	}

	retention, err := money.Retention(p.Amount, s.cfg.RetentionBps)
	if err != nil {
		return nil, fmt.Errorf("computing retention: %w", err)
	}

	number, err := s.invoices.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserving invoice number: %w", err)
	}

	inv := &billing.Invoice{
		AppointmentID: p.AppointmentID,
		InvoiceNumber: number,
		IssueDate:     time.Now(),
		BrutAmount:    p.Amount,
		SiiRetention:  retention,
		NetAmount:     money.InvoiceNet(p.Amount, p.Commission, retention),
		HealthSystem:  pat.HealthSystem,
		Status:        billing.InvoiceDraft,
	}

	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}
