package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psyconnect/backend/internal/domain"
	"github.com/psyconnect/backend/internal/domain/appointment"
	"github.com/psyconnect/backend/internal/domain/patient"
	"github.com/psyconnect/backend/internal/domain/reimbursement"
	"github.com/psyconnect/backend/internal/money"
)

// ReimbursementService assembles Isapre reimbursement requests from a
// patient's invoiced sessions and drives the request state machine.
type ReimbursementService struct {
	repo         reimbursement.Repository
	appointments appointment.Repository
	patients     patient.Repository
	coverage     reimbursement.CoverageLookup
	loc          *time.Location
	auditSvc     *AuditService
	log          *zap.Logger
	now          func() time.Time
}

func NewReimbursementService(
	repo reimbursement.Repository,
	appointments appointment.Repository,
	patients patient.Repository,
	coverage reimbursement.CoverageLookup,
	loc *time.Location,
	auditSvc *AuditService,
	log *zap.Logger,
) *ReimbursementService {
	return &ReimbursementService{
		repo:         repo,
		appointments: appointments,
		patients:     patients,
		coverage:     coverage,
		loc:          loc,
		auditSvc:     auditSvc,
		log:          log,
		now:          time.Now,
	}
}

// ListEligible returns the caller's appointments that can still be bundled
// into a request: completed, paid, invoiced, not yet linked.
func (s *ReimbursementService) ListEligible(ctx context.Context, caller *domain.Claims) ([]*appointment.Appointment, error) {
	if caller.Role != domain.RolePatient || caller.PatientID == nil {
		return nil, ErrForbidden
	}
	return s.appointments.FindEligibleForReimbursement(ctx, *caller.PatientID)
}

// CreateRequest validates the whole selection, sums invoice gross amounts,
// estimates the insurer's share through the injected coverage table, and
// persists the draft request with its appointment links in one transaction.
// Selections are all-or-nothing: a single ineligible id rejects everything.
func (s *ReimbursementService) CreateRequest(ctx context.Context, cmd *reimbursement.CreateRequestCommand, caller *domain.Claims, ip string) (*reimbursement.Request, error) {
	if caller.Role != domain.RolePatient || caller.PatientID == nil || *caller.PatientID != cmd.PatientID {
		return nil, ErrForbidden
	}
	if len(cmd.AppointmentIDs) == 0 {
		return nil, reimbursement.ErrEmptySelection
	}

	pat, err := s.patients.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("loading patient: %w", err)
	}

	selected, err := s.appointments.GetManyWithBilling(ctx, cmd.AppointmentIDs)
	if err != nil {
		return nil, fmt.Errorf("loading selection: %w", err)
	}
	byID := make(map[uuid.UUID]*appointment.Appointment, len(selected))
	for _, a := range selected {
		byID[a.ID] = a
	}

	var ineligible []uuid.UUID
	var totalAmount int64
	for _, id := range cmd.AppointmentIDs {
		a, ok := byID[id]
		if !ok || a.PatientID != cmd.PatientID || !a.EligibleForReimbursement() {
			ineligible = append(ineligible, id)
			continue
		}
		totalAmount += a.Invoice.BrutAmount
	}
	if len(ineligible) > 0 {
		return nil, &reimbursement.IneligibleError{AppointmentIDs: ineligible}
	}

	coverageBps, err := s.coverage.CoverageBps(pat.HealthSystem, pat.IsapreID)
	if err != nil {
		return nil, err
	}
	var estimated int64
	if coverageBps > 0 {
		estimated, err = money.ApplyRate(totalAmount, coverageBps)
		if err != nil {
			return nil, fmt.Errorf("estimating reimbursement: %w", err)
		}
	}

	// Requests belong to the civil month they were opened in.
	nowLocal := s.now().In(s.loc)

	req := &reimbursement.Request{
		PatientID:              cmd.PatientID,
		Month:                  int(nowLocal.Month()),
		Year:                   nowLocal.Year(),
		TotalAmount:            totalAmount,
		EstimatedReimbursement: estimated,
		HealthSystem:           pat.HealthSystem,
		IsapreID:               pat.IsapreID,
		HasMedicalReferral:     cmd.HasMedicalReferral,
		Notes:                  cmd.Notes,
		Status:                 reimbursement.StatusDraft,
	}

	if err := s.repo.CreateAndLink(ctx, req, cmd.AppointmentIDs); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "create", ResourceType: "reimbursement_request", ResourceID: req.ID.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"appointments":%d,"total_amount":%d}`, len(cmd.AppointmentIDs), totalAmount),
	})

	return req, nil
}

func (s *ReimbursementService) GetRequest(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*reimbursement.Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(req, caller); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *ReimbursementService) ListRequests(ctx context.Context, q *reimbursement.ListRequestsQuery, caller *domain.Claims) (*reimbursement.PagedRequests, error) {
	switch caller.Role {
	case domain.RoleAdmin:
	case domain.RolePatient:
		q.PatientID = caller.PatientID
	default:
		return nil, ErrForbidden
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

// AttachKit records the generated invoice-bundle PDF on a draft request. The
// kit is a precondition for submission; PDF rendering itself is external.
func (s *ReimbursementService) AttachKit(ctx context.Context, id uuid.UUID, kitPdfURL string, caller *domain.Claims) (*reimbursement.Request, error) {
	if kitPdfURL == "" {
		return nil, &ValidationError{Fields: []string{"kitPdfUrl is required"}}
	}
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(req, caller); err != nil {
		return nil, err
	}
	if req.Status != reimbursement.StatusDraft {
		return nil, reimbursement.ErrInvalidStatusTransition
	}
	if err := s.repo.SetKitPdfURL(ctx, id, kitPdfURL); err != nil {
		return nil, err
	}
	req.KitPdfURL = kitPdfURL
	return req, nil
}

// Transition moves a request through its state machine. Post-draft states are
// decided by the insurer's back office; this only validates and records them.
func (s *ReimbursementService) Transition(ctx context.Context, id uuid.UUID, target reimbursement.Status, caller *domain.Claims, ip string) (*reimbursement.Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(req, caller); err != nil {
		return nil, err
	}

	from := req.Status
	if err := req.Transition(target); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, req); err != nil {
		return nil, fmt.Errorf("updating request status: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "reimbursement_request", ResourceID: id.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"status":{"from":"%s","to":"%s"}}`, from, target),
	})

	return req, nil
}

// DeleteRequest removes a draft request and detaches its appointments, making
// them eligible for a future selection again.
func (s *ReimbursementService) DeleteRequest(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) error {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(req, caller); err != nil {
		return err
	}
	if req.Status != reimbursement.StatusDraft {
		return reimbursement.ErrNotDeletable
	}
	if err := s.repo.DeleteAndUnlink(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "delete", ResourceType: "reimbursement_request", ResourceID: id.String(), IPAddress: ip,
	})

	return nil
}

// authorize: only the owning patient or an admin may touch a request.
// Professionals never see reimbursement state.
func (s *ReimbursementService) authorize(req *reimbursement.Request, caller *domain.Claims) error {
	switch caller.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RolePatient:
		if caller.PatientID != nil && *caller.PatientID == req.PatientID {
			return nil
		}
	}
	return ErrForbidden
}
