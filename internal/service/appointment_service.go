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
	"github.com/psyconnect/backend/internal/domain/professional"
)

type AppointmentService struct {
	repo     appointment.Repository
	patients patient.Repository
	pros     professional.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewAppointmentService(
	repo appointment.Repository,
	patients patient.Repository,
	pros professional.Repository,
	auditSvc *AuditService,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{repo: repo, patients: patients, pros: pros, auditSvc: auditSvc, log: log}
}

func (s *AppointmentService) BookAppointment(
	ctx context.Context,
	cmd *appointment.BookAppointmentCommand,
	caller *domain.Claims,
	ip string,
) (*appointment.Appointment, error) {
	if cmd.ScheduledAt.Before(time.Now()) {
		return nil, appointment.ErrScheduledInPast
	}
	if cmd.DurationMins < 20 || cmd.DurationMins > 120 {
		return nil, appointment.ErrInvalidDuration
	}
	if !cmd.Modality.IsValid() {
		return nil, appointment.ErrInvalidModality
	}
	if caller.Role == domain.RolePatient {
		if caller.PatientID == nil || *caller.PatientID != cmd.PatientID {
			return nil, ErrForbidden
		}
	}

	p, err := s.patients.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}
	if !p.IsActive() {
		return nil, patient.ErrPatientInactive
	}

	pro, err := s.pros.GetByID(ctx, cmd.ProfessionalID)
	if err != nil {
		return nil, fmt.Errorf("verifying professional: %w", err)
	}
	if !pro.AcceptsNewPatients {
		return nil, professional.ErrNotAcceptingPatients
	}

	endsAt := cmd.ScheduledAt.Add(time.Duration(cmd.DurationMins) * time.Minute)
	conflict, err := s.repo.HasConflict(ctx, cmd.ProfessionalID, cmd.ScheduledAt, endsAt, nil)
	if err != nil {
		return nil, fmt.Errorf("checking conflicts: %w", err)
	}
	if conflict {
		return nil, appointment.ErrAppointmentConflict
	}

	a := &appointment.Appointment{
		PatientID:          cmd.PatientID,
		ProfessionalID:     cmd.ProfessionalID,
		ScheduledAt:        cmd.ScheduledAt,
		DurationMins:       cmd.DurationMins,
		Modality:           cmd.Modality,
		Status:             appointment.StatusScheduled,
		ConsultationReason: cmd.ConsultationReason,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "create",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
	})

	return a, nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(a, caller); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AppointmentService) ConfirmAppointment(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(a, caller); err != nil {
		return nil, err
	}
	if !a.CanTransitionTo(appointment.StatusConfirmed) {
		return nil, appointment.ErrInvalidStatusTransition
	}
	a.Status = appointment.StatusConfirmed
	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AppointmentService) CompleteAppointment(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Only the treating professional or an admin marks a session done.
	if caller.Role == domain.RolePatient {
		return nil, ErrForbidden
	}
	if caller.Role == domain.RoleProfessional {
		if caller.ProfessionalID == nil || *caller.ProfessionalID != a.ProfessionalID {
			return nil, ErrForbidden
		}
	}
	if err := a.Complete(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AppointmentService) CancelAppointment(ctx context.Context, id uuid.UUID, cmd *appointment.CancelAppointmentCommand, caller *domain.Claims, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(a, caller); err != nil {
		return nil, err
	}

	if err := a.Cancel(cmd.Reason, cmd.CancelledBy); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"status":"cancelled","reason":"%s"}`, cmd.Reason),
	})

	return a, nil
}

func (s *AppointmentService) ListAppointments(ctx context.Context, q *appointment.ListAppointmentsQuery, caller *domain.Claims) (*appointment.PagedAppointments, error) {
	// Patients and professionals only ever see their own schedule
	switch caller.Role {
	case domain.RolePatient:
		q.PatientID = caller.PatientID
	case domain.RoleProfessional:
		q.ProfessionalID = caller.ProfessionalID
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

func (s *AppointmentService) authorize(a *appointment.Appointment, caller *domain.Claims) error {
	switch caller.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RolePatient:
		if caller.PatientID == nil || *caller.PatientID != a.PatientID {
			return ErrForbidden
		}
	case domain.RoleProfessional:
		if caller.ProfessionalID == nil || *caller.ProfessionalID != a.ProfessionalID {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	return nil
}
