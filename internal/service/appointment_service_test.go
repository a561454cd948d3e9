package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/psyconnect/backend/internal/domain"
	"github.com/psyconnect/backend/internal/domain/appointment"
	"github.com/psyconnect/backend/internal/domain/patient"
	"github.com/psyconnect/backend/internal/domain/professional"
)

func activePatientRepo(patientID uuid.UUID) *mockPatientRepo {
	return &mockPatientRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
			return &patient.Patient{ID: patientID, Status: patient.StatusActive}, nil
		},
	}
}

func acceptingProfessionalRepo(proID uuid.UUID) *mockProfessionalRepo {
	return &mockProfessionalRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*professional.Professional, error) {
			return &professional.Professional{ID: proID, SessionPrice: 35000, AcceptsNewPatients: true}, nil
		},
	}
}

func bookCmd(patientID, proID uuid.UUID) *appointment.BookAppointmentCommand {
	return &appointment.BookAppointmentCommand{
		PatientID:      patientID,
		ProfessionalID: proID,
		ScheduledAt:    time.Now().Add(48 * time.Hour),
		DurationMins:   50,
		Modality:       appointment.ModalityOnline,
	}
}

func TestBookAppointment(t *testing.T) {
	patientID, proID := uuid.New(), uuid.New()

	repo := &mockAppointmentRepo{
		HasConflictFn: func(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
			return false, nil
		},
		CreateFn: func(ctx context.Context, a *appointment.Appointment) error {
			a.ID = uuid.New()
			return nil
		},
	}
	svc := NewAppointmentService(repo, activePatientRepo(patientID), acceptingProfessionalRepo(proID), newTestAuditService(t), zap.NewNop())

	a, err := svc.BookAppointment(context.Background(), bookCmd(patientID, proID), patientClaims(patientID), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusScheduled, a.Status)
	assert.Equal(t, patientID, a.PatientID)
	assert.Equal(t, proID, a.ProfessionalID)
}

func TestBookAppointment_Rejections(t *testing.T) {
	patientID, proID := uuid.New(), uuid.New()
	svc := NewAppointmentService(&mockAppointmentRepo{}, activePatientRepo(patientID), acceptingProfessionalRepo(proID), newTestAuditService(t), zap.NewNop())

	past := bookCmd(patientID, proID)
	past.ScheduledAt = time.Now().Add(-time.Hour)
	_, err := svc.BookAppointment(context.Background(), past, patientClaims(patientID), "")
	assert.ErrorIs(t, err, appointment.ErrScheduledInPast)

	short := bookCmd(patientID, proID)
	short.DurationMins = 10
	_, err = svc.BookAppointment(context.Background(), short, patientClaims(patientID), "")
	assert.ErrorIs(t, err, appointment.ErrInvalidDuration)

	long := bookCmd(patientID, proID)
	long.DurationMins = 180
	_, err = svc.BookAppointment(context.Background(), long, patientClaims(patientID), "")
	assert.ErrorIs(t, err, appointment.ErrInvalidDuration)

	modality := bookCmd(patientID, proID)
	modality.Modality = "telepathy"
	_, err = svc.BookAppointment(context.Background(), modality, patientClaims(patientID), "")
	assert.ErrorIs(t, err, appointment.ErrInvalidModality)
}

func TestBookAppointment_OnlyForOwnProfile(t *testing.T) {
	victimID, proID := uuid.New(), uuid.New()

	repo := &mockAppointmentRepo{
		CreateFn: func(ctx context.Context, a *appointment.Appointment) error {
			t.Fatal("appointment must not be created for a foreign patient")
			return nil
		},
	}
	svc := NewAppointmentService(repo, activePatientRepo(victimID), acceptingProfessionalRepo(proID), newTestAuditService(t), zap.NewNop())

	// A patient may only book under their own profile.
	_, err := svc.BookAppointment(context.Background(), bookCmd(victimID, proID), patientClaims(uuid.New()), "")
	assert.ErrorIs(t, err, ErrForbidden)

	// No linked patient profile at all.
	noProfile := &domain.Claims{UserID: uuid.New(), Role: domain.RolePatient}
	_, err = svc.BookAppointment(context.Background(), bookCmd(victimID, proID), noProfile, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBookAppointment_ScheduleConflict(t *testing.T) {
	patientID, proID := uuid.New(), uuid.New()
	repo := &mockAppointmentRepo{
		HasConflictFn: func(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
			return true, nil
		},
	}
	svc := NewAppointmentService(repo, activePatientRepo(patientID), acceptingProfessionalRepo(proID), newTestAuditService(t), zap.NewNop())

	_, err := svc.BookAppointment(context.Background(), bookCmd(patientID, proID), patientClaims(patientID), "")
	assert.ErrorIs(t, err, appointment.ErrAppointmentConflict)
}

func TestBookAppointment_ClosedBooks(t *testing.T) {
	patientID, proID := uuid.New(), uuid.New()
	pros := &mockProfessionalRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*professional.Professional, error) {
			return &professional.Professional{ID: proID, AcceptsNewPatients: false}, nil
		},
	}
	svc := NewAppointmentService(&mockAppointmentRepo{}, activePatientRepo(patientID), pros, newTestAuditService(t), zap.NewNop())

	_, err := svc.BookAppointment(context.Background(), bookCmd(patientID, proID), patientClaims(patientID), "")
	assert.ErrorIs(t, err, professional.ErrNotAcceptingPatients)
}

func TestCompleteAppointment_OnlyTreatingProfessional(t *testing.T) {
	patientID, proID := uuid.New(), uuid.New()
	apptID := uuid.New()

	repo := &mockAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
			return &appointment.Appointment{ID: apptID, PatientID: patientID, ProfessionalID: proID, Status: appointment.StatusConfirmed}, nil
		},
		UpdateStatusFn: func(ctx context.Context, a *appointment.Appointment) error { return nil },
	}
	svc := NewAppointmentService(repo, &mockPatientRepo{}, &mockProfessionalRepo{}, newTestAuditService(t), zap.NewNop())

	_, err := svc.CompleteAppointment(context.Background(), apptID, patientClaims(patientID))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CompleteAppointment(context.Background(), apptID, professionalClaims(uuid.New()))
	assert.ErrorIs(t, err, ErrForbidden)

	a, err := svc.CompleteAppointment(context.Background(), apptID, professionalClaims(proID))
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, a.Status)
}

func TestCancelAppointment(t *testing.T) {
	patientID, proID := uuid.New(), uuid.New()
	apptID := uuid.New()

	stored := &appointment.Appointment{ID: apptID, PatientID: patientID, ProfessionalID: proID, Status: appointment.StatusScheduled}
	repo := &mockAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
			return stored, nil
		},
		UpdateStatusFn: func(ctx context.Context, a *appointment.Appointment) error { return nil },
	}
	svc := NewAppointmentService(repo, &mockPatientRepo{}, &mockProfessionalRepo{}, newTestAuditService(t), zap.NewNop())

	claims := patientClaims(patientID)
	a, err := svc.CancelAppointment(context.Background(), apptID,
		&appointment.CancelAppointmentCommand{Reason: "sick", CancelledBy: claims.UserID}, claims, "")
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCancelled, a.Status)

	// Already cancelled.
	_, err = svc.CancelAppointment(context.Background(), apptID,
		&appointment.CancelAppointmentCommand{Reason: "again", CancelledBy: claims.UserID}, claims, "")
	assert.ErrorIs(t, err, appointment.ErrInvalidStatusTransition)
}

func TestListAppointments_ScopedToCaller(t *testing.T) {
	patientID := uuid.New()
	proID := uuid.New()

	repo := &mockAppointmentRepo{
		ListFn: func(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
			return &appointment.PagedAppointments{Page: q.Page, PageSize: q.PageSize}, nil
		},
	}
	svc := NewAppointmentService(repo, &mockPatientRepo{}, &mockProfessionalRepo{}, newTestAuditService(t), zap.NewNop())

	q := &appointment.ListAppointmentsQuery{}
	_, err := svc.ListAppointments(context.Background(), q, patientClaims(patientID))
	require.NoError(t, err)
	require.NotNil(t, q.PatientID)
	assert.Equal(t, patientID, *q.PatientID)

	q = &appointment.ListAppointmentsQuery{PageSize: 500}
	paged, err := svc.ListAppointments(context.Background(), q, professionalClaims(proID))
	require.NoError(t, err)
	require.NotNil(t, q.ProfessionalID)
	assert.Equal(t, proID, *q.ProfessionalID)
	assert.Equal(t, 20, paged.PageSize)
}
