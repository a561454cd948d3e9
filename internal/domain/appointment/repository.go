package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// UpdateStatus persists a status change already validated by the domain.
	UpdateStatus(ctx context.Context, a *Appointment) error

	// HasConflict checks whether a professional already has an appointment
	// that overlaps the given window.
	HasConflict(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)

	// FindEligibleForReimbursement returns the patient's completed, paid and
	// invoiced appointments that are not yet linked to any request, with
	// Payment and Invoice populated.
	FindEligibleForReimbursement(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)

	// GetManyWithBilling fetches the given appointments with Payment and
	// Invoice populated. Missing ids are simply absent from the result.
	GetManyWithBilling(ctx context.Context, ids []uuid.UUID) ([]*Appointment, error)

	// FindByProfessionalInWindow returns all of a professional's appointments
	// with scheduled_at in [start, end), Payment populated, in one query.
	// Report aggregation relies on this being a single consistent snapshot.
	FindByProfessionalInWindow(ctx context.Context, professionalID uuid.UUID, start, end time.Time) ([]*Appointment, error)
}
