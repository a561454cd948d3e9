package reimbursement

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// CreateAndLink persists the request and links every selected appointment
	// to it in one transaction. The link is a conditional update
	// (reimbursement_request_id still NULL); if any row was already taken the
	// whole transaction rolls back and appointment.ErrAlreadyLinked is
	// returned, so a lost race never produces a partial request.
	CreateAndLink(ctx context.Context, r *Request, appointmentIDs []uuid.UUID) error

	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	List(ctx context.Context, q *ListRequestsQuery) (*PagedRequests, error)
	UpdateStatus(ctx context.Context, r *Request) error

	// SetKitPdfURL writes the kit URL only while the request is in draft;
	// ErrInvalidStatusTransition if it has moved on since it was read.
	SetKitPdfURL(ctx context.Context, id uuid.UUID, url string) error

	// DeleteAndUnlink removes the request and clears the link on its
	// appointments in one transaction (detach, never cascade).
	DeleteAndUnlink(ctx context.Context, id uuid.UUID) error
}
