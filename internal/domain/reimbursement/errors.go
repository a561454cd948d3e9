package reimbursement

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrRequestNotFound         = errors.New("reimbursement request not found")
	ErrInvalidStatus           = errors.New("unknown reimbursement status")
	ErrInvalidStatusTransition = errors.New("invalid reimbursement status transition")
	ErrKitNotGenerated         = errors.New("reimbursement kit has not been generated yet")
	ErrEmptySelection          = errors.New("at least one appointment must be selected")
	ErrNotDeletable            = errors.New("only draft requests can be deleted")
	ErrCoverageUnknown         = errors.New("no reimbursement coverage configured for health system")
)

// IneligibleError rejects a whole selection and names every appointment that
// failed the eligibility predicate. Selections are all-or-nothing.
type IneligibleError struct {
	AppointmentIDs []uuid.UUID
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("%d appointment(s) are not eligible for reimbursement", len(e.AppointmentIDs))
}
