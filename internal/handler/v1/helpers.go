package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psyconnect/backend/internal/domain/appointment"
	"github.com/psyconnect/backend/internal/domain/billing"
	"github.com/psyconnect/backend/internal/domain/patient"
	"github.com/psyconnect/backend/internal/domain/professional"
	"github.com/psyconnect/backend/internal/domain/reimbursement"
	"github.com/psyconnect/backend/internal/domain/waitlist"
	"github.com/psyconnect/backend/internal/money"
	"github.com/psyconnect/backend/internal/service"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

// ConflictResponse names the appointment ids that failed eligibility so the
// client can deselect them.
type ConflictResponse struct {
	Error          string      `json:"error"`
	AppointmentIDs []uuid.UUID `json:"appointmentIds,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondServiceError is the single place where domain errors become HTTP
// status codes. Anything unrecognized is a 500 with internals withheld.
func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	var ineligible *reimbursement.IneligibleError
	if errors.As(err, &ineligible) {
		c.JSON(http.StatusConflict, ConflictResponse{
			Error:          ineligible.Error(),
			AppointmentIDs: ineligible.AppointmentIDs,
		})
		return
	}

	switch {
	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, professional.ErrProfessionalNotFound),
		errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, billing.ErrPaymentNotFound),
		errors.Is(err, billing.ErrInvoiceNotFound),
		errors.Is(err, reimbursement.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, appointment.ErrAppointmentConflict),
		errors.Is(err, appointment.ErrAlreadyLinked),
		errors.Is(err, billing.ErrPaymentAlreadyExists),
		errors.Is(err, billing.ErrInvoiceAlreadyExists),
		errors.Is(err, patient.ErrPatientAlreadyExists),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, waitlist.ErrAlreadySignedUp):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, appointment.ErrScheduledInPast),
		errors.Is(err, appointment.ErrInvalidDuration),
		errors.Is(err, appointment.ErrInvalidStatusTransition),
		errors.Is(err, appointment.ErrInvalidModality),
		errors.Is(err, billing.ErrInvalidPaymentMethod),
		errors.Is(err, billing.ErrInvalidPaymentTransition),
		errors.Is(err, billing.ErrInvalidInvoiceTransition),
		errors.Is(err, reimbursement.ErrInvalidStatus),
		errors.Is(err, reimbursement.ErrInvalidStatusTransition),
		errors.Is(err, reimbursement.ErrKitNotGenerated),
		errors.Is(err, reimbursement.ErrEmptySelection),
		errors.Is(err, reimbursement.ErrNotDeletable),
		errors.Is(err, reimbursement.ErrCoverageUnknown),
		errors.Is(err, patient.ErrPatientInactive),
		errors.Is(err, patient.ErrInvalidHealthSystem),
		errors.Is(err, professional.ErrNotAcceptingPatients),
		errors.Is(err, waitlist.ErrInvalidEmail),
		errors.Is(err, money.ErrNonPositiveAmount),
		errors.Is(err, money.ErrRateOutOfRange),
		errors.Is(err, service.ErrInvalidResetToken):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return defaultVal
}
