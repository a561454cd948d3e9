package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psyconnect/backend/internal/domain/appointment"
	"github.com/psyconnect/backend/internal/middleware"
	"github.com/psyconnect/backend/internal/service"
	"github.com/psyconnect/backend/pkg/metrics"
)

type AppointmentHandler struct {
	svc *service.AppointmentService
	mtr *metrics.Collector
}

func NewAppointmentHandler(svc *service.AppointmentService, mtr *metrics.Collector) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, mtr: mtr}
}

type bookAppointmentRequest struct {
	PatientID          uuid.UUID `json:"patient_id" binding:"required"`
	ProfessionalID     uuid.UUID `json:"professional_id" binding:"required"`
	ScheduledAt        time.Time `json:"scheduled_at" binding:"required"`
	DurationMins       int       `json:"duration_mins"`
	Modality           string    `json:"modality" binding:"required"`
	ConsultationReason string    `json:"consultation_reason"`
}

func (h *AppointmentHandler) Book(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	var req bookAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.DurationMins == 0 {
		req.DurationMins = 50
	}

	cmd := &appointment.BookAppointmentCommand{
		PatientID:          req.PatientID,
		ProfessionalID:     req.ProfessionalID,
		ScheduledAt:        req.ScheduledAt,
		DurationMins:       req.DurationMins,
		Modality:           appointment.Modality(req.Modality),
		ConsultationReason: req.ConsultationReason,
	}

	a, err := h.svc.BookAppointment(c.Request.Context(), cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.mtr.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	respondCreated(c, a)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.svc.GetAppointment(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) List(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	q := &appointment.ListAppointmentsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := appointment.Status(raw)
		if !status.IsValid() {
			respondError(c, 400, "invalid status filter")
			return
		}
		q.Status = &status
	}

	paged, err := h.svc.ListAppointments(c.Request.Context(), q, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, paged)
}

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.svc.ConfirmAppointment(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.svc.CompleteAppointment(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.mtr.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	respondOK(c, a)
}

type cancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req cancelAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.CancelAppointmentCommand{
		Reason:      req.Reason,
		CancelledBy: claims.UserID,
	}

	a, err := h.svc.CancelAppointment(c.Request.Context(), id, cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.mtr.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	respondOK(c, a)
}
