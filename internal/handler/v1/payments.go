package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psyconnect/backend/internal/domain/billing"
	"github.com/psyconnect/backend/internal/middleware"
	"github.com/psyconnect/backend/internal/service"
	"github.com/psyconnect/backend/pkg/metrics"
)

type BillingHandler struct {
	svc *service.BillingService
	mtr *metrics.Collector
}

func NewBillingHandler(svc *service.BillingService, mtr *metrics.Collector) *BillingHandler {
	return &BillingHandler{svc: svc, mtr: mtr}
}

type createPaymentRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" binding:"required"`
	Amount        int64     `json:"amount" binding:"required"`
	Method        string    `json:"method" binding:"required"`
}

func (h *BillingHandler) CreatePayment(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	var req createPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &service.CreatePaymentCommand{
		AppointmentID: req.AppointmentID,
		Amount:        req.Amount,
		Method:        billing.PaymentMethod(req.Method),
	}

	p, err := h.svc.CreatePayment(c.Request.Context(), cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.mtr.PaymentsTotal.WithLabelValues(string(p.Status)).Inc()
	respondCreated(c, p)
}

func (h *BillingHandler) CompletePayment(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, inv, err := h.svc.CompletePayment(c.Request.Context(), id, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.mtr.PaymentsTotal.WithLabelValues(string(p.Status)).Inc()
	h.mtr.InvoicesIssued.Inc()
	respondOK(c, gin.H{"payment": p, "invoice": inv})
}

func (h *BillingHandler) FailPayment(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.FailPayment(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.mtr.PaymentsTotal.WithLabelValues(string(p.Status)).Inc()
	respondOK(c, p)
}

func (h *BillingHandler) GetInvoice(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	inv, err := h.svc.GetInvoice(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, inv)
}
