package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psyconnect/backend/internal/domain/reimbursement"
	"github.com/psyconnect/backend/internal/middleware"
	"github.com/psyconnect/backend/internal/service"
	"github.com/psyconnect/backend/pkg/metrics"
)

type ReimbursementHandler struct {
	svc *service.ReimbursementService
	mtr *metrics.Collector
}

func NewReimbursementHandler(svc *service.ReimbursementService, mtr *metrics.Collector) *ReimbursementHandler {
	return &ReimbursementHandler{svc: svc, mtr: mtr}
}

func (h *ReimbursementHandler) ListEligible(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	eligible, err := h.svc.ListEligible(c.Request.Context(), claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, eligible)
}

type createReimbursementRequest struct {
	AppointmentIDs     []uuid.UUID `json:"appointment_ids" binding:"required"`
	HasMedicalReferral bool        `json:"has_medical_referral"`
	Notes              string      `json:"notes"`
}

func (h *ReimbursementHandler) Create(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims.PatientID == nil {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "no patient profile linked to this account"})
		return
	}

	var req createReimbursementRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &reimbursement.CreateRequestCommand{
		PatientID:          *claims.PatientID,
		AppointmentIDs:     req.AppointmentIDs,
		HasMedicalReferral: req.HasMedicalReferral,
		Notes:              req.Notes,
	}

	created, err := h.svc.CreateRequest(c.Request.Context(), cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.mtr.ReimbursementsTotal.WithLabelValues(string(created.Status)).Inc()
	respondCreated(c, created)
}

func (h *ReimbursementHandler) Get(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	req, err := h.svc.GetRequest(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, req)
}

func (h *ReimbursementHandler) List(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	q := &reimbursement.ListRequestsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := reimbursement.Status(raw)
		if !status.IsValid() {
			respondError(c, http.StatusBadRequest, "invalid status filter")
			return
		}
		q.Status = &status
	}
	if y := parseQueryInt(c, "year", 0); y != 0 {
		q.Year = &y
	}
	if m := parseQueryInt(c, "month", 0); m != 0 {
		q.Month = &m
	}

	paged, err := h.svc.ListRequests(c.Request.Context(), q, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, paged)
}

type attachKitRequest struct {
	KitPdfURL string `json:"kit_pdf_url" binding:"required,url"`
}

func (h *ReimbursementHandler) AttachKit(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req attachKitRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.svc.AttachKit(c.Request.Context(), id, req.KitPdfURL, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, updated)
}

type transitionRequest struct {
	TargetStatus string `json:"target_status" binding:"required"`
}

func (h *ReimbursementHandler) Transition(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req transitionRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.svc.Transition(c.Request.Context(), id, reimbursement.Status(req.TargetStatus), claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.mtr.ReimbursementsTotal.WithLabelValues(string(updated.Status)).Inc()
	respondOK(c, updated)
}

func (h *ReimbursementHandler) Delete(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteRequest(c.Request.Context(), id, claims, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}
