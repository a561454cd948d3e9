package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/psyconnect/backend/internal/service"
	"github.com/psyconnect/backend/pkg/metrics"
)

type WaitlistHandler struct {
	svc *service.WaitlistService
	mtr *metrics.Collector
}

func NewWaitlistHandler(svc *service.WaitlistService, mtr *metrics.Collector) *WaitlistHandler {
	return &WaitlistHandler{svc: svc, mtr: mtr}
}

type waitlistSignupRequest struct {
	Email    string `json:"email" binding:"required"`
	FullName string `json:"full_name"`
	Region   string `json:"region"`
	Concern  string `json:"concern"`
}

func (h *WaitlistHandler) Signup(c *gin.Context) {
	var req waitlistSignupRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.svc.Signup(c.Request.Context(), &service.WaitlistSignupCommand{
		Email:    req.Email,
		FullName: req.FullName,
		Region:   req.Region,
		Concern:  req.Concern,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.mtr.WaitlistSignupsTotal.Inc()
	respondCreated(c, gin.H{"email": entry.Email, "position": entry.Position})
}
