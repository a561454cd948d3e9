package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psyconnect/backend/internal/domain"
	"github.com/psyconnect/backend/internal/middleware"
	"github.com/psyconnect/backend/internal/service"
)

type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Monthly serves GET /reports/monthly?year=YYYY&month=M. Professionals get
// their own report; admins pass professional_id to read any.
func (h *ReportHandler) Monthly(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	var professionalID uuid.UUID
	switch claims.Role {
	case domain.RoleProfessional:
		if claims.ProfessionalID == nil {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "no professional profile linked to this account"})
			return
		}
		professionalID = *claims.ProfessionalID
	case domain.RoleAdmin:
		id, err := uuid.Parse(c.Query("professional_id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "professional_id must be a valid UUID")
			return
		}
		professionalID = id
	default:
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})
		return
	}

	year := parseQueryInt(c, "year", 0)
	month := parseQueryInt(c, "month", 0)

	report, err := h.svc.MonthlyReport(c.Request.Context(), professionalID, year, month, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, report)
}
