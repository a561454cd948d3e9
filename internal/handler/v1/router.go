package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psyconnect/backend/internal/domain"
	"github.com/psyconnect/backend/internal/middleware"
	"github.com/psyconnect/backend/pkg/auth"
	"github.com/psyconnect/backend/pkg/metrics"
)

// Handlers bundles everything Register needs to wire the API surface.
type Handlers struct {
	Auth          *AuthHandler
	Waitlist      *WaitlistHandler
	Appointment   *AppointmentHandler
	Billing       *BillingHandler
	Report        *ReportHandler
	Reimbursement *ReimbursementHandler

	JWTManager *auth.JWTManager
	Collector  *metrics.Collector

	WaitlistRatePerMinute int
}

// Register configures all application routes on the engine.
func Register(router *gin.Engine, h Handlers) {
	router.Use(middleware.Metrics(h.Collector))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	// Public routes.
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", h.Auth.Register)
			authRoutes.POST("/login", h.Auth.Login)
			authRoutes.POST("/refresh", h.Auth.Refresh)
			authRoutes.POST("/password-reset/request", h.Auth.RequestPasswordReset)
			authRoutes.POST("/password-reset/confirm", h.Auth.ConfirmPasswordReset)
			authRoutes.POST("/verify-email", h.Auth.VerifyEmail)
		}

		waitlist := public.Group("/waitlist")
		waitlist.Use(middleware.RateLimit(h.WaitlistRatePerMinute, h.WaitlistRatePerMinute))
		{
			waitlist.POST("", h.Waitlist.Signup)
		}
	}

	// Authenticated routes.
	private := router.Group("/api/v1")
	private.Use(middleware.Authenticate(h.JWTManager))
	{
		private.POST("/auth/change-password", h.Auth.ChangePassword)

		appointments := private.Group("/appointments")
		{
			appointments.POST("", middleware.RequireRole(domain.RolePatient), h.Appointment.Book)
			appointments.GET("", h.Appointment.List)
			appointments.GET("/:id", h.Appointment.Get)
			appointments.POST("/:id/confirm", middleware.RequireRole(domain.RoleProfessional, domain.RoleAdmin), h.Appointment.Confirm)
			appointments.POST("/:id/complete", middleware.RequireRole(domain.RoleProfessional, domain.RoleAdmin), h.Appointment.Complete)
			appointments.POST("/:id/cancel", h.Appointment.Cancel)
		}

		payments := private.Group("/payments")
		{
			payments.POST("", middleware.RequireRole(domain.RolePatient), h.Billing.CreatePayment)
			payments.POST("/:id/complete", h.Billing.CompletePayment)
			payments.POST("/:id/fail", h.Billing.FailPayment)
		}

		private.GET("/invoices/:id", h.Billing.GetInvoice)

		reports := private.Group("/reports")
		reports.Use(middleware.RequireRole(domain.RoleProfessional, domain.RoleAdmin))
		{
			reports.GET("/monthly", h.Report.Monthly)
		}

		reimbursements := private.Group("/reimbursements")
		{
			reimbursements.GET("/eligible", middleware.RequireRole(domain.RolePatient), h.Reimbursement.ListEligible)
			reimbursements.POST("", middleware.RequireRole(domain.RolePatient), h.Reimbursement.Create)
			reimbursements.GET("", h.Reimbursement.List)
			reimbursements.GET("/:id", h.Reimbursement.Get)
			reimbursements.POST("/:id/kit", h.Reimbursement.AttachKit)
			reimbursements.POST("/:id/status", h.Reimbursement.Transition)
			reimbursements.DELETE("/:id", h.Reimbursement.Delete)
		}
	}
}
