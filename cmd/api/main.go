package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/psyconnect/backend/internal/config"
	"github.com/psyconnect/backend/internal/domain/reimbursement"
	v1 "github.com/psyconnect/backend/internal/handler/v1"
	"github.com/psyconnect/backend/internal/repository"
	"github.com/psyconnect/backend/internal/service"
	"github.com/psyconnect/backend/pkg/auth"
	"github.com/psyconnect/backend/pkg/database"
	"github.com/psyconnect/backend/pkg/logger"
	"github.com/psyconnect/backend/pkg/metrics"
	"github.com/psyconnect/backend/pkg/tracer"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if cfg.Tracing.Enabled {
		tp, err := tracer.Init(cfg.Tracing)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				log.Warn("tracer shutdown", zap.Error(err))
			}
		}()
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	loc, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		return err
	}

	// Repositories.
	appointmentRepo := repository.NewGormAppointmentRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	invoiceRepo := repository.NewGormInvoiceRepository(db)
	reimbursementRepo := repository.NewGormReimbursementRepository(db)
	patientRepo := repository.NewGormPatientRepository(db)
	professionalRepo := repository.NewGormProfessionalRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	auditRepo := repository.NewGormAuditRepository(db)
	waitlistRepo := repository.NewGormWaitlistRepository(db)

	// Services.
	jwtManager := auth.NewJWTManager(cfg.JWT)
	auditSvc := service.NewAuditService(auditRepo, log)
	defer auditSvc.Shutdown()

	coverage := &reimbursement.StaticCoverage{DefaultBps: cfg.Billing.DefaultCoverageBps}

	authSvc := service.NewAuthService(userRepo, patientRepo, jwtManager, &service.LogMailer{Log: log}, log)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, patientRepo, professionalRepo, auditSvc, log)
	billingSvc := service.NewBillingService(paymentRepo, invoiceRepo, appointmentRepo, patientRepo, cfg.Billing, auditSvc, log)
	reimbursementSvc := service.NewReimbursementService(reimbursementRepo, appointmentRepo, patientRepo, coverage, loc, auditSvc, log)
	reportSvc := service.NewReportService(appointmentRepo, loc, log)
	waitlistSvc := service.NewWaitlistService(waitlistRepo, log)

	// HTTP.
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: true,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	collector := metrics.NewCollector(cfg.App.Name)
	v1.Register(router, v1.Handlers{
		Auth:                  v1.NewAuthHandler(authSvc),
		Waitlist:              v1.NewWaitlistHandler(waitlistSvc, collector),
		Appointment:           v1.NewAppointmentHandler(appointmentSvc, collector),
		Billing:               v1.NewBillingHandler(billingSvc, collector),
		Report:                v1.NewReportHandler(reportSvc),
		Reimbursement:         v1.NewReimbursementHandler(reimbursementSvc, collector),
		JWTManager:            jwtManager,
		Collector:             collector,
		WaitlistRatePerMinute: cfg.RateLimit.WaitlistRequestsPerMinute,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
