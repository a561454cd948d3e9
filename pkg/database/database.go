package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/psyconnect/backend/internal/config"
	"github.com/psyconnect/backend/internal/domain"
	"github.com/psyconnect/backend/internal/domain/appointment"
	"github.com/psyconnect/backend/internal/domain/billing"
	"github.com/psyconnect/backend/internal/domain/patient"
	"github.com/psyconnect/backend/internal/domain/professional"
	"github.com/psyconnect/backend/internal/domain/reimbursement"
	"github.com/psyconnect/backend/internal/domain/waitlist"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt: true,
		// Unique violations surface as gorm.ErrDuplicatedKey so the
		// repositories can map them to domain conflict errors.
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"clinical", "billing", "auth", "audit"} // logical namespace
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.User{},
		&domain.AuditLog{},
		&patient.Patient{},
		&professional.Professional{},
		&appointment.Appointment{},
		&billing.Payment{},
		&billing.Invoice{},
		&reimbursement.Request{},
		&waitlist.Entry{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := db.Exec("CREATE SEQUENCE IF NOT EXISTS billing.invoice_number_seq START 1").Error; err != nil {
		return fmt.Errorf("creating invoice number sequence: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name  string
		query string
	}{
		{
			name:  "idx_appointments_professional_schedule",
			query: `CREATE INDEX IF NOT EXISTS idx_appointments_professional_schedule ON clinical.appointments (professional_id, scheduled_at, duration_mins) WHERE deleted_at IS NULL AND status <> 'cancelled'`,
		},
		// Eligibility scans: completed sessions not yet claimed
		{
			name:  "idx_appointments_unclaimed",
			query: `CREATE INDEX IF NOT EXISTS idx_appointments_unclaimed ON clinical.appointments (patient_id, status) WHERE deleted_at IS NULL AND reimbursement_request_id IS NULL`,
		},
		{
			name:  "idx_appointments_time_range",
			query: `CREATE INDEX IF NOT EXISTS idx_appointments_time_range ON clinical.appointments (scheduled_at, status) WHERE deleted_at IS NULL`,
		},
		{
			name:  "idx_reimbursement_period",
			query: `CREATE INDEX IF NOT EXISTS idx_reimbursement_period ON billing.reimbursement_requests (patient_id, year, month)`,
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			return fmt.Errorf("creating index %s: %w", idx.name, err)
		}
	}

	return nil
}
