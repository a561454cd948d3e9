package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psyconnect/backend/internal/domain"
	"github.com/psyconnect/backend/internal/domain/appointment"
	"github.com/psyconnect/backend/internal/domain/billing"
)

// MonthlyReport aggregates one professional's activity over a civil month.
// Revenue is the sum of payment net amounts (gross minus commission) for
// completed sessions with completed payments.
type MonthlyReport struct {
	Year  int `json:"year"`
	Month int `json:"month"`

	TotalAppointments     int   `json:"totalAppointments"`
	CompletedAppointments int   `json:"completedAppointments"`
	CancelledAppointments int   `json:"cancelledAppointments"`
	TotalRevenue          int64 `json:"totalRevenue"`
	UniquePatients        int   `json:"uniquePatients"`

	ThisMonthAppointments int `json:"thisMonthAppointments"`
	LastMonthAppointments int `json:"lastMonthAppointments"`
}

// ReportService computes monthly activity reports. Windows are civil months
// in the configured timezone (Chilean tax periods are local calendar months,
// not UTC); the zone is a deployment decision, America/Santiago by default.
type ReportService struct {
	appointments appointment.Repository
	loc          *time.Location
	log          *zap.Logger
	now          func() time.Time
}

func NewReportService(appointments appointment.Repository, loc *time.Location, log *zap.Logger) *ReportService {
	return &ReportService{
		appointments: appointments,
		loc:          loc,
		log:          log,
		now:          time.Now,
	}
}

// MonthlyReport builds the report for (professionalID, year, month).
// Zero year/month default to the current civil month. Both the target and the
// previous month are fetched in one repository query so the aggregation sees
// a single consistent snapshot.
func (s *ReportService) MonthlyReport(ctx context.Context, professionalID uuid.UUID, year, month int, caller *domain.Claims) (*MonthlyReport, error) {
	switch caller.Role {
	case domain.RoleAdmin:
	case domain.RoleProfessional:
		if caller.ProfessionalID == nil || *caller.ProfessionalID != professionalID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	if year == 0 && month == 0 {
		now := s.now().In(s.loc)
		year, month = now.Year(), int(now.Month())
	}
	var fields []string
	if month < 1 || month > 12 {
		fields = append(fields, fmt.Sprintf("month must be between 1 and 12, got %d", month))
	}
	if year < 1900 || year > 2100 {
		fields = append(fields, fmt.Sprintf("year must be a plausible 4-digit value, got %d", year))
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	// time.Date normalizes month 0 and 13, so the previous-month start and
	// the next-month start fall out of plain arithmetic.
	prevStart := time.Date(year, time.Month(month-1), 1, 0, 0, 0, 0, s.loc)
	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	nextStart := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, s.loc)

	all, err := s.appointments.FindByProfessionalInWindow(ctx, professionalID, prevStart, nextStart)
	if err != nil {
		return nil, fmt.Errorf("loading report window: %w", err)
	}

	report := &MonthlyReport{Year: year, Month: month}
	patients := make(map[uuid.UUID]struct{})

	for _, a := range all {
		if a.ScheduledAt.Before(monthStart) {
			report.LastMonthAppointments++
			continue
		}

		report.TotalAppointments++
		patients[a.PatientID] = struct{}{}

		switch a.Status {
		case appointment.StatusCompleted:
			report.CompletedAppointments++
			if a.Payment != nil && a.Payment.Status == billing.PaymentCompleted {
				report.TotalRevenue += a.Payment.NetAmount()
			}
		case appointment.StatusCancelled:
			report.CancelledAppointments++
		}
	}

	report.UniquePatients = len(patients)
	report.ThisMonthAppointments = report.TotalAppointments

	return report, nil
}
