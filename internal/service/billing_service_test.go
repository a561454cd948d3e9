package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/psyconnect/backend/internal/config"
	"github.com/psyconnect/backend/internal/domain"
	"github.com/psyconnect/backend/internal/domain/appointment"
	"github.com/psyconnect/backend/internal/domain/billing"
	"github.com/psyconnect/backend/internal/domain/patient"
)

func defaultBillingConfig() config.BillingConfig {
	return config.BillingConfig{CommissionBps: 1140, RetentionBps: 1525}
}

func newBillingService(
	t *testing.T,
	payments *mockPaymentRepo,
	invoices *mockInvoiceRepo,
	appts *mockAppointmentRepo,
	patients *mockPatientRepo,
) *BillingService {
	t.Helper()
	return NewBillingService(payments, invoices, appts, patients, defaultBillingConfig(), newTestAuditService(t), zap.NewNop())
}

func TestCreatePayment(t *testing.T) {
	patientID := uuid.New()
	apptID := uuid.New()

	appts := &mockAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
			return &appointment.Appointment{ID: apptID, PatientID: patientID}, nil
		},
	}
	var created *billing.Payment
	payments := &mockPaymentRepo{
		CreateFn: func(ctx context.Context, p *billing.Payment) error {
			p.ID = uuid.New()
			created = p
			return nil
		},
	}
	svc := newBillingService(t, payments, &mockInvoiceRepo{}, appts, &mockPatientRepo{})

	p, err := svc.CreatePayment(context.Background(),
		&CreatePaymentCommand{AppointmentID: apptID, Amount: 35000, Method: billing.MethodWebpay},
		patientClaims(patientID), "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, int64(35000), p.Amount)
	assert.Equal(t, int64(3990), p.Commission)
	assert.Equal(t, int64(31010), p.NetAmount())
	assert.Equal(t, "CLP", p.Currency)
	assert.Equal(t, billing.PaymentPending, p.Status)
	assert.Same(t, created, p)
}

func TestCreatePayment_Rejections(t *testing.T) {
	patientID := uuid.New()
	apptID := uuid.New()
	appts := &mockAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
			return &appointment.Appointment{ID: apptID, PatientID: patientID}, nil
		},
	}
	svc := newBillingService(t, &mockPaymentRepo{}, &mockInvoiceRepo{}, appts, &mockPatientRepo{})

	_, err := svc.CreatePayment(context.Background(),
		&CreatePaymentCommand{AppointmentID: apptID, Amount: 35000, Method: "cheque"},
		patientClaims(patientID), "")
	assert.ErrorIs(t, err, billing.ErrInvalidPaymentMethod)

	_, err = svc.CreatePayment(context.Background(),
		&CreatePaymentCommand{AppointmentID: apptID, Amount: 0, Method: billing.MethodWebpay},
		patientClaims(patientID), "")
	var validErr *ValidationError
	assert.ErrorAs(t, err, &validErr)

	// Another patient's appointment.
	_, err = svc.CreatePayment(context.Background(),
		&CreatePaymentCommand{AppointmentID: apptID, Amount: 35000, Method: billing.MethodWebpay},
		patientClaims(uuid.New()), "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCompletePayment_IssuesInvoice(t *testing.T) {
	patientID := uuid.New()
	apptID := uuid.New()
	paymentID := uuid.New()

	payments := &mockPaymentRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
			return &billing.Payment{
				ID: paymentID, AppointmentID: apptID,
				Amount: 35000, Commission: 3990,
				Status: billing.PaymentPending,
			}, nil
		},
		UpdateStatusFn: func(ctx context.Context, p *billing.Payment) error { return nil },
	}
	appts := &mockAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
			return &appointment.Appointment{ID: apptID, PatientID: patientID}, nil
		},
	}
	patients := &mockPatientRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
			return &patient.Patient{ID: patientID, HealthSystem: domain.HealthSystemIsapre}, nil
		},
	}
	invoices := &mockInvoiceRepo{
		NextInvoiceNumberFn: func(ctx context.Context) (string, error) { return "F-000042", nil },
		CreateFn: func(ctx context.Context, i *billing.Invoice) error {
			i.ID = uuid.New()
			return nil
		},
	}
	svc := newBillingService(t, payments, invoices, appts, patients)

	p, inv, err := svc.CompletePayment(context.Background(), paymentID, adminClaims(), "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, billing.PaymentCompleted, p.Status)
	assert.NotNil(t, p.PaidAt)

	assert.Equal(t, "F-000042", inv.InvoiceNumber)
	assert.Equal(t, int64(35000), inv.BrutAmount)
	// 15.25% of 35000, round half up.
	assert.Equal(t, int64(5338), inv.SiiRetention)
	assert.Equal(t, inv.BrutAmount-p.Commission-inv.SiiRetention, inv.NetAmount)
	assert.Equal(t, domain.HealthSystemIsapre, inv.HealthSystem)
	assert.Equal(t, billing.InvoiceDraft, inv.Status)
}

func TestPaymentSettlement_Authorization(t *testing.T) {
	patientID := uuid.New()
	apptID := uuid.New()
	paymentID := uuid.New()

	payments := &mockPaymentRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
			return &billing.Payment{
				ID: paymentID, AppointmentID: apptID,
				Amount: 35000, Commission: 3990,
				Status: billing.PaymentPending,
			}, nil
		},
		UpdateStatusFn: func(ctx context.Context, p *billing.Payment) error { return nil },
	}
	appts := &mockAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
			return &appointment.Appointment{ID: apptID, PatientID: patientID}, nil
		},
	}
	invoices := &mockInvoiceRepo{
		NextInvoiceNumberFn: func(ctx context.Context) (string, error) {
			t.Fatal("no invoice may be issued for an unauthorized settlement")
			return "", nil
		},
	}
	svc := newBillingService(t, payments, invoices, appts, &mockPatientRepo{})

	// An unrelated patient must not settle someone else's payment.
	_, _, err := svc.CompletePayment(context.Background(), paymentID, patientClaims(uuid.New()), "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.FailPayment(context.Background(), paymentID, patientClaims(uuid.New()))
	assert.ErrorIs(t, err, ErrForbidden)

	// Professionals never settle payments.
	_, _, err = svc.CompletePayment(context.Background(), paymentID, professionalClaims(uuid.New()), "")
	assert.ErrorIs(t, err, ErrForbidden)

	// The owning patient may fail their own checkout.
	p, err := svc.FailPayment(context.Background(), paymentID, patientClaims(patientID))
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentFailed, p.Status)
}

func TestCompletePayment_AlreadySettled(t *testing.T) {
	paymentID := uuid.New()
	payments := &mockPaymentRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
			return &billing.Payment{ID: paymentID, Status: billing.PaymentCompleted}, nil
		},
	}
	svc := newBillingService(t, payments, &mockInvoiceRepo{}, &mockAppointmentRepo{}, &mockPatientRepo{})

	_, _, err := svc.CompletePayment(context.Background(), paymentID, adminClaims(), "")
	assert.ErrorIs(t, err, billing.ErrInvalidPaymentTransition)
}

func TestFailPayment(t *testing.T) {
	paymentID := uuid.New()
	payments := &mockPaymentRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
			return &billing.Payment{ID: paymentID, Status: billing.PaymentPending}, nil
		},
		UpdateStatusFn: func(ctx context.Context, p *billing.Payment) error { return nil },
	}
	svc := newBillingService(t, payments, &mockInvoiceRepo{}, &mockAppointmentRepo{}, &mockPatientRepo{})

	p, err := svc.FailPayment(context.Background(), paymentID, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentFailed, p.Status)
}

func TestGetInvoice_Ownership(t *testing.T) {
	patientID := uuid.New()
	proID := uuid.New()
	apptID := uuid.New()
	invID := uuid.New()

	invoices := &mockInvoiceRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
			return &billing.Invoice{ID: invID, AppointmentID: apptID}, nil
		},
	}
	appts := &mockAppointmentRepo{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
			return &appointment.Appointment{ID: apptID, PatientID: patientID, ProfessionalID: proID}, nil
		},
	}
	svc := newBillingService(t, &mockPaymentRepo{}, invoices, appts, &mockPatientRepo{})

	_, err := svc.GetInvoice(context.Background(), invID, patientClaims(patientID))
	assert.NoError(t, err)

	_, err = svc.GetInvoice(context.Background(), invID, professionalClaims(proID))
	assert.NoError(t, err)

	_, err = svc.GetInvoice(context.Background(), invID, adminClaims())
	assert.NoError(t, err)

	_, err = svc.GetInvoice(context.Background(), invID, patientClaims(uuid.New()))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetInvoice(context.Background(), invID, professionalClaims(uuid.New()))
	assert.ErrorIs(t, err, ErrForbidden)
}
