package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentTransitions(t *testing.T) {
	p := &Payment{Status: PaymentPending, Amount: 35000, Commission: 3990}

	require.NoError(t, p.Complete())
	assert.Equal(t, PaymentCompleted, p.Status)
	assert.NotNil(t, p.PaidAt)

	// Completed is terminal.
	assert.ErrorIs(t, p.Fail(), ErrInvalidPaymentTransition)
	assert.ErrorIs(t, p.Complete(), ErrInvalidPaymentTransition)
}

func TestPaymentFail(t *testing.T) {
	p := &Payment{Status: PaymentPending}
	require.NoError(t, p.Fail())
	assert.Equal(t, PaymentFailed, p.Status)
	assert.Nil(t, p.PaidAt)

	assert.ErrorIs(t, p.Complete(), ErrInvalidPaymentTransition)
}

func TestPaymentNetAmount(t *testing.T) {
	p := &Payment{Amount: 35000, Commission: 3990}
	assert.Equal(t, int64(31010), p.NetAmount())
	assert.Equal(t, p.Amount, p.Commission+p.NetAmount())
}

func TestPaymentMethodIsValid(t *testing.T) {
	assert.True(t, MethodWebpay.IsValid())
	assert.True(t, MethodTransfer.IsValid())
	assert.True(t, MethodCard.IsValid())
	assert.False(t, PaymentMethod("bitcoin").IsValid())
	assert.False(t, PaymentMethod("").IsValid())
}

func TestInvoiceTransitions(t *testing.T) {
	i := &Invoice{Status: InvoiceDraft}

	require.NoError(t, i.MarkPaid())
	assert.Equal(t, InvoicePaid, i.Status)
	assert.NotNil(t, i.PaidAt)

	assert.ErrorIs(t, i.MarkPaid(), ErrInvalidInvoiceTransition)

	cancelled := &Invoice{Status: InvoiceCancelled}
	assert.ErrorIs(t, cancelled.MarkPaid(), ErrInvalidInvoiceTransition)
}
