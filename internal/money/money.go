// Package money implements the platform's financial arithmetic.
//
// Amounts are int64 Chilean pesos (CLP has no subdivision). Rates are basis
// points (1140 = 11.40%) so every computation is pure integer arithmetic:
// reproducible across platforms, no floating-point drift, auditable.
package money

import "errors"

var (
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrRateOutOfRange    = errors.New("rate must be between 0 and 10000 basis points")
)

// BpsDenominator is the basis-point scale: 10000 bps = 100%.
const BpsDenominator = 10_000

// ApplyRate returns round-half-up(amount * bps / 10000).
func ApplyRate(amount, bps int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrNonPositiveAmount
	}
	if bps < 0 || bps > BpsDenominator {
		return 0, ErrRateOutOfRange
	}
	return (amount*bps + BpsDenominator/2) / BpsDenominator, nil
}

// Commission computes the platform fee withheld from a gross payment amount.
func Commission(amount, bps int64) (int64, error) {
	return ApplyRate(amount, bps)
}

// Retention computes the SII tax withholding on an invoice's gross amount.
// Applied only at invoice issuance, never at payment level.
func Retention(amount, bps int64) (int64, error) {
	return ApplyRate(amount, bps)
}

// PaymentNet is what the professional receives from a payment before tax:
// gross minus platform commission. Commission + PaymentNet == amount always.
func PaymentNet(amount, commission int64) int64 {
	return amount - commission
}

// InvoiceNet is the professional's net on an issued invoice:
// gross minus SII retention minus platform commission.
func InvoiceNet(brutAmount, commission, retention int64) int64 {
	return brutAmount - commission - retention
}
