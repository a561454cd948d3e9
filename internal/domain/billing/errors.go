package billing

import "errors"

var (
	ErrPaymentNotFound          = errors.New("payment not found")
	ErrPaymentAlreadyExists     = errors.New("appointment already has a payment")
	ErrInvalidPaymentTransition = errors.New("invalid payment status transition")
	ErrInvalidPaymentMethod     = errors.New("invalid payment method")
	ErrInvoiceNotFound          = errors.New("invoice not found")
	ErrInvoiceAlreadyExists     = errors.New("appointment already has an invoice")
	ErrInvalidInvoiceTransition = errors.New("invalid invoice status transition")
)
