package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrListingNotFound     = errors.New("active listing not found")
	ErrAgentNotFound       = errors.New("agent not found")
	ErrAlreadyExists       = errors.New("resource already exists")
	ErrInvalidInput        = errors.New("invalid input")
	ErrBadRequest          = errors.New("bad request")
	ErrPaymentsDisabled    = errors.New("payments disabled")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrPurchaseNotFinal    = errors.New("purchase paid but not finalized")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrWebhookURLRejected  = errors.New("webhook url rejected")
	ErrReceiptNotAvailable = errors.New("transaction receipt not yet available")
)

// AppError represents an application error with HTTP status, machine error
// code and a remediation hint for the caller.
type AppError struct {
	Status          int    `json:"-"`
	Code            string `json:"code"`
	Message         string `json:"message"`
	SuggestedAction string `json:"suggestedAction,omitempty"`
	Err             error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message, suggestedAction string, err error) *AppError {
	return &AppError{
		Status:          status,
		Code:            code,
		Message:         message,
		SuggestedAction: suggestedAction,
		Err:             err,
	}
}

// Common error constructors

func NotFound(code, message, suggestedAction string) *AppError {
	return NewAppError(http.StatusNotFound, code, message, suggestedAction, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, "bad_request", message, "", ErrInvalidInput)
}

func InternalError(code string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, code, "internal server error", "Retry later or contact support.", err)
}

// PaymentsDisabled is returned before any side effect when the settlement
// rail is administratively switched off.
func PaymentsDisabled() *AppError {
	return NewAppError(
		http.StatusServiceUnavailable,
		"payments_disabled",
		"Payment functionality is disabled.",
		"Use reviews and stars to evaluate products until payments are re-enabled.",
		ErrPaymentsDisabled,
	)
}

// PaymentFailed maps an executor failure: the transfer never settled, the
// purchase is marked failed and the caller may retry with a new key.
func PaymentFailed(err error) *AppError {
	return NewAppError(
		http.StatusBadGateway,
		"payment_failed",
		"On-chain USDC transfer failed.",
		"Check wallet balance and retry.",
		errors.Join(ErrPaymentFailed, err),
	)
}

// PurchaseFinalizeFailed is the one unrecoverable-by-retry case: funds moved
// but the completion write failed. Requires manual reconciliation.
func PurchaseFinalizeFailed(err error) *AppError {
	return NewAppError(
		http.StatusInternalServerError,
		"purchase_finalize_failed",
		"Purchase was paid but could not be finalized.",
		"Retry later or contact support.",
		errors.Join(ErrPurchaseNotFinal, err),
	)
}
