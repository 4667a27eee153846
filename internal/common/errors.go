// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Validation errors.
	ErrInvalidInput = errors.New("invalid input")

	// Settlement errors.
	ErrAlreadyPaid = errors.New("pending bill already paid")

	// Plaid errors.
	ErrPlaidConnection = errors.New("plaid connection failed")
	ErrPlaidRateLimit  = errors.New("plaid rate limit exceeded")

	// Detection errors.
	ErrNoTransactions = errors.New("no transactions to analyze")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Receipt verification errors. Each rejection on the verification path has
// its own sentinel so callers and tests can tell them apart.
var (
	ErrReceiptNoDate              = errors.New("no date found in receipt")
	ErrReceiptBackdated           = errors.New("receipt date predates account creation")
	ErrReceiptNoTransactionID     = errors.New("no transaction id found in receipt")
	ErrReceiptTransactionNotFound = errors.New("no matching transaction for receipt")
	ErrReceiptOwnershipMismatch   = errors.New("transaction belongs to a different user")
	ErrReceiptDateMismatch        = errors.New("receipt date does not match transaction date")
	ErrReceiptMerchantMismatch    = errors.New("receipt merchant does not match transaction")
	ErrReceiptAmountMismatch      = errors.New("receipt amount does not match transaction amount")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrPlaidRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
