// Package errors provides standardized error types for the domain layer.
// The engine distinguishes four failure classes: validation (bad input),
// conflict (incompatible current state), external unavailability (a
// blockchain lookup failed or timed out) and integrity (a ledger read
// failed mid-reconciliation). Callers route users differently depending
// on the reason code, so codes are part of the contract.
package errors

import (
	"errors"
	"fmt"
)

// Standard error categories
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input was provided
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates a conflict with the current state
	ErrConflict = errors.New("conflict")

	// ErrServiceUnavailable indicates an external dependency is unavailable
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrIntegrity indicates a ledger read failed and derived state was
	// left untouched
	ErrIntegrity = errors.New("integrity error")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)

// Reason codes surfaced to callers. The product UI depends on these being
// distinguishable: a weekend rejection prompts "come back Monday", a
// missing VIP level prompts a purchase, an active session shows the timer.
const (
	CodeWeekendRestricted    = "WEEKEND_RESTRICTED"
	CodeVipRequired          = "VIP_REQUIRED"
	CodeSessionActive        = "SESSION_ALREADY_ACTIVE"
	CodeConcurrentUpdate     = "CONCURRENT_UPDATE"
	CodeSessionCooldown      = "SESSION_IN_COOLDOWN"
	CodeDepositsDisabled     = "DEPOSITS_DISABLED"
	CodeWithdrawalsDisabled  = "WITHDRAWALS_DISABLED"
	CodeAmountBelowMinimum   = "AMOUNT_BELOW_MINIMUM"
	CodeInsufficientBalance  = "INSUFFICIENT_BALANCE"
	CodeInvalidFeeTiers      = "INVALID_FEE_TIERS"
	CodeInvalidTotp          = "INVALID_TOTP_CODE"
	CodeNetworkTimeout       = "NETWORK_TIMEOUT"
	CodeLedgerReadFailed     = "LEDGER_READ_FAILED"
	CodeDepositNotPending    = "DEPOSIT_NOT_PENDING"
	CodeWithdrawalNotPending = "WITHDRAWAL_NOT_PENDING"
)

// DomainError represents a domain-specific error with a stable code
type DomainError struct {
	Err       error
	Code      string
	Message   string
	Details   map[string]interface{}
	Retryable bool
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target
func (e *DomainError) Is(target error) bool {
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// WithDetails adds details to the error
func (e *DomainError) WithDetails(details map[string]interface{}) *DomainError {
	e.Details = details
	return e
}

// ValidationError creates a validation error with a stable reason code
func ValidationError(code, message string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidInput,
		Code:    code,
		Message: message,
	}
}

// ConflictError creates a conflict error with a stable reason code
func ConflictError(code, message string) *DomainError {
	return &DomainError{
		Err:     ErrConflict,
		Code:    code,
		Message: message,
	}
}

// NotFoundError creates a not found error
func NotFoundError(resource string) *DomainError {
	return &DomainError{
		Err:     ErrNotFound,
		Code:    fmt.Sprintf("%s_NOT_FOUND", resource),
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// AlreadyExistsError creates an already exists error
func AlreadyExistsError(resource string) *DomainError {
	return &DomainError{
		Err:     ErrAlreadyExists,
		Code:    fmt.Sprintf("%s_ALREADY_EXISTS", resource),
		Message: fmt.Sprintf("%s already exists", resource),
	}
}

// ServiceUnavailableError creates an external unavailability error
func ServiceUnavailableError(service string, err error) *DomainError {
	de := &DomainError{
		Err:       ErrServiceUnavailable,
		Code:      "SERVICE_UNAVAILABLE",
		Message:   fmt.Sprintf("%s is temporarily unavailable", service),
		Retryable: true,
	}
	if err != nil {
		de.Details = map[string]interface{}{
			"cause": err.Error(),
		}
	}
	return de
}

// IntegrityError creates an integrity error. Used when a ledger read fails
// and derived state (the wallet snapshot) was intentionally left untouched.
func IntegrityError(message string, err error) *DomainError {
	de := &DomainError{
		Err:     ErrIntegrity,
		Code:    CodeLedgerReadFailed,
		Message: message,
	}
	if err != nil {
		de.Details = map[string]interface{}{
			"cause": err.Error(),
		}
	}
	return de
}

// InternalError creates an internal error
func InternalError(message string, err error) *DomainError {
	return &DomainError{
		Err:     ErrInternal,
		Code:    "INTERNAL_ERROR",
		Message: message,
		Details: map[string]interface{}{
			"cause": err.Error(),
		},
	}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInvalidInput checks if an error is a validation error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsServiceUnavailable checks if an error is an external unavailability error
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsIntegrity checks if an error is an integrity error
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

// GetErrorCode extracts the stable code from a domain error
func GetErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "UNKNOWN_ERROR"
}

// GetErrorDetails extracts details from a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
