// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionStale     = errors.New("session stale")
	ErrSessionAbsent    = errors.New("no session record")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrOrderRejected    = errors.New("order rejected")
	ErrOrderNotFound    = errors.New("order not found in report")
	ErrPollBudget       = errors.New("poll budget exhausted")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDatabaseError    = errors.New("database error")
)

// AuthError represents a failure of one of the login handshake steps.
// Authentication failures are fatal; there is no retry loop.
type AuthError struct {
	Step    string // "totp_login" or "mpin_validate"
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth error [%s]: %s: %v", e.Step, e.Message, e.Err)
	}
	return fmt.Sprintf("auth error [%s]: %s", e.Step, e.Message)
}

func (e *AuthError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrAuthFailed
}

// NewAuthError creates a new AuthError.
func NewAuthError(step, message string, err error) *AuthError {
	return &AuthError{Step: step, Message: message, Err: err}
}

// BrokerError represents an error from the broker API.
type BrokerError struct {
	Op      string
	Code    int
	Message string
	Err     error
}

func (e *BrokerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broker error [%s] code %d: %s: %v", e.Op, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("broker error [%s] code %d: %s", e.Op, e.Code, e.Message)
}

func (e *BrokerError) Unwrap() error {
	return e.Err
}

// NewBrokerError creates a new BrokerError.
func NewBrokerError(op string, code int, message string, err error) *BrokerError {
	return &BrokerError{Op: op, Code: code, Message: message, Err: err}
}

// OrderError represents an error related to order operations.
type OrderError struct {
	OrderNo string
	Symbol  string
	Action  string
	Reason  string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order error [%s] %s %s: %s: %v", e.OrderNo, e.Action, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("order error [%s] %s %s: %s", e.OrderNo, e.Action, e.Symbol, e.Reason)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(orderNo, symbol, action, reason string, err error) *OrderError {
	return &OrderError{OrderNo: orderNo, Symbol: symbol, Action: action, Reason: reason, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
