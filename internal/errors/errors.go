package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for the billing engine. Build concrete errors with
// NewError(...).Mark(ErrX) so callers can match on the category.
var (
	ErrNotFound                 = New(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists            = New(ErrCodeAlreadyExists, "resource already exists")
	ErrConflict                 = New(ErrCodeConflict, "conflicting state")
	ErrValidation               = New(ErrCodeValidation, "validation error")
	ErrInvalidOperation         = New(ErrCodeInvalidOperation, "invalid operation")
	ErrPermissionDenied         = New(ErrCodePermissionDenied, "permission denied")
	ErrGateway                  = New(ErrCodeGateway, "payment gateway error")
	ErrReconciliationUnresolved = New(ErrCodeReconciliationUnresolved, "reconciliation unresolved")
	ErrHTTPClient               = New(ErrCodeHTTPClient, "http client error")
	ErrDatabase                 = New(ErrCodeDatabase, "database error")
	ErrSystem                   = New(ErrCodeSystemError, "system error")

	// maps errors to http status codes
	statusCodeMap = []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrConflict, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrInvalidOperation, http.StatusBadRequest},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrGateway, http.StatusBadGateway},
		{ErrReconciliationUnresolved, http.StatusUnprocessableEntity},
		{ErrHTTPClient, http.StatusInternalServerError},
		{ErrDatabase, http.StatusInternalServerError},
		{ErrSystem, http.StatusInternalServerError},
	}
)

const (
	ErrCodeHTTPClient               = "http_client_error"
	ErrCodeSystemError              = "system_error"
	ErrCodeNotFound                 = "not_found"
	ErrCodeAlreadyExists            = "already_exists"
	ErrCodeConflict                 = "conflict"
	ErrCodeValidation               = "validation_error"
	ErrCodeInvalidOperation         = "invalid_operation"
	ErrCodePermissionDenied         = "permission_denied"
	ErrCodeGateway                  = "gateway_error"
	ErrCodeReconciliationUnresolved = "reconciliation_unresolved"
	ErrCodeDatabase                 = "database_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// New creates a new InternalError
func New(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsPermissionDenied checks if an error is a permission denied error
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsGateway checks if an error came from the payment gateway
func IsGateway(err error) bool {
	return errors.Is(err, ErrGateway)
}

func IsReconciliationUnresolved(err error) bool {
	return errors.Is(err, ErrReconciliationUnresolved)
}

// IsHTTPClient checks if an error is an http client error
func IsHTTPClient(err error) bool {
	return errors.Is(err, ErrHTTPClient)
}

// IsDatabase checks if an error is a database error
func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

func HTTPStatusFromErr(err error) int {
	for _, m := range statusCodeMap {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
