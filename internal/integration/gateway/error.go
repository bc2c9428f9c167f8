package gateway

import "fmt"

const defaultErrorMessage = "payment gateway request failed"

// Error is a failed gateway call. StatusCode is 0 when the gateway was
// never reached.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Operation  string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("gateway %s: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("gateway %s: status %d: %s", e.Operation, e.StatusCode, e.Message)
}
