package binance

import "fmt"

// ExchangeError is the generic error for a request the exchange rejected.
type ExchangeError struct {
	Op         string
	HTTPStatus int
	Code       int
	Message    string
}

func (e *ExchangeError) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("binance %s: HTTP %d code=%d %s", e.Op, e.HTTPStatus, e.Code, e.Message)
	}
	return fmt.Sprintf("binance %s: %s", e.Op, e.Message)
}

// AuthenticationError means the API keys are missing, invalid or lack permissions.
type AuthenticationError struct {
	Op      string
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("binance %s: authentication failed: %s", e.Op, e.Message)
}

// NetworkError wraps transport-level failures (timeout, DNS, connection reset).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("binance %s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// classifyHTTPError translates an HTTP failure into the typed taxonomy.
func classifyHTTPError(op string, status int, code int, message string) error {
	if status == 401 || status == 403 {
		return &AuthenticationError{Op: op, Message: message}
	}
	return &ExchangeError{Op: op, HTTPStatus: status, Code: code, Message: message}
}
