package client

import (
	"errors"
	"fmt"
)

// The pipeline is the sole translator from transport and parse failures into
// this taxonomy; callers never see raw network errors.
var (
	// ErrSessionExpired means the access token was refused and renewal
	// failed. The caller should force a sign-out and return to login.
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrInvalidServerResponse means the response body was not valid JSON.
	// A system fault, not a user input problem.
	ErrInvalidServerResponse = errors.New("invalid server response")

	// ErrServerUnavailable covers transport failures and 5xx responses that
	// carry no business verdict.
	ErrServerUnavailable = errors.New("service unavailable")
)

// BusinessError is an application-level rejection delivered with an HTTP
// success status but an explicit failure flag in the envelope. Message and
// Code come from the backend verbatim.
type BusinessError struct {
	Code    int
	Message string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("business error %d: %s", e.Code, e.Message)
}
