package remote

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes remote call failures. Codes, not message text,
// drive the retry/terminal decisions elsewhere in the client.
type ErrorCode string

const (
	// CodeNetwork indicates a connectivity failure before a response
	// was received.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeTimeout indicates the 30-second call deadline expired.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeAuthRequired indicates the server demanded authentication.
	CodeAuthRequired ErrorCode = "AUTH_REQUIRED"

	// CodeAccessDenied indicates the identity is not authorized.
	CodeAccessDenied ErrorCode = "ACCESS_DENIED"

	// CodeServer indicates a 5xx-class HTTP response.
	CodeServer ErrorCode = "SERVER_ERROR"

	// CodeNotLoggedIn indicates the local precondition failed: no
	// authenticated identity, so no call was attempted.
	CodeNotLoggedIn ErrorCode = "NOT_LOGGED_IN"

	// CodeRejected indicates the server processed the request and
	// refused it for a reason that retrying will not change.
	CodeRejected ErrorCode = "REQUEST_REJECTED"

	// CodeBadResponse indicates a response body that could not be
	// interpreted on a call that requires one.
	CodeBadResponse ErrorCode = "MALFORMED_RESPONSE"
)

// APIError is the structured error for every remote call failure.
type APIError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s: %s (http %d)", e.Code, e.Message, e.HTTPStatus)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the failure may resolve on a later
// attempt: connectivity and timeout errors, 5xx responses, and
// authentication failures (the user can log back in). Everything else
// is terminal.
// Uses errors.As to handle wrapped errors.
func IsRetryable(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	switch ae.Code {
	case CodeNetwork, CodeTimeout, CodeServer, CodeAuthRequired, CodeAccessDenied, CodeNotLoggedIn:
		return true
	}
	return false
}

// IsAuthError reports whether the server rejected the caller's
// identity. Observing one forces the session cache clear.
func IsAuthError(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Code == CodeAuthRequired || ae.Code == CodeAccessDenied
}

// IsNotLoggedIn reports whether the call was refused locally for lack
// of an authenticated identity.
func IsNotLoggedIn(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Code == CodeNotLoggedIn
}
