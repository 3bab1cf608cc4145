package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned when the redirect address cannot be
	// bound, usually because another capture owns the port. It is not
	// retried.
	ErrAlreadyRunning = errors.New("redirect listener already running")

	// ErrBrowserOpen is returned when the authorization URL could not be
	// handed to a browser.
	ErrBrowserOpen = errors.New("failed to open browser")

	// ErrReadLine is returned when the redirect request line could not be
	// read from the connection.
	ErrReadLine = errors.New("failed to read redirect request line")

	// ErrRequestSplit is returned for a request line without a target.
	ErrRequestSplit = errors.New("malformed redirect request line")

	// ErrParse is returned when the request target is not a valid URL.
	ErrParse = errors.New("failed to parse redirect URL")

	// ErrNoCodeInResponse is returned when the redirect has no code parameter.
	ErrNoCodeInResponse = errors.New("no authorization code in redirect")

	// ErrNoCSRFInResponse is returned when the redirect has no state parameter.
	ErrNoCSRFInResponse = errors.New("no CSRF state in redirect")

	// ErrMismatchCSRF matches every *CSRFMismatchError.
	ErrMismatchCSRF = errors.New("CSRF state mismatch")

	// ErrCaptureTimeout is returned when no redirect arrived in time.
	ErrCaptureTimeout = errors.New("timed out waiting for authorization redirect")
)

// CSRFMismatchError is returned when the redirect carried a state that is
// not the one this capture generated. The code that came with it must not
// be used.
type CSRFMismatchError struct {
	Received CSRFToken
	Expected CSRFToken
}

func (e *CSRFMismatchError) Error() string {
	return fmt.Sprintf("CSRF state mismatch: received %s, expected %s", e.Received, e.Expected)
}

func (e *CSRFMismatchError) Is(target error) bool {
	return target == ErrMismatchCSRF
}
