// Package oauth captures an OAuth2 authorization code on the client side.
//
// Capture generates a CSRF state, binds a single-shot TCP listener on the
// redirect address, opens the provider's authorization page in the user's
// browser and waits for the provider to redirect back. The first request
// line received is parsed for its code and state; the browser is always
// answered with a plain "This page can be closed now" page, and the code is
// returned only when the state matches the generated one.
//
// The capture is bounded by the context and CaptureConfig.Timeout; either
// releases the port.
//
// # Errors
//
//   - ErrAlreadyRunning: the redirect address could not be bound
//   - ErrBrowserOpen: no browser could be launched
//   - ErrReadLine, ErrRequestSplit, ErrParse: the redirect request was unreadable
//   - ErrNoCodeInResponse, ErrNoCSRFInResponse: a parameter was missing
//   - *CSRFMismatchError (ErrMismatchCSRF): the state did not match
//   - ErrCaptureTimeout: no redirect arrived in time
package oauth
