package oauth

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoRefreshTokenInResponse is returned when the provider issued an
	// access token without a refresh token. Both are required.
	ErrNoRefreshTokenInResponse = errors.New("no refresh token in provider response")

	// ErrInvalidConfig is returned for an unusable ProviderConfig.
	ErrInvalidConfig = errors.New("invalid provider configuration")

	// ErrUnknownCredential is returned for an Auth of unknown kind.
	ErrUnknownCredential = errors.New("unknown credential kind")
)

// RequestError is a failed request to the provider: a transport failure or
// a rejected grant. Err wraps *oauth2.RetrieveError when the provider
// answered.
type RequestError struct {
	// Grant is "authorization_code", "refresh_token" or "userinfo".
	Grant string
	Err   error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Grant, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ResponseError is a non-200 answer from the profile endpoint. The body is
// not inspected.
type ResponseError struct {
	StatusCode int
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("profile endpoint returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// UserParseError is a 200 profile response that did not decode into a user.
type UserParseError struct {
	Err error
}

func (e *UserParseError) Error() string {
	return fmt.Sprintf("decoding user profile: %v", e.Err)
}

func (e *UserParseError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err means the access token was rejected,
// in which case the caller should exchange the refresh token again.
func IsUnauthorized(err error) bool {
	var respErr *ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusUnauthorized
}
