package oauth

// AccessToken is a short-lived provider credential. Its expiry is not
// tracked; callers re-run the exchange when the provider answers 401.
//
// AccessToken implements fmt.Stringer and fmt.GoStringer to return
// "[REDACTED]", so the value never leaks into log messages or error
// strings.
type AccessToken struct {
	value string
}

// NewAccessToken wraps a raw token value.
func NewAccessToken(value string) AccessToken {
	return AccessToken{value: value}
}

// Value returns the actual token value. Use it only to build the
// Authorization header; never log the result.
func (t AccessToken) Value() string {
	return t.value
}

// String implements fmt.Stringer.
func (t AccessToken) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (t AccessToken) GoString() string {
	return "oauth.AccessToken{[REDACTED]}"
}

// IsEmpty returns true if the token value is empty.
func (t AccessToken) IsEmpty() bool {
	return t.value == ""
}

// MarshalText implements encoding.TextMarshaler, returning "[REDACTED]"
// to prevent accidental serialization of the token value.
func (t AccessToken) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}
