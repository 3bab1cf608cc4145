package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// csrfTokenBytes is the amount of entropy in a generated token.
const csrfTokenBytes = 32

// CSRFToken is the state value round-tripped through the authorization
// redirect. It prints as a short fingerprint so it can be logged.
type CSRFToken struct {
	secret string
}

// NewCSRFToken wraps a state value received from a redirect.
func NewCSRFToken(secret string) CSRFToken {
	return CSRFToken{secret: secret}
}

// GenerateCSRFToken returns 32 random bytes, base64url encoded.
func GenerateCSRFToken() (CSRFToken, error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return CSRFToken{}, fmt.Errorf("failed to generate CSRF token: %w", err)
	}
	return CSRFToken{secret: base64.RawURLEncoding.EncodeToString(b)}, nil
}

// Secret returns the raw state value.
func (t CSRFToken) Secret() string { return t.secret }

// Equal compares secrets in constant time.
func (t CSRFToken) Equal(o CSRFToken) bool {
	return subtle.ConstantTimeCompare([]byte(t.secret), []byte(o.secret)) == 1
}

// String returns the length and a short hash of the secret.
func (t CSRFToken) String() string {
	sum := sha256.Sum256([]byte(t.secret))
	return fmt.Sprintf("csrf[len=%d sha256=%s]", len(t.secret), hex.EncodeToString(sum[:4]))
}

func (t CSRFToken) GoString() string { return t.String() }
