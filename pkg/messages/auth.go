package messages

import "fmt"

// AuthorizationCode is the single-use code issued by the identity provider
// after the user approves access.
type AuthorizationCode string

// RefreshToken is the long-lived credential used to mint new access tokens.
// It prints as [REDACTED] so it never ends up in logs by accident.
type RefreshToken string

// Secret returns the raw token. Never log the result.
func (t RefreshToken) Secret() string { return string(t) }

func (t RefreshToken) String() string { return "[REDACTED]" }

func (t RefreshToken) GoString() string { return "messages.RefreshToken{[REDACTED]}" }

// User is the identity resolved from the provider's profile endpoint.
type User struct {
	Username string `cbor:"0,keyasint" json:"username"`
	ID       string `cbor:"1,keyasint" json:"id"`
	Avatar   string `cbor:"2,keyasint" json:"avatar"`
}

// AuthMessageKind identifies the active variant of an AuthMessage.
type AuthMessageKind uint8

const (
	AuthMessageStatus AuthMessageKind = iota + 1
	AuthMessageSuccess
	AuthMessageError
)

func (k AuthMessageKind) String() string {
	switch k {
	case AuthMessageStatus:
		return "AuthStatus"
	case AuthMessageSuccess:
		return "AuthSuccess"
	case AuthMessageError:
		return "AuthError"
	default:
		return fmt.Sprintf("AuthMessageKind(%d)", uint8(k))
	}
}

// AuthMessage is the host's answer to Authenticate and AuthStatus requests.
type AuthMessage struct {
	Kind AuthMessageKind `cbor:"0,keyasint"`
	// Authenticated is set for AuthMessageStatus.
	Authenticated bool `cbor:"1,keyasint,omitempty"`
	// User and RefreshToken are set for AuthMessageSuccess. The refresh
	// token is handed back so the client can reconnect without a browser.
	User         *User        `cbor:"2,keyasint,omitempty"`
	RefreshToken RefreshToken `cbor:"3,keyasint,omitempty"`
	// Reason optionally explains an AuthMessageError.
	Reason string `cbor:"4,keyasint,omitempty"`
}

// AuthStatus builds an AuthStatus envelope.
func AuthStatus(authenticated bool) Message {
	return NewAuth(AuthMessage{Kind: AuthMessageStatus, Authenticated: authenticated})
}

// AuthSuccess builds an AuthSuccess envelope.
func AuthSuccess(user User, refresh RefreshToken) Message {
	return NewAuth(AuthMessage{Kind: AuthMessageSuccess, User: &user, RefreshToken: refresh})
}

// AuthError builds an AuthError envelope.
func AuthError(reason string) Message {
	return NewAuth(AuthMessage{Kind: AuthMessageError, Reason: reason})
}

func (a AuthMessage) Validate() error {
	switch a.Kind {
	case AuthMessageStatus:
		if a.User != nil || a.RefreshToken != "" {
			return invalidf("AuthStatus carries credentials")
		}
	case AuthMessageSuccess:
		if a.User == nil {
			return invalidf("AuthSuccess without user")
		}
		if a.RefreshToken == "" {
			return invalidf("AuthSuccess without refresh token")
		}
	case AuthMessageError:
		if a.User != nil || a.RefreshToken != "" {
			return invalidf("AuthError carries credentials")
		}
	default:
		return invalidf("unknown auth message kind %d", a.Kind)
	}
	return nil
}
