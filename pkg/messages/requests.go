package messages

import (
	"fmt"
	"net/url"
	"time"
)

// RequestKind identifies the active variant of a ClientRequest.
type RequestKind uint8

const (
	RequestAuthenticate RequestKind = iota + 1
	RequestAuthStatus
	RequestControl
	RequestEnd
	// RequestResync asks the host to drop its sync baseline and send the
	// full player state next.
	RequestResync
)

func (k RequestKind) String() string {
	switch k {
	case RequestAuthenticate:
		return "Authenticate"
	case RequestAuthStatus:
		return "AuthStatus"
	case RequestControl:
		return "Control"
	case RequestEnd:
		return "End"
	case RequestResync:
		return "Resync"
	default:
		return fmt.Sprintf("RequestKind(%d)", uint8(k))
	}
}

// ClientRequest is sent by a client to its host.
type ClientRequest struct {
	Kind RequestKind `cbor:"0,keyasint"`
	// Auth is set for RequestAuthenticate.
	Auth *Auth `cbor:"1,keyasint,omitempty"`
	// ID correlates a RequestControl with its PlayerControlResult.
	ID      string         `cbor:"2,keyasint,omitempty"`
	Control *PlayerControl `cbor:"3,keyasint,omitempty"`
}

// Authenticate builds an Authenticate request envelope.
func Authenticate(a Auth) Message {
	return NewClientRequest(ClientRequest{Kind: RequestAuthenticate, Auth: &a})
}

// AuthStatusRequest builds an AuthStatus request envelope.
func AuthStatusRequest() Message {
	return NewClientRequest(ClientRequest{Kind: RequestAuthStatus})
}

// Control builds a player control request envelope.
func Control(id string, c PlayerControl) Message {
	return NewClientRequest(ClientRequest{Kind: RequestControl, ID: id, Control: &c})
}

// End builds the request that closes a session.
func End() Message {
	return NewClientRequest(ClientRequest{Kind: RequestEnd})
}

// Resync builds the request that forces a full state on the next update.
func Resync() Message {
	return NewClientRequest(ClientRequest{Kind: RequestResync})
}

func (r ClientRequest) Validate() error {
	switch r.Kind {
	case RequestAuthenticate:
		if r.Auth == nil {
			return invalidf("Authenticate request without credential")
		}
		if r.Control != nil {
			return invalidf("Authenticate request carries a control")
		}
		return r.Auth.Validate()
	case RequestControl:
		if r.Control == nil {
			return invalidf("Control request without control")
		}
		if r.Auth != nil {
			return invalidf("Control request carries a credential")
		}
		if r.ID == "" {
			return invalidf("Control request without id")
		}
		return r.Control.Validate()
	case RequestAuthStatus, RequestEnd, RequestResync:
		if r.Auth != nil || r.Control != nil {
			return invalidf("%s request carries a payload", r.Kind)
		}
		return nil
	default:
		return invalidf("unknown request kind %d", r.Kind)
	}
}

// AuthKind tells which credential an Auth carries.
type AuthKind uint8

const (
	AuthCode AuthKind = iota + 1
	AuthToken
)

func (k AuthKind) String() string {
	switch k {
	case AuthCode:
		return "Code"
	case AuthToken:
		return "Token"
	default:
		return fmt.Sprintf("AuthKind(%d)", uint8(k))
	}
}

// Auth is the credential a client presents to the host: either a freshly
// captured authorization code or a refresh token from an earlier session.
type Auth struct {
	Kind         AuthKind          `cbor:"0,keyasint"`
	Code         AuthorizationCode `cbor:"1,keyasint,omitempty"`
	RefreshToken RefreshToken      `cbor:"2,keyasint,omitempty"`
}

// CodeAuth wraps an authorization code.
func CodeAuth(code AuthorizationCode) Auth {
	return Auth{Kind: AuthCode, Code: code}
}

// TokenAuth wraps a refresh token.
func TokenAuth(token RefreshToken) Auth {
	return Auth{Kind: AuthToken, RefreshToken: token}
}

func (a Auth) Validate() error {
	switch a.Kind {
	case AuthCode:
		if a.RefreshToken != "" {
			return invalidf("code credential carries a refresh token")
		}
	case AuthToken:
		if a.Code != "" {
			return invalidf("token credential carries a code")
		}
	default:
		return invalidf("unknown credential kind %d", a.Kind)
	}
	return nil
}

// ControlKind identifies a player control.
type ControlKind uint8

const (
	ControlResume ControlKind = iota + 1
	ControlPause
	ControlSkip
	ControlBackSkip
	ControlSetTime
	ControlPlayMode
	ControlEnqueue
	ControlLeave
	ControlJoin
)

var controlNames = map[ControlKind]string{
	ControlResume:   "Resume",
	ControlPause:    "Pause",
	ControlSkip:     "Skip",
	ControlBackSkip: "BackSkip",
	ControlSetTime:  "SetTime",
	ControlPlayMode: "PlayMode",
	ControlEnqueue:  "Enqueue",
	ControlLeave:    "Leave",
	ControlJoin:     "Join",
}

func (k ControlKind) String() string {
	if name, ok := controlNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ControlKind(%d)", uint8(k))
}

// PlayerControl is a playback command issued by the client.
type PlayerControl struct {
	Kind ControlKind `cbor:"0,keyasint"`
	// Count is the number of tracks for Skip and BackSkip.
	Count int `cbor:"1,keyasint,omitempty"`
	// Time is the seek position for SetTime.
	Time time.Duration `cbor:"2,keyasint,omitempty"`
	Mode PlayMode      `cbor:"3,keyasint,omitempty"`
	// URL is the track to enqueue.
	URL string `cbor:"4,keyasint,omitempty"`
}

// Enqueue builds an Enqueue control after checking that raw is an absolute
// URL.
func Enqueue(raw string) (PlayerControl, error) {
	c := PlayerControl{Kind: ControlEnqueue, URL: raw}
	if err := c.Validate(); err != nil {
		return PlayerControl{}, err
	}
	return c, nil
}

func (c PlayerControl) String() string {
	switch c.Kind {
	case ControlSkip, ControlBackSkip:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Count)
	case ControlSetTime:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Time)
	case ControlPlayMode:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Mode)
	case ControlEnqueue:
		return fmt.Sprintf("%s(%s)", c.Kind, c.URL)
	default:
		return c.Kind.String()
	}
}

func (c PlayerControl) Validate() error {
	switch c.Kind {
	case ControlSkip, ControlBackSkip:
		if c.Count < 0 {
			return invalidf("%s count must not be negative", c.Kind)
		}
	case ControlSetTime:
		if c.Time < 0 {
			return invalidf("SetTime position must not be negative")
		}
	case ControlPlayMode:
		if !c.Mode.Valid() {
			return invalidf("unknown play mode %d", c.Mode)
		}
	case ControlEnqueue:
		u, err := url.Parse(c.URL)
		if err != nil {
			return invalidf("Enqueue url: %v", err)
		}
		if !u.IsAbs() {
			return invalidf("Enqueue url %q is not absolute", c.URL)
		}
	case ControlResume, ControlPause, ControlLeave, ControlJoin:
	default:
		return invalidf("unknown control kind %d", c.Kind)
	}
	return nil
}

// PlayerControlResult reports the outcome of a Control request. Error is
// empty on success.
type PlayerControlResult struct {
	ID      string        `cbor:"0,keyasint"`
	Request PlayerControl `cbor:"1,keyasint"`
	Error   string        `cbor:"2,keyasint,omitempty"`
}

// OK reports whether the control was applied.
func (r PlayerControlResult) OK() bool {
	return r.Error == ""
}
