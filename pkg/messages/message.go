package messages

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Kind identifies the active variant of a Message.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindClientRequest
	KindClientControlResult
	KindAuth
	KindPlayerState
	KindUserVoiceState
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindClientRequest:
		return "ClientRequest"
	case KindClientControlResult:
		return "ClientControlResult"
	case KindAuth:
		return "Auth"
	case KindPlayerState:
		return "PlayerState"
	case KindUserVoiceState:
		return "UserVoiceState"
	case KindUnexpected:
		return "Unexpected"
	default:
		return "Invalid"
	}
}

// Message is the envelope carried between client and host.
//
// PlayerState and UserVoiceState are optional payloads: a nil pointer with
// the matching Kind means "no player" / "not in a voice channel".
type Message struct {
	Kind                Kind                 `cbor:"0,keyasint"`
	ClientRequest       *ClientRequest       `cbor:"1,keyasint,omitempty"`
	ClientControlResult *PlayerControlResult `cbor:"2,keyasint,omitempty"`
	Auth                *AuthMessage         `cbor:"3,keyasint,omitempty"`
	PlayerState         *State               `cbor:"4,keyasint,omitempty"`
	UserVoiceState      *VoiceState          `cbor:"5,keyasint,omitempty"`
	Unexpected          *Unexpected          `cbor:"6,keyasint,omitempty"`
}

// NewClientRequest wraps a client request in an envelope.
func NewClientRequest(r ClientRequest) Message {
	return Message{Kind: KindClientRequest, ClientRequest: &r}
}

// NewControlResult wraps the outcome of a player control request.
func NewControlResult(r PlayerControlResult) Message {
	return Message{Kind: KindClientControlResult, ClientControlResult: &r}
}

// NewAuth wraps an authentication event.
func NewAuth(a AuthMessage) Message {
	return Message{Kind: KindAuth, Auth: &a}
}

// NewPlayerState wraps a sync payload. A nil state announces that the host
// has no player.
func NewPlayerState(s *State) Message {
	return Message{Kind: KindPlayerState, PlayerState: s}
}

// NewUserVoiceState wraps the user's voice channel. A nil state means the
// user is not connected to voice.
func NewUserVoiceState(v *VoiceState) Message {
	return Message{Kind: KindUserVoiceState, UserVoiceState: v}
}

// NewUnexpected wraps a protocol complaint.
func NewUnexpected(u Unexpected) Message {
	return Message{Kind: KindUnexpected, Unexpected: &u}
}

// String returns the variant name.
func (m Message) String() string {
	return m.Kind.String()
}

// Validate checks that exactly the payload matching Kind is set and that
// nested unions are well formed.
func (m Message) Validate() error {
	payloads := map[Kind]bool{
		KindClientRequest:       m.ClientRequest != nil,
		KindClientControlResult: m.ClientControlResult != nil,
		KindAuth:                m.Auth != nil,
		KindPlayerState:         m.PlayerState != nil,
		KindUserVoiceState:      m.UserVoiceState != nil,
		KindUnexpected:          m.Unexpected != nil,
	}
	for kind, present := range payloads {
		if present && kind != m.Kind {
			return invalidf("%s envelope carries a %s payload", m.Kind, kind)
		}
	}

	switch m.Kind {
	case KindClientRequest:
		if m.ClientRequest == nil {
			return invalidf("ClientRequest envelope without payload")
		}
		return m.ClientRequest.Validate()
	case KindClientControlResult:
		if m.ClientControlResult == nil {
			return invalidf("ClientControlResult envelope without payload")
		}
		return m.ClientControlResult.Request.Validate()
	case KindAuth:
		if m.Auth == nil {
			return invalidf("Auth envelope without payload")
		}
		return m.Auth.Validate()
	case KindPlayerState:
		if m.PlayerState == nil {
			return nil
		}
		return m.PlayerState.Validate()
	case KindUserVoiceState:
		return nil
	case KindUnexpected:
		if m.Unexpected == nil {
			return invalidf("Unexpected envelope without payload")
		}
		return m.Unexpected.Validate()
	default:
		return invalidf("unknown message kind %d", m.Kind)
	}
}

// message strips the Equal method so cmp does not recurse into it.
type message Message

// Equal reports structural equality. Messages of different kinds are never
// equal, even when their payloads happen to coincide.
func (m Message) Equal(o Message) bool {
	if m.Kind != o.Kind {
		return false
	}
	return cmp.Equal(message(m), message(o), cmpopts.EquateEmpty())
}
