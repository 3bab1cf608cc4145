package messages

import "fmt"

// UnexpectedKind identifies what a peer did wrong.
type UnexpectedKind uint8

const (
	// UnexpectedTextFrame: the peer sent a text frame; the protocol is binary.
	UnexpectedTextFrame UnexpectedKind = iota + 1
	// UnexpectedParseError: a binary frame could not be parsed.
	UnexpectedParseError
	// UnexpectedMessageType: a well-formed message arrived in the wrong direction.
	UnexpectedMessageType
)

func (k UnexpectedKind) String() string {
	switch k {
	case UnexpectedTextFrame:
		return "WsMessageTypeString"
	case UnexpectedParseError:
		return "ParseError"
	case UnexpectedMessageType:
		return "MessageType"
	default:
		return fmt.Sprintf("UnexpectedKind(%d)", uint8(k))
	}
}

// Unexpected is sent back to a peer that violated the protocol.
type Unexpected struct {
	Kind UnexpectedKind `cbor:"0,keyasint"`
	// Text holds the text frame, the parse failure reason, or the offending
	// message type name depending on Kind.
	Text string `cbor:"1,keyasint"`
	// Raw holds the undecodable frame for UnexpectedParseError.
	Raw []byte `cbor:"2,keyasint"`
}

// TextFrame reports a text frame received on a binary protocol.
func TextFrame(text string) Message {
	return NewUnexpected(Unexpected{Kind: UnexpectedTextFrame, Text: text})
}

// ParseFailure reports an undecodable frame along with why it failed.
func ParseFailure(raw []byte, reason string) Message {
	return NewUnexpected(Unexpected{Kind: UnexpectedParseError, Text: reason, Raw: raw})
}

// WrongMessageType reports a message that is not valid in this direction.
func WrongMessageType(name string) Message {
	return NewUnexpected(Unexpected{Kind: UnexpectedMessageType, Text: name})
}

func (u Unexpected) Validate() error {
	switch u.Kind {
	case UnexpectedTextFrame, UnexpectedMessageType:
		if u.Raw != nil {
			return invalidf("%s carries raw bytes", u.Kind)
		}
	case UnexpectedParseError:
	default:
		return invalidf("unknown unexpected kind %d", u.Kind)
	}
	return nil
}
