package messages

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// maxFrameSize bounds a single envelope; a full state with a long history is
// a few hundred KiB at most.
const maxFrameSize = 8 << 20

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("messages: cbor encode mode: %v", err))
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		MaxArrayElements:  1 << 20,
		MaxMapPairs:       1 << 16,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("messages: cbor decode mode: %v", err))
	}
	return dm
}

// Marshal encodes v with the deterministic wire encoding. Equal values
// always produce identical bytes.
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data with the strict wire decoding.
func Unmarshal(data []byte, v interface{}) error {
	return decMode.Unmarshal(data, v)
}

// Generate encodes the message for the wire.
func (m Message) Generate() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	b, err := Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding %s message: %w", m.Kind, err)
	}
	return b, nil
}

// Parse decodes a wire message and validates it.
func Parse(data []byte) (Message, error) {
	if len(data) > maxFrameSize {
		return Message{}, invalidf("frame of %d bytes exceeds limit", len(data))
	}
	var m Message
	if err := Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}
