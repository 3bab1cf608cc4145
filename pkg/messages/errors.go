package messages

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMessage is returned when an envelope does not have exactly
	// one payload matching its kind.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrWrongVariant is returned by PatchPlayerState when the message is
	// not a PlayerState(UpdateState) envelope.
	ErrWrongVariant = errors.New("message is not a player state update")

	// ErrDecode is matched by every patch decoding failure.
	ErrDecode = errors.New("patch decode failed")

	// ErrStaleBaseline is returned when a patch is applied to a state that
	// differs from the one it was generated against.
	ErrStaleBaseline = errors.New("patch baseline does not match target state")

	// ErrTargetMismatch is returned when applying a patch did not reproduce
	// the state the patch was generated for.
	ErrTargetMismatch = errors.New("patched state does not match patch target")
)

// DecodeError describes a patch that could not be decoded or merged.
type DecodeError struct {
	Stage string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("patch decode failed (%s): %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecode) true for any DecodeError.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidMessage, fmt.Sprintf(format, args...))
}
