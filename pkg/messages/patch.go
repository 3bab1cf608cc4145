package messages

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// patchFrame is the payload of an UpdateState. Merge is an RFC 7386 merge
// patch over the JSON form of PlayerState; Base and Target fingerprint the
// states on either side of it.
type patchFrame struct {
	Base   uint64 `cbor:"0,keyasint"`
	Target uint64 `cbor:"1,keyasint"`
	Merge  []byte `cbor:"2,keyasint"`
}

// Fingerprint hashes the deterministic encoding of the normalized state.
// Two states have the same fingerprint exactly when they are Equal.
func Fingerprint(s PlayerState) (uint64, error) {
	b, err := Marshal(s.Normalized())
	if err != nil {
		return 0, fmt.Errorf("encoding state for fingerprint: %w", err)
	}
	return xxhash.Sum64(b), nil
}

// GeneratePatch computes the patch that turns old into updated. Only fields that
// differ are carried; sequences that changed are carried whole.
func GeneratePatch(old, updated PlayerState) ([]byte, error) {
	from, to := old.Normalized(), updated.Normalized()

	base, err := Fingerprint(from)
	if err != nil {
		return nil, err
	}
	target, err := Fingerprint(to)
	if err != nil {
		return nil, err
	}

	fromDoc, err := json.Marshal(from)
	if err != nil {
		return nil, fmt.Errorf("encoding base state: %w", err)
	}
	toDoc, err := json.Marshal(to)
	if err != nil {
		return nil, fmt.Errorf("encoding target state: %w", err)
	}

	merge, err := jsonpatch.CreateMergePatch(fromDoc, toDoc)
	if err != nil {
		return nil, fmt.Errorf("computing merge patch: %w", err)
	}

	return Marshal(patchFrame{Base: base, Target: target, Merge: merge})
}

// ApplyPatch mutates target into the state the patch was generated for.
// target must equal the state GeneratePatch was given as old; otherwise
// ErrStaleBaseline is returned. On any error target is left untouched.
func ApplyPatch(patch []byte, target *PlayerState) error {
	var frame patchFrame
	if err := Unmarshal(patch, &frame); err != nil {
		return &DecodeError{Stage: "frame", Err: err}
	}

	current := target.Normalized()
	base, err := Fingerprint(current)
	if err != nil {
		return err
	}
	if base != frame.Base {
		return fmt.Errorf("%w: have %016x, patch expects %016x", ErrStaleBaseline, base, frame.Base)
	}

	doc, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encoding state for patch: %w", err)
	}
	merged, err := jsonpatch.MergePatch(doc, frame.Merge)
	if err != nil {
		return &DecodeError{Stage: "merge", Err: err}
	}

	var next PlayerState
	if err := json.Unmarshal(merged, &next); err != nil {
		return &DecodeError{Stage: "state", Err: err}
	}
	next = next.Normalized()

	got, err := Fingerprint(next)
	if err != nil {
		return err
	}
	if got != frame.Target {
		return fmt.Errorf("%w: got %016x, want %016x", ErrTargetMismatch, got, frame.Target)
	}

	*target = next
	return nil
}

// PatchPlayerState applies the patch carried by a PlayerState(UpdateState)
// message to state. Any other message yields ErrWrongVariant.
func (m Message) PatchPlayerState(state *PlayerState) error {
	if m.Kind != KindPlayerState || m.PlayerState == nil || m.PlayerState.Kind != StateUpdate {
		return fmt.Errorf("%w: got %s", ErrWrongVariant, m.describe())
	}
	return ApplyPatch(m.PlayerState.Update, state)
}

func (m Message) describe() string {
	if m.Kind == KindPlayerState && m.PlayerState != nil {
		return m.PlayerState.Kind.String()
	}
	return m.Kind.String()
}
