package statesync

import (
	"errors"
	"fmt"
	"sync"

	"tonearm/pkg/messages"
)

// ErrResyncRequired is returned when the mirror can no longer apply patches
// and needs a full state from the host.
var ErrResyncRequired = errors.New("mirror out of sync, full state required")

// Mirror is a client's non-authoritative copy of the host's player state.
// Apply must be called from a single goroutine in message order; State may
// be called concurrently.
type Mirror struct {
	mu    sync.RWMutex
	state *messages.PlayerState
	stale bool
}

// NewMirror returns an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{}
}

// Apply folds a PlayerState message into the mirror. Messages of other kinds
// return messages.ErrWrongVariant.
func (m *Mirror) Apply(msg messages.Message) error {
	if msg.Kind != messages.KindPlayerState {
		return fmt.Errorf("%w: got %s", messages.ErrWrongVariant, msg.Kind)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.PlayerState == nil {
		m.state = nil
		m.stale = false
		return nil
	}

	switch msg.PlayerState.Kind {
	case messages.StateFull:
		snapshot := msg.PlayerState.Full.Normalized()
		m.state = &snapshot
		m.stale = false
		return nil

	case messages.StateEmpty:
		m.state = nil
		m.stale = false
		return nil

	case messages.StateUpdate:
		if m.stale {
			return ErrResyncRequired
		}
		if m.state == nil {
			m.stale = true
			return fmt.Errorf("%w: patch received without a baseline", ErrResyncRequired)
		}

		next := m.state.Clone()
		if err := msg.PatchPlayerState(&next); err != nil {
			m.stale = true
			return fmt.Errorf("%w: %w", ErrResyncRequired, err)
		}
		m.state = &next
		return nil

	default:
		return fmt.Errorf("%w: unknown state kind %d", messages.ErrInvalidMessage, msg.PlayerState.Kind)
	}
}

// State returns a copy of the mirrored state; ok is false when there is
// nothing mirrored.
func (m *Mirror) State() (state messages.PlayerState, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == nil {
		return messages.PlayerState{}, false
	}
	return m.state.Clone(), true
}

// NeedsResync reports whether a patch failed and a full state is required.
func (m *Mirror) NeedsResync() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.stale
}
