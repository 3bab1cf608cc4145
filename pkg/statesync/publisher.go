package statesync

import (
	"sync"

	"tonearm/pkg/logging"
	"tonearm/pkg/messages"
)

// Publisher turns successive authoritative states into sync messages for a
// single receiver.
type Publisher struct {
	mu       sync.Mutex
	baseline *messages.PlayerState
}

// NewPublisher returns a publisher with no baseline; its first message is
// always a full state.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Next returns the message that brings the receiver from the last published
// state to state. ok is false when nothing changed and no message needs to
// be sent.
func (p *Publisher) Next(state messages.PlayerState) (msg messages.Message, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := state.Normalized()

	if p.baseline == nil {
		p.baseline = &snapshot
		return messages.FullState(snapshot), true
	}

	if p.baseline.Equal(snapshot) {
		return messages.Message{}, false
	}

	patch, err := messages.GeneratePatch(*p.baseline, snapshot)
	if err != nil {
		logging.Error("StateSync", err, "Failed to compute patch, sending full state")
		p.baseline = &snapshot
		return messages.FullState(snapshot), true
	}

	p.baseline = &snapshot
	return messages.UpdateState(patch), true
}

// Clear forgets the baseline and returns the EmptyState message announcing
// that there is no player state to mirror.
func (p *Publisher) Clear() messages.Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.baseline = nil
	return messages.EmptyState()
}

// Reset drops the baseline so the next message is a full state. It is used
// when the receiver asks for a resync.
func (p *Publisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.baseline = nil
}

// HasBaseline reports whether the next message may be a patch.
func (p *Publisher) HasBaseline() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.baseline != nil
}
