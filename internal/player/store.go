package player

import (
	"errors"
	"sync"

	"tonearm/pkg/messages"
)

// ErrNoPlayer is returned by Update when the bot is not in a channel.
var ErrNoPlayer = errors.New("no active player")

// Snapshot is a consistent copy of the store. A nil State means there is no
// player; a nil Voice means the user is not in a voice channel.
type Snapshot struct {
	State *messages.PlayerState
	Voice *messages.VoiceState
}

// Store holds the player and voice state. Subscribers are notified with
// the latest snapshot after every change; a slow subscriber only ever sees
// the newest one.
type Store struct {
	mu    sync.RWMutex
	state *messages.PlayerState
	voice *messages.VoiceState

	subs   map[int]chan Snapshot
	nextID int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{subs: make(map[int]chan Snapshot)}
}

// Snapshot returns deep copies of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	var snap Snapshot
	if s.state != nil {
		c := s.state.Clone()
		snap.State = &c
	}
	if s.voice != nil {
		v := *s.voice
		snap.Voice = &v
	}
	return snap
}

// Update runs fn on a copy of the player state and commits the copy if fn
// succeeds. Subscribers are notified only when the state actually changed.
func (s *Store) Update(fn func(*messages.PlayerState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return ErrNoPlayer
	}
	next := s.state.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if next.Equal(*s.state) {
		return nil
	}
	s.state = &next
	s.notifyLocked()
	return nil
}

// SetState replaces the player state; nil removes the player.
func (s *Store) SetState(state *messages.PlayerState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state != nil {
		c := state.Clone()
		state = &c
	}
	s.state = state
	s.notifyLocked()
}

// SetVoice records the user's voice channel; nil means disconnected.
func (s *Store) SetVoice(voice *messages.VoiceState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if voice != nil {
		v := *voice
		voice = &v
	}
	s.voice = voice
	s.notifyLocked()
}

// Subscribe returns a channel that receives the current snapshot
// immediately and the latest one after each change. cancel closes the
// channel.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, 1)
	ch <- s.snapshotLocked()
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) notifyLocked() {
	if len(s.subs) == 0 {
		return
	}
	for _, ch := range s.subs {
		// Drop a snapshot the subscriber has not picked up yet.
		select {
		case <-ch:
		default:
		}
		ch <- s.snapshotLocked()
	}
}
