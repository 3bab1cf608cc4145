package messages

import (
	"fmt"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// PlayMode controls what happens when the current track ends.
type PlayMode uint8

const (
	PlayModeNormal PlayMode = iota
	PlayModeLoopAll
	PlayModeLoopOne
)

func (m PlayMode) String() string {
	switch m {
	case PlayModeNormal:
		return "Normal"
	case PlayModeLoopAll:
		return "LoopAll"
	case PlayModeLoopOne:
		return "LoopOne"
	default:
		return fmt.Sprintf("PlayMode(%d)", uint8(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m PlayMode) Valid() bool {
	return m <= PlayModeLoopOne
}

// ParsePlayMode accepts the names printed by String, case-sensitively.
func ParsePlayMode(s string) (PlayMode, error) {
	for _, m := range []PlayMode{PlayModeNormal, PlayModeLoopAll, PlayModeLoopOne} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown play mode %q", s)
}

// BotInfo identifies the bot the player belongs to.
type BotInfo struct {
	Name   string `cbor:"0,keyasint" json:"name"`
	Avatar string `cbor:"1,keyasint" json:"avatar"`
}

// Track is a queued, playing or played track.
type Track struct {
	Len   time.Duration `cbor:"0,keyasint" json:"len"`
	Pos   time.Duration `cbor:"1,keyasint" json:"pos"`
	Title string        `cbor:"2,keyasint" json:"title"`
	URI   string        `cbor:"3,keyasint" json:"uri"`
}

// PlayerState is the host-owned playback state mirrored by clients.
//
// The json tags define the document the sync patches are computed over;
// Current is omitted when nil so that a patch can remove it.
type PlayerState struct {
	Bot     BotInfo  `cbor:"0,keyasint" json:"bot"`
	Paused  bool     `cbor:"1,keyasint" json:"paused"`
	Mode    PlayMode `cbor:"2,keyasint" json:"mode"`
	Current *Track   `cbor:"3,keyasint" json:"current,omitempty"`
	History []Track  `cbor:"4,keyasint" json:"history"`
	Queue   []Track  `cbor:"5,keyasint" json:"queue"`
}

// Clone returns a deep copy.
func (s PlayerState) Clone() PlayerState {
	out := s
	if s.Current != nil {
		cur := *s.Current
		out.Current = &cur
	}
	if s.History != nil {
		out.History = append([]Track(nil), s.History...)
	}
	if s.Queue != nil {
		out.Queue = append([]Track(nil), s.Queue...)
	}
	return out
}

// Normalized returns a deep copy in which nil sequences are replaced by
// empty ones. Fingerprints and patches are computed over this form, so a
// nil and an empty queue are the same state.
func (s PlayerState) Normalized() PlayerState {
	out := s.Clone()
	if out.History == nil {
		out.History = []Track{}
	}
	if out.Queue == nil {
		out.Queue = []Track{}
	}
	return out
}

type playerState PlayerState

// Equal reports whether two states describe the same playback, treating nil
// and empty sequences as equal.
func (s PlayerState) Equal(o PlayerState) bool {
	return cmp.Equal(playerState(s), playerState(o), cmpopts.EquateEmpty())
}

// VoiceState is the voice channel the user is connected to.
type VoiceState struct {
	ChannelID   uint64 `cbor:"0,keyasint"`
	ChannelName string `cbor:"1,keyasint"`
}

// StateKind identifies the active variant of a State.
type StateKind uint8

const (
	StateFull StateKind = iota + 1
	StateUpdate
	StateEmpty
)

func (k StateKind) String() string {
	switch k {
	case StateFull:
		return "FullState"
	case StateUpdate:
		return "UpdateState"
	case StateEmpty:
		return "EmptyState"
	default:
		return fmt.Sprintf("StateKind(%d)", uint8(k))
	}
}

// State is a player sync payload: a full snapshot, a patch against the
// receiver's previous state, or notice that the player state was cleared.
type State struct {
	Kind   StateKind    `cbor:"0,keyasint"`
	Full   *PlayerState `cbor:"1,keyasint,omitempty"`
	Update []byte       `cbor:"2,keyasint"`
}

// FullState builds a snapshot envelope.
func FullState(s PlayerState) Message {
	c := s.Clone()
	return NewPlayerState(&State{Kind: StateFull, Full: &c})
}

// UpdateState builds a patch envelope from the output of GeneratePatch.
func UpdateState(patch []byte) Message {
	return NewPlayerState(&State{Kind: StateUpdate, Update: patch})
}

// EmptyState builds the envelope announcing that there is nothing to mirror.
func EmptyState() Message {
	return NewPlayerState(&State{Kind: StateEmpty})
}

func (s State) Validate() error {
	switch s.Kind {
	case StateFull:
		if s.Full == nil {
			return invalidf("FullState without snapshot")
		}
		if s.Update != nil {
			return invalidf("FullState carries a patch")
		}
		if !s.Full.Mode.Valid() {
			return invalidf("FullState with unknown play mode %d", s.Full.Mode)
		}
	case StateUpdate:
		if s.Full != nil {
			return invalidf("UpdateState carries a snapshot")
		}
		if len(s.Update) == 0 {
			return invalidf("UpdateState without patch")
		}
	case StateEmpty:
		if s.Full != nil || s.Update != nil {
			return invalidf("EmptyState carries a payload")
		}
	default:
		return invalidf("unknown state kind %d", s.Kind)
	}
	return nil
}
