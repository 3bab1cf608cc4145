package messages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePatch_ApplyProducesNewState(t *testing.T) {
	base := sampleState()

	tests := []struct {
		name   string
		mutate func(*PlayerState)
	}{
		{"no change", func(s *PlayerState) {}},
		{"pause", func(s *PlayerState) { s.Paused = true }},
		{"mode", func(s *PlayerState) { s.Mode = PlayModeLoopOne }},
		{"bot renamed", func(s *PlayerState) { s.Bot.Name = "Renamed"; s.Bot.Avatar = "" }},
		{"current position", func(s *PlayerState) { s.Current.Pos += time.Second }},
		{"current cleared", func(s *PlayerState) { s.Current = nil }},
		{"history shrinks", func(s *PlayerState) { s.History = s.History[:1] }},
		{"history emptied", func(s *PlayerState) { s.History = nil }},
		{"queue grows", func(s *PlayerState) { s.Queue = append(s.Queue, track("q2", 0, 60), track("q3", 0, 61)) }},
		{"queue reorders", func(s *PlayerState) {
			s.Queue = append(s.Queue, track("q2", 0, 60))
			s.Queue[0], s.Queue[1] = s.Queue[1], s.Queue[0]
		}},
		{"track advances", func(s *PlayerState) {
			s.History = append(s.History, *s.Current)
			next := s.Queue[0]
			s.Current = &next
			s.Queue = s.Queue[1:]
		}},
		{"title emptied", func(s *PlayerState) { s.History[0].Title = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated := base.Clone()
			tt.mutate(&updated)

			patch, err := GeneratePatch(base, updated)
			require.NoError(t, err)

			mirror := base.Clone()
			require.NoError(t, ApplyPatch(patch, &mirror))
			assert.True(t, updated.Equal(mirror), "want %+v\ngot  %+v", updated, mirror)
		})
	}
}

func TestGeneratePatch_CurrentAppears(t *testing.T) {
	old := PlayerState{Bot: BotInfo{Name: "BotName"}}
	cur := track("fresh", 0, 120)
	updated := old.Clone()
	updated.Current = &cur

	patch, err := GeneratePatch(old, updated)
	require.NoError(t, err)

	mirror := old.Clone()
	require.NoError(t, ApplyPatch(patch, &mirror))
	require.NotNil(t, mirror.Current)
	assert.Equal(t, cur, *mirror.Current)
}

// Host state {paused:false, history:[T1(pos=3s), T2], queue:[]} moves to
// {paused:false, history:[T1(pos=4s)]}; the patch applied to the client's
// copy of the old state yields exactly the new state.
func TestPatchPlayerState_HistoryScenario(t *testing.T) {
	bot := BotInfo{Name: "BotName", Avatar: "Avatar"}
	old := PlayerState{
		Bot:  bot,
		Mode: PlayModeNormal,
		History: []Track{
			{Len: 5 * time.Second, Pos: 3 * time.Second, Title: "t1", URI: "u1"},
			{Len: 8 * time.Second, Pos: 2 * time.Second, Title: "t2", URI: "u1"},
		},
		Queue: []Track{},
	}
	updated := PlayerState{
		Bot:  bot,
		Mode: PlayModeNormal,
		History: []Track{
			{Len: 5 * time.Second, Pos: 4 * time.Second, Title: "t1", URI: "u1"},
		},
		Queue: []Track{},
	}

	patch, err := GeneratePatch(old, updated)
	require.NoError(t, err)

	data, err := UpdateState(patch).Generate()
	require.NoError(t, err)
	msg, err := Parse(data)
	require.NoError(t, err)

	mirror := old.Clone()
	require.NoError(t, msg.PatchPlayerState(&mirror))
	assert.True(t, updated.Equal(mirror))
	assert.Equal(t, updated.History, mirror.History)
}

func TestPatch_IsSmallerThanFullState(t *testing.T) {
	old := sampleState()
	for i := 0; i < 50; i++ {
		old.History = append(old.History, track("h", i, 200))
	}
	updated := old.Clone()
	updated.Current.Pos += time.Second

	patch, err := GeneratePatch(old, updated)
	require.NoError(t, err)
	full, err := FullState(updated).Generate()
	require.NoError(t, err)

	assert.Less(t, len(patch), len(full)/4)
}

func TestApplyPatch_StaleBaseline(t *testing.T) {
	old := sampleState()
	updated := old.Clone()
	updated.Paused = true

	patch, err := GeneratePatch(old, updated)
	require.NoError(t, err)

	drifted := old.Clone()
	drifted.Queue = nil
	before := drifted.Clone()

	err = ApplyPatch(patch, &drifted)
	assert.ErrorIs(t, err, ErrStaleBaseline)
	assert.True(t, before.Equal(drifted), "target must be untouched on failure")
}

func TestApplyPatch_AppliedTwiceIsRejected(t *testing.T) {
	old := sampleState()
	updated := old.Clone()
	updated.Mode = PlayModeNormal

	patch, err := GeneratePatch(old, updated)
	require.NoError(t, err)

	mirror := old.Clone()
	require.NoError(t, ApplyPatch(patch, &mirror))
	assert.ErrorIs(t, ApplyPatch(patch, &mirror), ErrStaleBaseline)
	assert.True(t, updated.Equal(mirror))
}

func TestApplyPatch_DecodeErrors(t *testing.T) {
	state := sampleState()
	base, err := Fingerprint(state)
	require.NoError(t, err)

	badMerge, err := Marshal(patchFrame{Base: base, Target: 1, Merge: []byte("{not json")})
	require.NoError(t, err)

	tests := []struct {
		name  string
		patch []byte
	}{
		{"not cbor", []byte{0xff, 0xff, 0xff}},
		{"wrong shape", []byte{0x01}},
		{"bad merge document", badMerge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := state.Clone()
			err := ApplyPatch(tt.patch, &target)
			assert.ErrorIs(t, err, ErrDecode)

			var decodeErr *DecodeError
			assert.ErrorAs(t, err, &decodeErr)
			assert.True(t, state.Equal(target))
		})
	}
}

func TestApplyPatch_TargetMismatch(t *testing.T) {
	state := sampleState()
	base, err := Fingerprint(state)
	require.NoError(t, err)

	frame, err := Marshal(patchFrame{Base: base, Target: base + 1, Merge: []byte(`{"paused":true}`)})
	require.NoError(t, err)

	target := state.Clone()
	assert.ErrorIs(t, ApplyPatch(frame, &target), ErrTargetMismatch)
	assert.False(t, target.Paused)
}

func TestPatchPlayerState_WrongVariant(t *testing.T) {
	tests := []Message{
		FullState(sampleState()),
		EmptyState(),
		NewPlayerState(nil),
		AuthStatus(true),
		End(),
	}

	for _, msg := range tests {
		t.Run(msg.describe(), func(t *testing.T) {
			state := sampleState()
			assert.ErrorIs(t, msg.PatchPlayerState(&state), ErrWrongVariant)
		})
	}
}

func TestFingerprint_NilAndEmptyAgree(t *testing.T) {
	a, err := Fingerprint(PlayerState{})
	require.NoError(t, err)
	b, err := Fingerprint(PlayerState{History: []Track{}, Queue: []Track{}})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Fingerprint(PlayerState{Paused: true})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
