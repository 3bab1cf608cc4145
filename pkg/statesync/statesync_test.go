package statesync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonearm/pkg/messages"
)

func track(title string, pos time.Duration) messages.Track {
	return messages.Track{Len: 3 * time.Minute, Pos: pos, Title: title, URI: "https://music.example.com/" + title}
}

func initialState() messages.PlayerState {
	cur := track("first", 0)
	return messages.PlayerState{
		Bot:     messages.BotInfo{Name: "bot", Avatar: "avatar.png"},
		Current: &cur,
		Queue:   []messages.Track{track("second", 0), track("third", 0)},
	}
}

// wire pushes a message through the binary codec like the transport does.
func wire(t *testing.T, msg messages.Message) messages.Message {
	t.Helper()
	data, err := msg.Generate()
	require.NoError(t, err)
	parsed, err := messages.Parse(data)
	require.NoError(t, err)
	return parsed
}

func TestPublisher_FirstMessageIsFullState(t *testing.T) {
	p := NewPublisher()
	assert.False(t, p.HasBaseline())

	msg, ok := p.Next(initialState())
	require.True(t, ok)
	require.Equal(t, messages.KindPlayerState, msg.Kind)
	assert.Equal(t, messages.StateFull, msg.PlayerState.Kind)
	assert.True(t, p.HasBaseline())
}

func TestPublisher_UnchangedStateSendsNothing(t *testing.T) {
	p := NewPublisher()
	_, ok := p.Next(initialState())
	require.True(t, ok)

	_, ok = p.Next(initialState())
	assert.False(t, ok)
}

func TestPublisher_ChangesArePatches(t *testing.T) {
	p := NewPublisher()
	state := initialState()
	_, _ = p.Next(state)

	state.Paused = true
	msg, ok := p.Next(state)
	require.True(t, ok)
	assert.Equal(t, messages.StateUpdate, msg.PlayerState.Kind)
}

func TestPublisher_ResetForcesFullState(t *testing.T) {
	p := NewPublisher()
	state := initialState()
	_, _ = p.Next(state)

	p.Reset()
	state.Paused = true
	msg, ok := p.Next(state)
	require.True(t, ok)
	assert.Equal(t, messages.StateFull, msg.PlayerState.Kind)
}

func TestPublisher_ClearSendsEmptyState(t *testing.T) {
	p := NewPublisher()
	_, _ = p.Next(initialState())

	msg := p.Clear()
	assert.Equal(t, messages.StateEmpty, msg.PlayerState.Kind)
	assert.False(t, p.HasBaseline())

	next, ok := p.Next(initialState())
	require.True(t, ok)
	assert.Equal(t, messages.StateFull, next.PlayerState.Kind)
}

func TestMirror_TracksHostThroughPlayback(t *testing.T) {
	p := NewPublisher()
	mirror := NewMirror()
	host := initialState()

	steps := []func(*messages.PlayerState){
		func(s *messages.PlayerState) { s.Current.Pos = 3 * time.Second },
		func(s *messages.PlayerState) { s.Paused = true },
		func(s *messages.PlayerState) { s.Paused = false; s.Mode = messages.PlayModeLoopAll },
		func(s *messages.PlayerState) {
			s.History = append(s.History, *s.Current)
			next := s.Queue[0]
			s.Current = &next
			s.Queue = s.Queue[1:]
		},
		func(s *messages.PlayerState) { s.Queue = append(s.Queue, track("fourth", 0)) },
		func(s *messages.PlayerState) { s.Current = nil },
		func(s *messages.PlayerState) { s.Queue = nil; s.History = s.History[:0] },
	}

	msg, ok := p.Next(host)
	require.True(t, ok)
	require.NoError(t, mirror.Apply(wire(t, msg)))

	for i, step := range steps {
		step(&host)
		msg, ok := p.Next(host)
		require.True(t, ok, "step %d produced no message", i)
		assert.Equal(t, messages.StateUpdate, msg.PlayerState.Kind)

		require.NoError(t, mirror.Apply(wire(t, msg)), "step %d", i)

		got, ok := mirror.State()
		require.True(t, ok)
		assert.True(t, host.Equal(got), "step %d: mirror diverged\nhost   %+v\nmirror %+v", i, host, got)
	}
}

func TestMirror_DroppedMessageRequiresResync(t *testing.T) {
	p := NewPublisher()
	mirror := NewMirror()
	host := initialState()

	msg, _ := p.Next(host)
	require.NoError(t, mirror.Apply(msg))

	host.Paused = true
	_, _ = p.Next(host) // lost in transit

	host.Current.Pos = time.Minute
	msg, _ = p.Next(host)
	err := mirror.Apply(msg)
	assert.ErrorIs(t, err, ErrResyncRequired)
	assert.ErrorIs(t, err, messages.ErrStaleBaseline)
	assert.True(t, mirror.NeedsResync())

	// Further patches are refused until a full state arrives.
	host.Mode = messages.PlayModeLoopOne
	msg, _ = p.Next(host)
	assert.ErrorIs(t, mirror.Apply(msg), ErrResyncRequired)

	p.Reset()
	msg, _ = p.Next(host)
	require.NoError(t, mirror.Apply(msg))
	assert.False(t, mirror.NeedsResync())

	got, ok := mirror.State()
	require.True(t, ok)
	assert.True(t, host.Equal(got))
}

func TestMirror_PatchWithoutBaseline(t *testing.T) {
	p := NewPublisher()
	host := initialState()
	_, _ = p.Next(host)
	host.Paused = true
	msg, _ := p.Next(host)

	mirror := NewMirror()
	assert.ErrorIs(t, mirror.Apply(msg), ErrResyncRequired)
	assert.True(t, mirror.NeedsResync())
}

func TestMirror_EmptyAndNoPlayer(t *testing.T) {
	mirror := NewMirror()
	require.NoError(t, mirror.Apply(messages.FullState(initialState())))

	require.NoError(t, mirror.Apply(messages.EmptyState()))
	_, ok := mirror.State()
	assert.False(t, ok)

	require.NoError(t, mirror.Apply(messages.FullState(initialState())))
	require.NoError(t, mirror.Apply(messages.NewPlayerState(nil)))
	_, ok = mirror.State()
	assert.False(t, ok)
}

func TestMirror_RejectsOtherVariants(t *testing.T) {
	mirror := NewMirror()
	assert.ErrorIs(t, mirror.Apply(messages.AuthStatus(true)), messages.ErrWrongVariant)
}

func TestMirror_StateIsACopy(t *testing.T) {
	mirror := NewMirror()
	require.NoError(t, mirror.Apply(messages.FullState(initialState())))

	got, _ := mirror.State()
	got.Queue[0].Title = "changed"
	got.Current.Title = "changed"

	again, _ := mirror.State()
	assert.Equal(t, "second", again.Queue[0].Title)
	assert.Equal(t, "first", again.Current.Title)
}
