package player

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sync"
	"time"

	"tonearm/pkg/logging"
	"tonearm/pkg/messages"
)

var (
	// ErrNothingPlaying is returned for controls that need a current track.
	ErrNothingPlaying = errors.New("nothing is playing")

	// ErrNotInVoice is returned by Join when the user is not in a voice
	// channel the bot could follow them into.
	ErrNotInVoice = errors.New("user is not in a voice channel")

	// ErrSeekOutOfRange is returned by SetTime past the end of the track.
	ErrSeekOutOfRange = errors.New("seek position out of range")

	// ErrNoHistory is returned by BackSkip when nothing has been played.
	ErrNoHistory = errors.New("no previous track")
)

// DefaultTrackLength is used for enqueued tracks whose length is unknown.
const DefaultTrackLength = 3 * time.Minute

// TrackResolver turns an enqueued URL into a track.
type TrackResolver func(u *url.URL) (messages.Track, error)

// Queue is the playback engine. It is the single writer of the Store's
// player state.
type Queue struct {
	store   *Store
	bot     messages.BotInfo
	resolve TrackResolver

	// mu serialises controls with Advance so a tick never interleaves with
	// a skip.
	mu sync.Mutex
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithTrackResolver replaces the URL-to-track resolution.
func WithTrackResolver(r TrackResolver) QueueOption {
	return func(q *Queue) { q.resolve = r }
}

// NewQueue returns a Queue that plays as bot.
func NewQueue(store *Store, bot messages.BotInfo, opts ...QueueOption) *Queue {
	q := &Queue{store: store, bot: bot, resolve: resolveFromURL}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// resolveFromURL names the track after the last path element of its URL.
func resolveFromURL(u *url.URL) (messages.Track, error) {
	title := path.Base(u.Path)
	if title == "/" || title == "." {
		title = u.Host
	}
	return messages.Track{Len: DefaultTrackLength, Title: title, URI: u.String()}, nil
}

// Apply executes a player control.
func (q *Queue) Apply(ctl messages.PlayerControl) error {
	if err := ctl.Validate(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	logging.Debug("Player", "Applying %s", ctl)

	switch ctl.Kind {
	case messages.ControlJoin:
		return q.join()
	case messages.ControlLeave:
		q.store.SetState(nil)
		return nil
	case messages.ControlEnqueue:
		return q.enqueue(ctl.URL)
	}

	return q.store.Update(func(s *messages.PlayerState) error {
		switch ctl.Kind {
		case messages.ControlResume:
			if s.Current == nil {
				return ErrNothingPlaying
			}
			s.Paused = false
		case messages.ControlPause:
			if s.Current == nil {
				return ErrNothingPlaying
			}
			s.Paused = true
		case messages.ControlSkip:
			return skip(s, max(ctl.Count, 1))
		case messages.ControlBackSkip:
			return backSkip(s, max(ctl.Count, 1))
		case messages.ControlSetTime:
			if s.Current == nil {
				return ErrNothingPlaying
			}
			if ctl.Time > s.Current.Len {
				return fmt.Errorf("%w: %s > %s", ErrSeekOutOfRange, ctl.Time, s.Current.Len)
			}
			s.Current.Pos = ctl.Time
		case messages.ControlPlayMode:
			s.Mode = ctl.Mode
		default:
			return fmt.Errorf("unsupported control %s", ctl.Kind)
		}
		return nil
	})
}

func (q *Queue) join() error {
	if q.store.Snapshot().Voice == nil {
		return ErrNotInVoice
	}
	if q.store.Snapshot().State != nil {
		return nil
	}
	q.store.SetState(&messages.PlayerState{Bot: q.bot})
	logging.Info("Player", "Joined voice channel")
	return nil
}

func (q *Queue) enqueue(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	track, err := q.resolve(u)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", raw, err)
	}
	track.Pos = 0
	if track.Len <= 0 {
		track.Len = DefaultTrackLength
	}

	return q.store.Update(func(s *messages.PlayerState) error {
		if s.Current == nil {
			s.Current = &track
			s.Paused = false
			return nil
		}
		s.Queue = append(s.Queue, track)
		return nil
	})
}

// Advance moves playback forward by elapsed, finishing tracks as needed.
func (q *Queue) Advance(elapsed time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	err := q.store.Update(func(s *messages.PlayerState) error {
		for s.Current != nil && !s.Paused && elapsed > 0 {
			remaining := s.Current.Len - s.Current.Pos
			if elapsed < remaining {
				s.Current.Pos += elapsed
				return nil
			}
			elapsed -= remaining
			finish(s)
		}
		return nil
	})
	if errors.Is(err, ErrNoPlayer) {
		return nil
	}
	return err
}

// finish ends the current track according to the play mode.
func finish(s *messages.PlayerState) {
	if s.Mode == messages.PlayModeLoopOne {
		s.Current.Pos = 0
		return
	}
	next(s)
}

// next retires the current track and starts the next queued one.
func next(s *messages.PlayerState) {
	done := *s.Current
	done.Pos = 0
	s.History = append(s.History, done)
	if s.Mode == messages.PlayModeLoopAll {
		s.Queue = append(s.Queue, done)
	}
	s.Current = nil
	if len(s.Queue) > 0 {
		head := s.Queue[0]
		s.Queue = s.Queue[1:]
		s.Current = &head
	}
}

func skip(s *messages.PlayerState, n int) error {
	if s.Current == nil {
		return ErrNothingPlaying
	}
	for i := 0; i < n && s.Current != nil; i++ {
		next(s)
	}
	return nil
}

func backSkip(s *messages.PlayerState, n int) error {
	if len(s.History) == 0 {
		return ErrNoHistory
	}
	for i := 0; i < n && len(s.History) > 0; i++ {
		last := s.History[len(s.History)-1]
		s.History = s.History[:len(s.History)-1]
		if s.Current != nil {
			cur := *s.Current
			cur.Pos = 0
			s.Queue = append([]messages.Track{cur}, s.Queue...)
		}
		s.Current = &last
	}
	return nil
}

// Run advances playback on every tick of interval until ctx is done.
func (q *Queue) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := q.Advance(now.Sub(last)); err != nil {
				logging.Error("Player", err, "Advancing playback failed")
			}
			last = now
		}
	}
}
