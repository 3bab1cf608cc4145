package auth

import (
	"time"

	"tonearm/pkg/messages"
)

// StatusResponse represents the state of the pairing with a host.
type StatusResponse struct {
	// Host is the WebSocket URL that was queried.
	Host string `json:"host"`

	// Authenticated is the host's answer to AuthStatus.
	Authenticated bool `json:"authenticated"`

	// User is present when Authenticated is true.
	User *messages.User `json:"user,omitempty"`

	// Voice is the user's voice channel, if any.
	Voice *VoiceStatus `json:"voice,omitempty"`

	// Player is nil when the host has no player.
	Player *PlayerStatus `json:"player,omitempty"`
}

// VoiceStatus describes the voice channel the user is in.
type VoiceStatus struct {
	ChannelID   uint64 `json:"channel_id"`
	ChannelName string `json:"channel_name"`
}

// PlayerStatus summarises the mirrored player.
type PlayerStatus struct {
	Bot     string `json:"bot"`
	Paused  bool   `json:"paused"`
	Mode    string `json:"mode"`
	Current string `json:"current,omitempty"`
	// Position and Length are set when Current is.
	Position time.Duration `json:"position,omitempty"`
	Length   time.Duration `json:"length,omitempty"`
	Queued   int           `json:"queued"`
	Played   int           `json:"played"`
}

// NewVoiceStatus converts a voice state; nil stays nil.
func NewVoiceStatus(v *messages.VoiceState) *VoiceStatus {
	if v == nil {
		return nil
	}
	return &VoiceStatus{ChannelID: v.ChannelID, ChannelName: v.ChannelName}
}

// NewPlayerStatus summarises a player state; nil stays nil.
func NewPlayerStatus(s *messages.PlayerState) *PlayerStatus {
	if s == nil {
		return nil
	}
	ps := &PlayerStatus{
		Bot:    s.Bot.Name,
		Paused: s.Paused,
		Mode:   s.Mode.String(),
		Queued: len(s.Queue),
		Played: len(s.History),
	}
	if s.Current != nil {
		ps.Current = s.Current.Title
		ps.Position = s.Current.Pos
		ps.Length = s.Current.Len
	}
	return ps
}
