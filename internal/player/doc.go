// Package player holds the host's authoritative player state.
//
// Store is the only place the state lives. It is written by a single
// owner, Queue, which turns player controls and elapsed playback time into
// state changes; everything else reads deep copies through Snapshot or a
// subscription.
package player
