// Package statesync keeps a client's mirror of the player state in step with
// the host.
//
// The host side keeps one Publisher per connected client. Publisher.Next
// decides between a full snapshot (no baseline yet, or after Reset) and an
// incremental patch against the last state that client was sent.
//
// The client side feeds every PlayerState message, in arrival order, to a
// Mirror. Patches are only valid against the immediately preceding state, so
// a patch that fails to apply puts the mirror in a stale state; it then
// rejects further patches with ErrResyncRequired until a full snapshot
// arrives.
package statesync
