// Package messages defines the envelope exchanged between a tonearm client
// and its host, and the binary encoding used on the wire.
//
// A Message is a closed tagged union: Kind names the active variant and
// exactly one matching payload field is populated. Nested unions
// (ClientRequest, Auth, AuthMessage, PlayerControl, State, Unexpected) follow
// the same pattern. Validate rejects envelopes with a missing or stray
// payload, and Generate/Parse refuse to emit or accept them.
//
// # Wire format
//
// Envelopes are encoded as deterministic CBOR with integer map keys. Parse
// rejects unknown fields and duplicate keys, so a successful Parse of a
// Generate output always reproduces the original message.
//
// # Player state patches
//
// A State of kind StateUpdate carries an opaque patch produced by
// GeneratePatch. The patch embeds fingerprints of the state it was computed
// from and the state it produces, so ApplyPatch refuses to run against a
// mirror that has drifted from the host instead of silently corrupting it.
package messages
