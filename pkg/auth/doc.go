// Package auth provides the pairing status report printed by the
// status command, in a form that serializes cleanly to JSON for scripts.
package auth
