// Package client is the remote's side of a host connection.
//
// A Session owns one WebSocket connection. Run reads the host's messages
// in order, keeping a statesync.Mirror of the player current and routing
// authentication and control replies to the calls waiting for them. When a
// patch cannot be applied the session asks the host for a full state and
// ignores further patches until it arrives.
package client
