// Package host serves the player to one remote client over WebSocket.
//
// Each connection is a session. A session answers authentication and
// control requests and, once the client is authenticated, keeps it in sync
// with the player: a full state first, then patches against whatever it
// sent last. A client that loses track asks for a resync and gets a full
// state again.
//
// Protocol violations are answered with an Unexpected message rather than
// by closing the connection: text frames, undecodable frames and messages
// only the host may send.
//
// Only one client may be paired with the host at a time; further
// connections are refused with 409 Conflict until the current one ends.
package host
