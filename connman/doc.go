// Package connman drives a client's connection to a lobby session.
//
// A Manager owns the connection state (see connstate), and serializes every event that can affect it
// through one goroutine: connect and disconnect requests, the transport's callbacks, roster changes
// and the outcome of connection attempts. Attempts run on their own goroutine, and report back
// through the manager's inbox.
package connman
