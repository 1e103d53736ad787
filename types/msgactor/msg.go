package msgactor

import (
	"github.com/edup2p/lobbylink/types/ifaces"
	"github.com/edup2p/lobbylink/types/roster"
)

// ActorMessage is anything the connection manager's inbox accepts.
type ActorMessage interface{}

// Messages

// ======================================================================================================
// From the API

// StartConnecting asks an offline manager to connect with Method.
type StartConnecting struct {
	Method ifaces.ConnectionMethod
}

// RequestDisconnect asks an online manager to leave the session.
type RequestDisconnect struct{}

// ======================================================================================================
// From the transport, Session is the transport session that was current when the callback fired.

type ClientConnected struct {
	Session uint64

	PeerID string
}

type ClientDisconnect struct {
	Session uint64

	PeerID string
}

// ======================================================================================================
// From the manager's own tasks, Gen is the state generation the task was started under.

// AttemptResult is the outcome of one connection attempt, Err is nil on success.
type AttemptResult struct {
	Gen uint64

	ID  string
	Err error
}

// RosterChanged carries identity-relevant roster changes.
type RosterChanged struct {
	Gen uint64

	Changes []roster.Change
}

// RetryTimer fires when a scheduled retry is due.
type RetryTimer struct {
	Gen uint64

	Attempt int
}
