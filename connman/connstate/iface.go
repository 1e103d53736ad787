package connstate

import (
	"github.com/edup2p/lobbylink/types/ifaces"
	"github.com/edup2p/lobbylink/types/roster"
)

// ConnState defines an interface with which the connection lifecycle can be driven.
//
// The ConnState return value is effectively a nullable; if its nil, then keep the current state.
// If it's non-nil, exit the current state, and enter the state returned.
//
// All methods are called from the manager's goroutine only.
type ConnState interface {
	// Enter is called once the state became current, and sets up what the state owns.
	Enter()
	// Exit is called once before the state is replaced, and tears down what Enter set up.
	Exit()

	OnConnect(method ifaces.ConnectionMethod) ConnState
	OnDisconnectRequest() ConnState

	OnClientConnected(peerID string) ConnState
	OnClientDisconnect(peerID string) ConnState

	// OnAttemptResult is called with the outcome of an attempt this state launched, err is nil on success.
	OnAttemptResult(id string, err error) ConnState
	OnRosterChanged(changes []roster.Change) ConnState
	OnRetryTimer(attempt int) ConnState

	// Name returns a lower-case name to be used in logging.
	Name() string

	Kind() Kind
}
