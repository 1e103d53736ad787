package ifaces

import (
	"github.com/edup2p/lobbylink/types/addrbook"
	"github.com/edup2p/lobbylink/types/connstatus"
	"github.com/edup2p/lobbylink/types/roster"
)

// ConnectionManager is what connection states get to see of the manager that drives them.
//
// All of its methods must only be called from the manager's own goroutine, which is the one calling into
// the states.
type ConnectionManager interface {
	// SelfID is the local user's ID, as the transport reports it in callbacks.
	SelfID() string

	Transport() Transport
	Book() *addrbook.Book

	// EndSession shuts the transport down. Transport events reported before it returned are dropped
	// from then on, so nothing the old session said reaches a later state.
	EndSession()

	// Publish hands a status to the publisher.
	Publish(status connstatus.Status)

	// LaunchAttempt starts a connection attempt for the current state, its result arrives as an event.
	LaunchAttempt(method ConnectionMethod)

	// WatchRoster subscribes to roster changes for the current state, they arrive as events.
	//
	// Returns nil if the manager has no roster feed.
	WatchRoster() *roster.Subscription

	// CanRetry returns whether the retry policy allows reconnect attempt n, counting from 1.
	CanRetry(attempt int) bool

	// ScheduleRetry delivers a retry timer event to the current state once the delay for attempt n passed.
	ScheduleRetry(attempt int)

	// Fatal reports an invariant violation to the manager's error boundary.
	Fatal(err error)
}
