package connman

import (
	"context"
	"time"

	"github.com/edup2p/lobbylink/types/ifaces"
)

type Options struct {
	Ctx context.Context

	// SelfID is the ID the transport reports the local client by, in its callbacks.
	SelfID string

	Transport ifaces.Transport

	// Roster may be nil, then the address book only follows what connection methods set up.
	Roster ifaces.RosterFeed

	// Publisher defaults to LogPublisher.
	Publisher ifaces.StatusPublisher

	// Retry enables reconnecting after a dropped connection, nil disables it.
	Retry *RetryPolicy

	PostStart []ifaces.PostStartHook

	// SetupTimeout defaults to DefaultSetupTimeout, a negative value disables it.
	SetupTimeout time.Duration
}
