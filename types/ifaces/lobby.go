package ifaces

import (
	"context"

	"github.com/edup2p/lobbylink/types/connstatus"
	"github.com/edup2p/lobbylink/types/roster"
)

// RosterFeed is the subscribable side of the lobby service.
type RosterFeed interface {
	roster.Feed
}

// LobbyService is the push side of the lobby service.
type LobbyService interface {
	// UpdatePlayerData publishes the local user's player data to the lobby.
	UpdatePlayerData(ctx context.Context, userID string, data map[string]string) error
}

// StatusPublisher receives every published connection status.
//
// Publish must not block.
type StatusPublisher interface {
	Publish(status connstatus.Status)
}
