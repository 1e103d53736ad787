package ifaces

import (
	"context"

	"github.com/edup2p/lobbylink/types/addrbook"
	"github.com/edup2p/lobbylink/types/key"
)

// TransportCallbacks are the connection events a transport reports.
//
// Both may be called from any goroutine, and must not block for long.
type TransportCallbacks interface {
	// OnClientConnected is called when a client, possibly the local one, completed its connection.
	OnClientConnected(peerID string)

	// OnClientDisconnect is called when a client, possibly the local one, lost or failed its connection.
	//
	// For the local client, Transport.DisconnectReason is readable by the time this is called.
	OnClientDisconnect(peerID string)
}

// Transport is the network transport a client connects through.
type Transport interface {
	// StartClient starts the client side of the transport. Returns false if it refused to start.
	StartClient() bool

	// Shutdown stops the transport, it is safe to call when it was not started.
	Shutdown() error

	// DisconnectReason returns the out-of-band reason the last disconnect carried, "" if none.
	DisconnectReason() string

	// RegisterAddressBookEntry makes a peer reachable and trusted.
	RegisterAddressBookEntry(entry addrbook.Entry) error

	// SetHostPublicKey tells the transport which key the host authenticates with.
	SetHostPublicKey(pub key.NodePublic) error

	// InstallCallbacks installs the receiver of connection events, replacing the previous one.
	InstallCallbacks(TransportCallbacks)
}

// ConnectionMethod prepares the transport for one particular way of reaching the host.
type ConnectionMethod interface {
	// SetupClientConnection runs before the client is started, and may block on I/O.
	SetupClientConnection(ctx context.Context) error

	// Name is a lower-case name to be used in logging.
	Name() string
}

// PostStartHook runs after the client started, its failure does not fail the attempt.
type PostStartHook func(ctx context.Context) error
