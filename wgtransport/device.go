// Package wgtransport implements a client transport over a WireGuard device.
//
// Address book entries become WireGuard peers, and the host's first handshake is what counts as the
// client being connected.
package wgtransport

import "golang.zx2c4.com/wireguard/wgctrl/wgtypes"

// Device is a WireGuard device, configured in wgctrl's terms regardless of how it is implemented.
type Device interface {
	// Configure applies cfg, peers not mentioned are kept unless cfg.ReplacePeers is set.
	Configure(cfg wgtypes.Config) error

	// Peers returns the peers currently on the device, with their handshake and traffic statistics.
	Peers() ([]wgtypes.Peer, error)

	Close() error
}
