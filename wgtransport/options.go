package wgtransport

import (
	"net/netip"
	"time"

	"github.com/edup2p/lobbylink/types/addrbook"
	"github.com/edup2p/lobbylink/types/key"
)

const (
	DefaultKeepAlive      = time.Second * 25
	DefaultConnectTimeout = time.Second * 15
	// DefaultStaleAfter is a bit over wireguard's reject-after time, past which a session without a
	// fresh handshake cannot carry traffic.
	DefaultStaleAfter   = time.Minute*3 + time.Second*15
	DefaultPollInterval = time.Second
)

type Options struct {
	Device     Device
	PrivateKey key.NodePrivate

	// ListenPort is left as the device has it when zero.
	ListenPort int

	// SelfID is the peer ID callbacks report the local client by.
	SelfID string

	// AllowedIPs returns the addresses routed to a peer, it defaults to the entry's own address.
	AllowedIPs func(e addrbook.Entry) []netip.Prefix

	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	StaleAfter     time.Duration
	PollInterval   time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o

	if out.AllowedIPs == nil {
		out.AllowedIPs = SingleHostAllowedIPs
	}
	if out.KeepAlive == 0 {
		out.KeepAlive = DefaultKeepAlive
	}
	if out.ConnectTimeout == 0 {
		out.ConnectTimeout = DefaultConnectTimeout
	}
	if out.StaleAfter == 0 {
		out.StaleAfter = DefaultStaleAfter
	}
	if out.PollInterval == 0 {
		out.PollInterval = DefaultPollInterval
	}

	return out
}

// SingleHostAllowedIPs routes just the address the peer is bound to.
func SingleHostAllowedIPs(e addrbook.Entry) []netip.Prefix {
	addr := e.Address.Addr()
	return []netip.Prefix{netip.PrefixFrom(addr, addr.BitLen())}
}
