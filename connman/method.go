package connman

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"github.com/edup2p/lobbylink/types/addrbook"
	"github.com/edup2p/lobbylink/types/ifaces"
	"github.com/edup2p/lobbylink/types/key"
	"github.com/edup2p/lobbylink/types/roster"
)

// DirectMethod connects to a host whose address and key are known up front.
type DirectMethod struct {
	Transport ifaces.Transport

	// Host is a "host:port" pair, the host part may be a name.
	Host    string
	HostKey key.NodePublic

	// Resolver defaults to net.DefaultResolver.
	Resolver *net.Resolver
}

func (dm *DirectMethod) Name() string {
	return "direct"
}

// SetupClientConnection resolves the host, and registers it with the transport as the host.
func (dm *DirectMethod) SetupClientConnection(ctx context.Context) error {
	if dm.HostKey.IsZero() {
		return errors.New("direct method: no host key")
	}

	ap, err := dm.resolve(ctx)
	if err != nil {
		return fmt.Errorf("direct method: %w", err)
	}

	e := addrbook.MakeEntry(dm.HostKey, ap)

	if err := dm.Transport.RegisterAddressBookEntry(e); err != nil {
		return fmt.Errorf("direct method: could not register host: %w", err)
	}

	if err := dm.Transport.SetHostPublicKey(dm.HostKey); err != nil {
		return fmt.Errorf("direct method: could not set host key: %w", err)
	}

	return nil
}

func (dm *DirectMethod) resolve(ctx context.Context) (netip.AddrPort, error) {
	if ap, err := netip.ParseAddrPort(dm.Host); err == nil {
		return ap, nil
	}

	host, portStr, err := net.SplitHostPort(dm.Host)
	if err != nil {
		return netip.AddrPort{}, err
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("invalid port %q: %w", portStr, err)
	}

	r := dm.Resolver
	if r == nil {
		r = net.DefaultResolver
	}

	addrs, err := r.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("could not resolve %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return netip.AddrPort{}, fmt.Errorf("no addresses for %q", host)
	}

	return netip.AddrPortFrom(addrs[0], uint16(port)), nil
}

// LobbyMethod connects through the lobby: it publishes the local user's entry, so that the host and
// other members can reach it, and learns theirs through the roster.
type LobbyMethod struct {
	Lobby ifaces.LobbyService

	// Local is the local user, with the entry it is bound to.
	Local roster.User
}

func (lm *LobbyMethod) Name() string {
	return "lobby"
}

func (lm *LobbyMethod) SetupClientConnection(ctx context.Context) error {
	if _, ok := lm.Local.AddressBookEntry(); !ok {
		return fmt.Errorf("lobby method: local user %q has no address book entry", lm.Local.ID)
	}

	if err := lm.Lobby.UpdatePlayerData(ctx, lm.Local.ID, lm.Local.PlayerData()); err != nil {
		return fmt.Errorf("lobby method: could not publish player data: %w", err)
	}

	return nil
}
