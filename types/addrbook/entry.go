// Package addrbook holds the address book a transport needs to reach and trust lobby peers.
package addrbook

import (
	"fmt"
	"net/netip"
	"strconv"

	"github.com/edup2p/lobbylink/types"
	"github.com/edup2p/lobbylink/types/key"
)

// Entry identifies one connectable peer to the transport: the key it authenticates with, and the
// address it is bound to.
//
// Entry is a value type; two entries are the same if they compare equal with ==.
type Entry struct {
	PublicKey key.NodePublic
	Address   netip.AddrPort
}

// MakeEntry creates an entry, normalising IPv4-mapped IPv6 addresses.
func MakeEntry(pub key.NodePublic, ap netip.AddrPort) Entry {
	return Entry{
		PublicKey: pub,
		Address:   types.NormaliseAddrPort(ap),
	}
}

func (e Entry) IsZero() bool {
	return e == Entry{}
}

// Valid reports whether the entry can be handed to a transport.
func (e Entry) Valid() bool {
	return !e.PublicKey.IsZero() && e.Address.IsValid()
}

func (e Entry) String() string {
	return fmt.Sprintf("%s@%s", e.PublicKey.Debug(), e.Address)
}

const (
	PublicKeyField    = "PublicKey"
	BoundAddressField = "BoundAddress"
	BoundPortField    = "BoundPort"
)

// AppendPlayerData adds the lobby player data fields describing this entry to data.
func (e Entry) AppendPlayerData(data map[string]string) {
	data[PublicKeyField] = e.PublicKey.Marshal()
	data[BoundAddressField] = e.Address.Addr().String()
	data[BoundPortField] = strconv.FormatUint(uint64(e.Address.Port()), 10)
}

// EntryFromPlayerData parses the fields written by AppendPlayerData.
//
// Returns (nil, nil) when data carries no entry at all.
func EntryFromPlayerData(data map[string]string) (*Entry, error) {
	pubStr, hasKey := data[PublicKeyField]
	addrStr, hasAddr := data[BoundAddressField]
	portStr, hasPort := data[BoundPortField]

	if !hasKey && !hasAddr && !hasPort {
		return nil, nil
	}

	if !hasKey || !hasAddr || !hasPort {
		return nil, fmt.Errorf("incomplete address book entry in player data: key=%t address=%t port=%t", hasKey, hasAddr, hasPort)
	}

	pub, err := key.UnmarshalPublic(pubStr)
	if err != nil {
		return nil, fmt.Errorf("could not parse public key: %w", err)
	}

	addr, err := netip.ParseAddr(addrStr)
	if err != nil {
		return nil, fmt.Errorf("could not parse bound address: %w", err)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("could not parse bound port: %w", err)
	}

	e := MakeEntry(*pub, netip.AddrPortFrom(addr, uint16(port)))
	return &e, nil
}
