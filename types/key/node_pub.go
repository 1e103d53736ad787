package key

import (
	"encoding/hex"
	"fmt"
	"strings"

	"go4.org/mem"
)

// NodePublic is the public half of a peer identity, as it is advertised in the lobby and
// registered with the transport.
type NodePublic NakedKey

// Debug is the short form used in log lines.
func (n NodePublic) Debug() string {
	return fmt.Sprintf("%x", n[:4])
}

func (n NodePublic) HexString() string {
	return hex.EncodeToString(n[:])
}

func (n NodePublic) IsZero() bool {
	return n == NodePublic{}
}

// AppendText appends the lobby text form of n ("nodekey:" and 64 hex digits) to b.
func (n NodePublic) AppendText(b []byte) ([]byte, error) {
	return appendHexKey(b, nodePublicHexPrefix, n[:]), nil
}

// MarshalText is the form published in lobby player data and shown by the shell.
func (n NodePublic) MarshalText() ([]byte, error) {
	return n.AppendText(nil)
}

// UnmarshalText accepts only the prefixed form MarshalText produces.
func (n *NodePublic) UnmarshalText(b []byte) error {
	return parseHex(n[:], mem.B(b), mem.S(nodePublicHexPrefix))
}

// UnmarshalPublic parses a key as typed by a user or read from player data, quoted or not.
func UnmarshalPublic(s string) (*NodePublic, error) {
	pub := new(NodePublic)

	if err := pub.UnmarshalText([]byte(strings.Trim(s, "\""))); err != nil {
		return nil, fmt.Errorf("invalid node key %q: %w", s, err)
	}

	return pub, nil
}

// Marshal is MarshalText as a string, for player data values.
func (n NodePublic) Marshal() string {
	b, _ := n.MarshalText()
	return string(b)
}
