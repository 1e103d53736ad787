package addrbook

import (
	"context"
	"log/slog"
	"net/netip"
	"slices"
	"sync"

	"github.com/edup2p/lobbylink/types"
	"go4.org/netipx"
	"golang.org/x/exp/maps"
)

// Book maps peer identities (lobby user IDs) to their address book entries, and tracks which peer is
// the designated host.
//
// All methods are safe for concurrent use. Writers are expected to be serialized by the owner of the
// connection state, readers may be anywhere.
type Book struct {
	mu sync.RWMutex

	entries map[string]Entry
	host    string
}

func NewBook() *Book {
	return &Book{
		entries: make(map[string]Entry),
	}
}

// Merge inserts or overwrites the entry for peer, returns true if the stored value changed.
//
// Merging an equal value is a no-op.
func (b *Book) Merge(peer string, e Entry) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.entries[peer]; ok && old == e {
		return false
	}

	b.entries[peer] = e

	slog.Log(context.Background(), types.LevelTrace, "addrbook: merged entry", "peer", peer, "entry", e)

	return true
}

// Remove drops the entry for peer, and clears the host designation if it pointed at peer.
// Returns true if anything was removed.
func (b *Book) Remove(peer string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.entries[peer]
	delete(b.entries, peer)

	if b.host == peer {
		b.host = ""
		ok = true
	}

	return ok
}

// SetHost designates peer as the host, or clears the designation if peer is empty.
// Returns true if the designation changed.
func (b *Book) SetHost(peer string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.host == peer {
		return false
	}

	b.host = peer
	return true
}

// Host returns the designated host's peer ID, or "" if none.
func (b *Book) Host() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.host
}

// HostEntry returns the designated host's entry, if a host is flagged and its entry is known.
func (b *Book) HostEntry() (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.host == "" {
		return Entry{}, false
	}

	e, ok := b.entries[b.host]
	return e, ok
}

func (b *Book) Get(peer string) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.entries[peer]
	return e, ok
}

// Peers returns the sorted IDs of all peers with an entry.
func (b *Book) Peers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	peers := maps.Keys(b.entries)
	slices.Sort(peers)
	return peers
}

// Entries returns a copy of all entries.
func (b *Book) Entries() map[string]Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return maps.Clone(b.entries)
}

// Clear forgets all entries and the host designation.
func (b *Book) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	clear(b.entries)
	b.host = ""
}

func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.entries)
}

// AddrSet returns the set of addresses all known peers are bound to.
func (b *Book) AddrSet() (*netipx.IPSet, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var sb netipx.IPSetBuilder

	for _, e := range b.entries {
		if e.Address.IsValid() {
			sb.Add(e.Address.Addr())
		}
	}

	return sb.IPSet()
}

// Contains reports whether addr belongs to any known peer.
func (b *Book) Contains(addr netip.Addr) bool {
	set, err := b.AddrSet()
	if err != nil {
		return false
	}

	return set.Contains(types.NormaliseAddr(addr))
}
