package wgtransport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"sync"

	"github.com/edup2p/lobbylink/types/addrbook"
	"github.com/edup2p/lobbylink/types/ifaces"
	"github.com/edup2p/lobbylink/types/key"
	"go4.org/netipx"
	"golang.org/x/exp/maps"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// Transport is an ifaces.Transport over a WireGuard Device.
//
// Entries registered while the client is stopped are kept, and configured once it starts. Shutdown
// removes every peer from the device and forgets them.
type Transport struct {
	opts Options
	dev  Device

	mu        sync.Mutex
	callbacks ifaces.TransportCallbacks
	peers     map[key.NodePublic]addrbook.Entry
	hostKey   key.NodePublic
	reason    string

	started bool
	monCan  context.CancelFunc
	monDone chan struct{}
}

func New(opts Options) (*Transport, error) {
	if opts.Device == nil {
		return nil, errors.New("cannot create wireguard transport without device")
	}

	if opts.PrivateKey.IsZero() {
		return nil, errors.New("cannot create wireguard transport without private key")
	}

	o := opts.withDefaults()

	return &Transport{
		opts:  o,
		dev:   o.Device,
		peers: make(map[key.NodePublic]addrbook.Entry),
	}, nil
}

func (t *Transport) L() *slog.Logger {
	return slog.With("transport", "wireguard")
}

func (t *Transport) InstallCallbacks(cb ifaces.TransportCallbacks) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.callbacks = cb
}

func (t *Transport) StartClient() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		t.L().Warn("client already started")
		return false
	}

	priv := wgtypes.Key(key.UnveilPrivate(t.opts.PrivateKey))

	cfg := wgtypes.Config{
		PrivateKey:   &priv,
		ReplacePeers: true,
		Peers:        make([]wgtypes.PeerConfig, 0, len(t.peers)),
	}
	if t.opts.ListenPort != 0 {
		cfg.ListenPort = &t.opts.ListenPort
	}

	for _, e := range t.sortedPeers() {
		cfg.Peers = append(cfg.Peers, t.peerConfig(e))
	}

	t.reason = ""

	if err := t.dev.Configure(cfg); err != nil {
		t.L().Error("could not configure device", "err", err)
		return false
	}

	t.started = true

	ctx, can := context.WithCancel(context.Background())
	t.monCan = can
	t.monDone = make(chan struct{})

	go t.monitor(ctx, t.monDone)

	t.L().Info("started client", "peers", len(cfg.Peers))

	return true
}

func (t *Transport) Shutdown() error {
	t.mu.Lock()
	can, done := t.monCan, t.monDone
	t.monCan, t.monDone = nil, nil
	t.mu.Unlock()

	// the monitor takes the lock, so it is waited for outside of it
	if can != nil {
		can()
		<-done
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	wasStarted := t.started

	t.started = false
	t.reason = ""
	t.hostKey = key.NodePublic{}
	clear(t.peers)

	if !wasStarted {
		return nil
	}

	if err := t.dev.Configure(wgtypes.Config{ReplacePeers: true}); err != nil {
		return fmt.Errorf("could not clear peers: %w", err)
	}

	t.L().Info("shut down client")

	return nil
}

func (t *Transport) DisconnectReason() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.reason
}

func (t *Transport) RegisterAddressBookEntry(e addrbook.Entry) error {
	if !e.Valid() {
		return fmt.Errorf("cannot register invalid entry %s", e)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.peers[e.PublicKey] = e

	if !t.started {
		return nil
	}

	return t.dev.Configure(wgtypes.Config{
		Peers: []wgtypes.PeerConfig{t.peerConfig(e)},
	})
}

func (t *Transport) SetHostPublicKey(pub key.NodePublic) error {
	if pub.IsZero() {
		return errors.New("cannot set zero host key")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.peers[pub]; !ok {
		t.L().Warn("host key set before its entry was registered", "key", pub.Debug())
	}

	t.hostKey = pub
	return nil
}

func (t *Transport) peerConfig(e addrbook.Entry) wgtypes.PeerConfig {
	keepAlive := t.opts.KeepAlive

	allowed := make([]net.IPNet, 0, 1)
	for _, p := range t.opts.AllowedIPs(e) {
		if n := netipx.PrefixIPNet(p.Masked()); n != nil {
			allowed = append(allowed, *n)
		}
	}

	return wgtypes.PeerConfig{
		PublicKey:                   wgtypes.Key(e.PublicKey),
		Endpoint:                    net.UDPAddrFromAddrPort(e.Address),
		PersistentKeepaliveInterval: &keepAlive,
		ReplaceAllowedIPs:           true,
		AllowedIPs:                  allowed,
	}
}

func (t *Transport) sortedPeers() []addrbook.Entry {
	entries := maps.Values(t.peers)

	slices.SortFunc(entries, func(a, b addrbook.Entry) int {
		return bytes.Compare(a.PublicKey[:], b.PublicKey[:])
	})

	return entries
}

// HostKey returns the key of the peer whose handshake counts as connected.
func (t *Transport) HostKey() key.NodePublic {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.hostKey
}

var _ ifaces.Transport = (*Transport)(nil)
