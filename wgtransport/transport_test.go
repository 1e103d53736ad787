package wgtransport

import (
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/edup2p/lobbylink/types/addrbook"
	"github.com/edup2p/lobbylink/types/connstatus"
	"github.com/edup2p/lobbylink/types/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

const (
	assertEventuallyTimeout = 2 * time.Second
	assertEventuallyTick    = 5 * time.Millisecond
)

// Fake device used in these tests, it applies configurations the way a real device would.
type FakeDevice struct {
	mu      sync.Mutex
	configs []wgtypes.Config
	priv    *wgtypes.Key
	peers   map[wgtypes.Key]wgtypes.Peer

	// refuseStart fails every configuration that sets the private key
	refuseStart bool
}

func newFakeDevice() *FakeDevice {
	return &FakeDevice{peers: make(map[wgtypes.Key]wgtypes.Peer)}
}

func (fd *FakeDevice) Configure(cfg wgtypes.Config) error {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.refuseStart && cfg.PrivateKey != nil {
		return errors.New("device refused configuration")
	}

	fd.configs = append(fd.configs, cfg)

	if cfg.PrivateKey != nil {
		fd.priv = cfg.PrivateKey
	}
	if cfg.ReplacePeers {
		clear(fd.peers)
	}

	for _, pc := range cfg.Peers {
		if pc.Remove {
			delete(fd.peers, pc.PublicKey)
			continue
		}

		p := fd.peers[pc.PublicKey]
		p.PublicKey = pc.PublicKey
		p.Endpoint = pc.Endpoint
		if pc.PersistentKeepaliveInterval != nil {
			p.PersistentKeepaliveInterval = *pc.PersistentKeepaliveInterval
		}
		if pc.ReplaceAllowedIPs {
			p.AllowedIPs = nil
		}
		p.AllowedIPs = append(p.AllowedIPs, pc.AllowedIPs...)
		fd.peers[pc.PublicKey] = p
	}

	return nil
}

func (fd *FakeDevice) Peers() ([]wgtypes.Peer, error) {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	peers := make([]wgtypes.Peer, 0, len(fd.peers))
	for _, p := range fd.peers {
		peers = append(peers, p)
	}
	return peers, nil
}

func (fd *FakeDevice) Close() error {
	return nil
}

func (fd *FakeDevice) setRefuseStart(refuse bool) {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	fd.refuseStart = refuse
}

func (fd *FakeDevice) handshake(pub key.NodePublic, at time.Time) {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	p, ok := fd.peers[wgtypes.Key(pub)]
	if !ok {
		panic("handshake with unknown peer")
	}
	p.LastHandshakeTime = at
	fd.peers[p.PublicKey] = p
}

func (fd *FakeDevice) peer(pub key.NodePublic) (wgtypes.Peer, bool) {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	p, ok := fd.peers[wgtypes.Key(pub)]
	return p, ok
}

func (fd *FakeDevice) peerCount() int {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	return len(fd.peers)
}

type callbackRecorder struct {
	mu           sync.Mutex
	connected    []string
	disconnected []string
}

func (cr *callbackRecorder) OnClientConnected(peerID string) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.connected = append(cr.connected, peerID)
}

func (cr *callbackRecorder) OnClientDisconnect(peerID string) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.disconnected = append(cr.disconnected, peerID)
}

func (cr *callbackRecorder) counts() (int, int) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return len(cr.connected), len(cr.disconnected)
}

func newTestTransport(t *testing.T, tweak func(o *Options)) (*Transport, *FakeDevice, *callbackRecorder) {
	t.Helper()

	dev := newFakeDevice()
	opts := Options{
		Device:         dev,
		PrivateKey:     key.NewNode(),
		SelfID:         "self",
		PollInterval:   5 * time.Millisecond,
		ConnectTimeout: time.Minute,
		StaleAfter:     time.Minute,
	}
	if tweak != nil {
		tweak(&opts)
	}

	tr, err := New(opts)
	require.NoError(t, err)

	cr := &callbackRecorder{}
	tr.InstallCallbacks(cr)

	t.Cleanup(func() {
		_ = tr.Shutdown()
	})

	return tr, dev, cr
}

func mkEntry(ap string) addrbook.Entry {
	return addrbook.MakeEntry(key.NewNode().Public(), netip.MustParseAddrPort(ap))
}

func TestRegisterBeforeAndAfterStart(t *testing.T) {
	tr, dev, _ := newTestTransport(t, nil)

	before := mkEntry("10.0.0.1:51820")
	require.NoError(t, tr.RegisterAddressBookEntry(before))
	assert.Equal(t, 0, dev.peerCount(), "device configured before start")

	require.True(t, tr.StartClient())

	p, ok := dev.peer(before.PublicKey)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1:51820", p.Endpoint.String())
	assert.Equal(t, DefaultKeepAlive, p.PersistentKeepaliveInterval)
	require.Len(t, p.AllowedIPs, 1)
	assert.Equal(t, "10.0.0.1/32", p.AllowedIPs[0].String())

	after := mkEntry("10.0.0.2:51820")
	require.NoError(t, tr.RegisterAddressBookEntry(after))

	_, ok = dev.peer(after.PublicKey)
	assert.True(t, ok)
}

func TestStartTwiceRefused(t *testing.T) {
	tr, _, _ := newTestTransport(t, nil)

	assert.True(t, tr.StartClient())
	assert.False(t, tr.StartClient())
}

func TestHostHandshakeConnects(t *testing.T) {
	tr, dev, cr := newTestTransport(t, nil)

	host := mkEntry("10.0.0.1:51820")
	require.NoError(t, tr.RegisterAddressBookEntry(host))
	require.NoError(t, tr.SetHostPublicKey(host.PublicKey))
	require.True(t, tr.StartClient())

	dev.handshake(host.PublicKey, time.Now())

	assert.Eventually(t, func() bool { c, _ := cr.counts(); return c == 1 }, assertEventuallyTimeout, assertEventuallyTick)

	assert.Equal(t, []string{"self"}, cr.connected)
}

func TestConnectTimeout(t *testing.T) {
	tr, _, cr := newTestTransport(t, func(o *Options) {
		o.ConnectTimeout = 30 * time.Millisecond
	})

	host := mkEntry("10.0.0.1:51820")
	require.NoError(t, tr.RegisterAddressBookEntry(host))
	require.NoError(t, tr.SetHostPublicKey(host.PublicKey))
	require.True(t, tr.StartClient())

	assert.Eventually(t, func() bool { _, d := cr.counts(); return d == 1 }, assertEventuallyTimeout, assertEventuallyTick)

	c, _ := cr.counts()
	assert.Equal(t, 0, c)
	assert.Equal(t, "", tr.DisconnectReason())
}

func TestStaleHandshakeDisconnects(t *testing.T) {
	tr, dev, cr := newTestTransport(t, func(o *Options) {
		o.StaleAfter = 50 * time.Millisecond
	})

	host := mkEntry("10.0.0.1:51820")
	require.NoError(t, tr.RegisterAddressBookEntry(host))
	require.NoError(t, tr.SetHostPublicKey(host.PublicKey))
	require.True(t, tr.StartClient())

	dev.handshake(host.PublicKey, time.Now())

	assert.Eventually(t, func() bool {
		c, d := cr.counts()
		return c == 1 && d == 1
	}, assertEventuallyTimeout, assertEventuallyTick)
}

func TestShutdownForgetsPeers(t *testing.T) {
	tr, dev, _ := newTestTransport(t, nil)

	host := mkEntry("10.0.0.1:51820")
	require.NoError(t, tr.RegisterAddressBookEntry(host))
	require.NoError(t, tr.SetHostPublicKey(host.PublicKey))
	require.True(t, tr.StartClient())
	require.Equal(t, 1, dev.peerCount())

	require.NoError(t, tr.Shutdown())

	assert.Equal(t, 0, dev.peerCount())
	assert.True(t, tr.HostKey().IsZero())

	// Shutting down twice, or before start, is fine.
	assert.NoError(t, tr.Shutdown())

	require.True(t, tr.StartClient())
	assert.Equal(t, 0, dev.peerCount())
}

func TestAbortCarriesReason(t *testing.T) {
	tr, _, cr := newTestTransport(t, nil)

	assert.Error(t, tr.Abort(connstatus.HostEndedSession), "aborted a stopped client")

	require.True(t, tr.StartClient())
	require.NoError(t, tr.Abort(connstatus.HostEndedSession))

	_, d := cr.counts()
	assert.Equal(t, 1, d)

	status, err := connstatus.DecodeReason(tr.DisconnectReason())
	require.NoError(t, err)
	assert.Equal(t, connstatus.HostEndedSession, status)

	require.NoError(t, tr.Shutdown())
	assert.Equal(t, "", tr.DisconnectReason(), "reason outlived its session")
}

func TestRefusedStartClearsReason(t *testing.T) {
	tr, dev, _ := newTestTransport(t, nil)

	require.True(t, tr.StartClient())
	require.NoError(t, tr.Abort(connstatus.HostEndedSession))

	// A refused start must not report the previous session's reason.
	require.NoError(t, tr.Shutdown())
	dev.setRefuseStart(true)

	assert.False(t, tr.StartClient())
	assert.Equal(t, "", tr.DisconnectReason())
}

func TestRejectsInvalidInput(t *testing.T) {
	_, err := New(Options{PrivateKey: key.NewNode()})
	assert.Error(t, err)

	_, err = New(Options{Device: newFakeDevice()})
	assert.Error(t, err)

	tr, _, _ := newTestTransport(t, nil)
	assert.Error(t, tr.RegisterAddressBookEntry(addrbook.Entry{}))
	assert.Error(t, tr.SetHostPublicKey(key.NodePublic{}))
}
