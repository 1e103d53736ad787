package connman

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edup2p/lobbylink/types/addrbook"
	"github.com/edup2p/lobbylink/types/connstatus"
	"github.com/edup2p/lobbylink/types/ifaces"
	"github.com/edup2p/lobbylink/types/key"
)

const (
	assertEventuallyTimeout = 2 * time.Second
	assertEventuallyTick    = 5 * time.Millisecond
	assertNeverWindow       = 100 * time.Millisecond
)

// recorder keeps one ordered log of what the transport and the publisher saw.
type recorder struct {
	mu       sync.Mutex
	log      []string
	statuses []connstatus.Status
}

func (r *recorder) record(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log = append(r.log, s)
}

func (r *recorder) Publish(status connstatus.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log = append(r.log, "status:"+status.String())
	r.statuses = append(r.statuses, status)
}

func (r *recorder) Statuses() []connstatus.Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]connstatus.Status(nil), r.statuses...)
}

func (r *recorder) Log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.log...)
}

// Mock transport used in these tests
type MockTransport struct {
	rec *recorder

	mu         sync.Mutex
	startOK    bool
	reason     string
	registered []addrbook.Entry
	hostKey    key.NodePublic
	callbacks  ifaces.TransportCallbacks

	// onShutdown runs inside Shutdown, like a transport reporting while it stops
	onShutdown func()

	starts    atomic.Int32
	shutdowns atomic.Int32
}

func newMockTransport(rec *recorder) *MockTransport {
	return &MockTransport{rec: rec, startOK: true}
}

func (mt *MockTransport) StartClient() bool {
	mt.starts.Add(1)

	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.startOK
}

func (mt *MockTransport) Shutdown() error {
	mt.shutdowns.Add(1)

	mt.mu.Lock()
	fn := mt.onShutdown
	mt.onShutdown = nil
	mt.mu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

func (mt *MockTransport) setOnShutdown(fn func()) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.onShutdown = fn
}

func (mt *MockTransport) DisconnectReason() string {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.reason
}

func (mt *MockTransport) RegisterAddressBookEntry(entry addrbook.Entry) error {
	mt.mu.Lock()
	mt.registered = append(mt.registered, entry)
	mt.mu.Unlock()

	mt.rec.record("register:" + entry.String())
	return nil
}

func (mt *MockTransport) SetHostPublicKey(pub key.NodePublic) error {
	mt.mu.Lock()
	mt.hostKey = pub
	mt.mu.Unlock()

	mt.rec.record("host-key:" + pub.HexString())
	return nil
}

func (mt *MockTransport) InstallCallbacks(cb ifaces.TransportCallbacks) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.callbacks = cb
}

func (mt *MockTransport) setStartOK(ok bool) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.startOK = ok
}

func (mt *MockTransport) setReason(reason string) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.reason = reason
}

func (mt *MockTransport) HostKey() key.NodePublic {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.hostKey
}

func (mt *MockTransport) Registered() []addrbook.Entry {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return append([]addrbook.Entry(nil), mt.registered...)
}

// Mock connection method used in these tests
type MockMethod struct {
	setup func(ctx context.Context) error
	name  func() string

	setups atomic.Int32
}

func (mm *MockMethod) SetupClientConnection(ctx context.Context) error {
	mm.setups.Add(1)

	if mm.setup == nil {
		return nil
	}
	return mm.setup(ctx)
}

func (mm *MockMethod) Name() string {
	if mm.name == nil {
		return "mock"
	}
	return mm.name()
}

// Mock lobby service used in these tests
type MockLobby struct {
	mu   sync.Mutex
	data map[string]map[string]string
	err  error
}

func (ml *MockLobby) UpdatePlayerData(_ context.Context, userID string, data map[string]string) error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.err != nil {
		return ml.err
	}

	if ml.data == nil {
		ml.data = make(map[string]map[string]string)
	}
	ml.data[userID] = data
	return nil
}
