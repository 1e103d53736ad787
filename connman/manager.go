package connman

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edup2p/lobbylink/connman/connstate"
	"github.com/edup2p/lobbylink/types"
	"github.com/edup2p/lobbylink/types/addrbook"
	"github.com/edup2p/lobbylink/types/connstatus"
	"github.com/edup2p/lobbylink/types/ifaces"
	"github.com/edup2p/lobbylink/types/msgactor"
	"github.com/edup2p/lobbylink/types/roster"
	"github.com/google/uuid"
)

// Manager owns the connection state of one client.
//
// Create it with NewManager, then call Run (typically as a goroutine) to have it handle events.
// Events sent before Run are queued.
type Manager struct {
	ctx context.Context
	ccc context.CancelCauseFunc

	mbox    *mailbox
	running RunCheck
	done    chan struct{}

	selfID       string
	transport    ifaces.Transport
	feed         ifaces.RosterFeed
	publisher    ifaces.StatusPublisher
	retry        *RetryPolicy
	hooks        []ifaces.PostStartHook
	setupTimeout time.Duration

	book *addrbook.Book

	// state and gen are only touched by the Run goroutine.
	state connstate.ConnState
	// gen is bumped every time a state exits
	gen uint64

	// session is bumped every time the transport was shut down, transport callbacks are stamped with it
	session atomic.Uint64

	// attemptCan cancels the context of the last launched attempt
	attemptCan context.CancelFunc

	attemptErrs chan error

	current   atomic.Uint32
	lisMu     sync.Mutex
	listeners []func(connstate.Kind)
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Transport == nil {
		return nil, errors.New("cannot create connection manager without transport")
	}

	if opts.SelfID == "" {
		return nil, errors.New("cannot create connection manager without self ID")
	}

	pCtx := opts.Ctx
	if pCtx == nil {
		pCtx = context.Background()
	}

	var publisher = opts.Publisher
	if publisher == nil {
		publisher = LogPublisher{}
	}

	setupTimeout := opts.SetupTimeout
	if setupTimeout == 0 {
		setupTimeout = DefaultSetupTimeout
	} else if setupTimeout < 0 {
		setupTimeout = 0
	}

	ctx, ccc := context.WithCancelCause(pCtx)

	m := &Manager{
		ctx: ctx,
		ccc: ccc,

		mbox:    newMailbox(),
		running: MakeRunCheck(),
		done:    make(chan struct{}),

		selfID:       opts.SelfID,
		transport:    opts.Transport,
		feed:         opts.Roster,
		publisher:    publisher,
		retry:        opts.Retry,
		hooks:        opts.PostStart,
		setupTimeout: setupTimeout,

		book: addrbook.NewBook(),

		attemptErrs: make(chan error, AttemptErrorBuffer),
	}

	m.state = connstate.Initial(m)
	m.current.Store(uint32(m.state.Kind()))

	m.transport.InstallCallbacks(m)

	return m, nil
}

func (m *Manager) Run() {
	if !m.running.CheckOrMark() {
		L(m).Warn("tried to run manager, while already running")
		return
	}

	defer m.shutdown()

	defer func() {
		if v := recover(); v != nil {
			L(m).Error("manager panicked", "panic", v, "stack", string(debug.Stack()))
			m.Fatal(fmt.Errorf("%w: %v", ErrPanic, v))
		}
	}()

	m.state.Enter()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.mbox.poke:
			for _, msg := range m.mbox.drain() {
				if m.ctx.Err() != nil {
					return
				}

				m.Handle(msg)
			}
		}
	}
}

func (m *Manager) shutdown() {
	m.cancelAttempt()

	func() {
		defer func() {
			if v := recover(); v != nil {
				L(m).Error("panicked while exiting state", "panic", v)
			}
		}()

		m.state.Exit()
	}()

	if err := m.transport.Shutdown(); err != nil {
		L(m).Warn("could not shut down transport", "err", err)
	}

	L(m).Info("connection manager stopped", "cause", context.Cause(m.ctx))

	close(m.done)
}

func (m *Manager) Handle(msg msgactor.ActorMessage) {
	var next connstate.ConnState

	switch msg := msg.(type) {
	case *msgactor.StartConnecting:
		next = m.state.OnConnect(msg.Method)
	case *msgactor.RequestDisconnect:
		next = m.state.OnDisconnectRequest()
	case *msgactor.ClientConnected:
		if m.staleSession(msg.Session, msg) {
			return
		}
		next = m.state.OnClientConnected(msg.PeerID)
	case *msgactor.ClientDisconnect:
		if m.staleSession(msg.Session, msg) {
			return
		}
		next = m.state.OnClientDisconnect(msg.PeerID)
	case *msgactor.AttemptResult:
		// the error is reported once the state had its say, stale or not
		defer m.reportAttemptError(msg)

		if m.stale(msg.Gen, msg) {
			return
		}
		next = m.state.OnAttemptResult(msg.ID, msg.Err)
	case *msgactor.RosterChanged:
		if m.stale(msg.Gen, msg) {
			return
		}
		next = m.state.OnRosterChanged(msg.Changes)
	case *msgactor.RetryTimer:
		if m.stale(msg.Gen, msg) {
			return
		}
		next = m.state.OnRetryTimer(msg.Attempt)
	default:
		L(m).Warn("received unknown message", "msg", fmt.Sprintf("%T", msg))
		return
	}

	if next != nil {
		m.changeState(next)
	}
}

func (m *Manager) stale(gen uint64, msg msgactor.ActorMessage) bool {
	if gen == m.gen {
		return false
	}

	L(m).Log(context.Background(), types.LevelTrace, "dropping stale message",
		"msg", fmt.Sprintf("%T", msg), "gen", gen, "current-gen", m.gen)

	return true
}

func (m *Manager) staleSession(session uint64, msg msgactor.ActorMessage) bool {
	current := m.session.Load()
	if session == current {
		return false
	}

	L(m).Log(context.Background(), types.LevelTrace, "dropping transport event from ended session",
		"msg", fmt.Sprintf("%T", msg), "session", session, "current-session", current)

	return true
}

func (m *Manager) reportAttemptError(res *msgactor.AttemptResult) {
	if res.Err == nil {
		return
	}

	select {
	case m.attemptErrs <- res.Err:
	default:
		L(m).Warn("attempt error channel full, dropping error", "attempt", res.ID, "err", res.Err)
	}
}

func (m *Manager) changeState(next connstate.ConnState) {
	m.state.Exit()
	m.gen++

	if next.Kind() != connstate.KindConnected {
		// a connected state keeps the attempt's hooks running
		m.cancelAttempt()
	}

	m.state = next
	m.state.Enter()

	m.notify(next.Kind())
}

func (m *Manager) cancelAttempt() {
	if m.attemptCan != nil {
		m.attemptCan()
		m.attemptCan = nil
	}
}

// Connect asks the manager to connect with method, it is ignored unless the manager is offline.
func (m *Manager) Connect(method ifaces.ConnectionMethod) {
	m.mbox.push(&msgactor.StartConnecting{Method: method})
}

// Disconnect asks the manager to leave the session, it is ignored if the manager is offline.
func (m *Manager) Disconnect() {
	m.mbox.push(&msgactor.RequestDisconnect{})
}

func (m *Manager) OnClientConnected(peerID string) {
	m.mbox.push(&msgactor.ClientConnected{Session: m.session.Load(), PeerID: peerID})
}

func (m *Manager) OnClientDisconnect(peerID string) {
	m.mbox.push(&msgactor.ClientDisconnect{Session: m.session.Load(), PeerID: peerID})
}

// Err returns the cause the manager stopped with, or nil while it is running.
func (m *Manager) Err() error {
	if m.ctx.Err() == nil {
		return nil
	}

	return context.Cause(m.ctx)
}

// Done is closed once Run returned and the transport was shut down.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Cancel stops the manager.
func (m *Manager) Cancel() {
	m.ccc(context.Canceled)
}

// AttemptErrors receives the error of every failed attempt, including those that no longer mattered
// to the state. An error is sent only after the state handled the failure, so the resulting status has
// been published by then. Errors are dropped when the channel is full.
func (m *Manager) AttemptErrors() <-chan error {
	return m.attemptErrs
}

// ifaces.ConnectionManager

func (m *Manager) SelfID() string {
	return m.selfID
}

func (m *Manager) Transport() ifaces.Transport {
	return m.transport
}

func (m *Manager) Book() *addrbook.Book {
	return m.book
}

func (m *Manager) EndSession() {
	if err := m.transport.Shutdown(); err != nil {
		L(m).Warn("could not shut down transport", "err", err)
	}

	m.session.Add(1)
}

func (m *Manager) Publish(status connstatus.Status) {
	L(m).Debug("publishing status", "status", status)

	m.publisher.Publish(status)
}

func (m *Manager) LaunchAttempt(method ifaces.ConnectionMethod) {
	m.cancelAttempt()

	ctx, can := context.WithCancel(m.ctx)
	m.attemptCan = can

	a := &Attempt{
		ID:           uuid.NewString(),
		Transport:    m.transport,
		Hooks:        m.hooks,
		SetupTimeout: m.setupTimeout,
	}
	gen := m.gen

	L(m).Info("launching connection attempt", "attempt", a.ID, "method", method.Name())

	go func() {
		err := a.Run(ctx, method)

		m.mbox.push(&msgactor.AttemptResult{Gen: gen, ID: a.ID, Err: err})
	}()
}

func (m *Manager) WatchRoster() *roster.Subscription {
	if m.feed == nil {
		return nil
	}

	gen := m.gen

	return roster.Watch(m.feed, func(changes []roster.Change) {
		m.mbox.push(&msgactor.RosterChanged{Gen: gen, Changes: changes})
	})
}

func (m *Manager) CanRetry(attempt int) bool {
	return m.retry.Allows(attempt)
}

func (m *Manager) ScheduleRetry(attempt int) {
	gen := m.gen
	d := m.retry.Delay(attempt)

	L(m).Debug("scheduling retry", "attempt", attempt, "delay", d)

	time.AfterFunc(d, func() {
		if m.ctx.Err() != nil {
			return
		}

		m.mbox.push(&msgactor.RetryTimer{Gen: gen, Attempt: attempt})
	})
}

func (m *Manager) Fatal(err error) {
	L(m).Error("fatal connection manager error", "err", err)

	m.ccc(err)
}

var (
	_ ifaces.ConnectionManager  = (*Manager)(nil)
	_ ifaces.TransportCallbacks = (*Manager)(nil)
)
