package connman

import "github.com/edup2p/lobbylink/connman/connstate"

// Observer allows calling clients to peek into the manager's state.
type Observer interface {
	// RegisterStateChangeListener registers a function that is called with every new state.
	//
	// It is called from the manager's goroutine, and must not block.
	RegisterStateChangeListener(func(state connstate.Kind))

	CurrentState() connstate.Kind
}

func (m *Manager) RegisterStateChangeListener(fn func(state connstate.Kind)) {
	m.lisMu.Lock()
	defer m.lisMu.Unlock()

	m.listeners = append(m.listeners, fn)
}

func (m *Manager) CurrentState() connstate.Kind {
	return connstate.Kind(m.current.Load())
}

func (m *Manager) notify(kind connstate.Kind) {
	m.current.Store(uint32(kind))

	m.lisMu.Lock()
	listeners := make([]func(connstate.Kind), len(m.listeners))
	copy(listeners, m.listeners)
	m.lisMu.Unlock()

	for _, fn := range listeners {
		fn(kind)
	}
}

var _ Observer = (*Manager)(nil)
