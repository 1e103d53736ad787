package connman

import (
	"log/slog"

	"github.com/edup2p/lobbylink/types/connstatus"
	"github.com/edup2p/lobbylink/types/ifaces"
)

// ChanPublisher hands statuses to a buffered channel, dropping them if the channel is full.
type ChanPublisher struct {
	ch chan connstatus.Status
}

func NewChanPublisher(buffer int) *ChanPublisher {
	return &ChanPublisher{ch: make(chan connstatus.Status, buffer)}
}

func (cp *ChanPublisher) Publish(status connstatus.Status) {
	select {
	case cp.ch <- status:
	default:
		slog.Warn("status channel full, dropping status", "status", status)
	}
}

func (cp *ChanPublisher) Statuses() <-chan connstatus.Status {
	return cp.ch
}

// LogPublisher logs every status.
type LogPublisher struct{}

func (LogPublisher) Publish(status connstatus.Status) {
	if status.IsFailure() {
		slog.Warn("connection status", "status", status)
	} else {
		slog.Info("connection status", "status", status)
	}
}

// FuncPublisher adapts a function into a StatusPublisher.
type FuncPublisher func(status connstatus.Status)

func (f FuncPublisher) Publish(status connstatus.Status) {
	f(status)
}

// MultiPublisher publishes to every publisher, in order.
type MultiPublisher []ifaces.StatusPublisher

func (mp MultiPublisher) Publish(status connstatus.Status) {
	for _, p := range mp {
		p.Publish(status)
	}
}
