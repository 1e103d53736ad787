package roster

import (
	"sync"
	"sync/atomic"
)

// Subscription is a handle on a registered roster callback. Its lifetime is bounded by Unsubscribe.
type Subscription struct {
	fn func(Snapshot)

	closed    atomic.Bool
	closeOnce sync.Once
	detach    func(*Subscription)
}

func newSubscription(fn func(Snapshot), detach func(*Subscription)) *Subscription {
	return &Subscription{fn: fn, detach: detach}
}

// Unsubscribe stops all further deliveries.
//
// It is idempotent, and safe to call from within the subscription's own callback.
func (s *Subscription) Unsubscribe() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)

		if s.detach != nil {
			s.detach(s)
		}
	})
}

func (s *Subscription) Closed() bool {
	return s.closed.Load()
}

func (s *Subscription) deliver(snap Snapshot) {
	if s.closed.Load() {
		return
	}

	s.fn(snap)
}
