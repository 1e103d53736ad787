package connman

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/edup2p/lobbylink/types/msgactor"
)

// RunCheck ensures that only one instance of the actor is running at all times.
type RunCheck struct {
	*atomic.Bool
}

func MakeRunCheck() RunCheck {
	return RunCheck{
		&atomic.Bool{},
	}
}

// CheckOrMark atomically checks if its already running, else marks as running, returns a false value if the instance is already running.
func (rc *RunCheck) CheckOrMark() bool {
	return rc.CompareAndSwap(false, true)
}

// mailbox is an unbounded inbox; pushing never blocks, and messages come out in the order they went in.
//
// Roster feeds call back synchronously from within Subscribe, which the manager calls on its own
// goroutine, so a bounded channel could deadlock the manager against itself.
type mailbox struct {
	mu    sync.Mutex
	queue []msgactor.ActorMessage

	// poke has length 1, and is filled whenever the queue went from empty to non-empty
	poke chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{
		poke: make(chan struct{}, 1),
	}
}

func (mb *mailbox) push(msg msgactor.ActorMessage) {
	mb.mu.Lock()
	mb.queue = append(mb.queue, msg)
	mb.mu.Unlock()

	select {
	case mb.poke <- struct{}{}:
	default:
	}
}

// drain takes all queued messages.
func (mb *mailbox) drain() []msgactor.ActorMessage {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	q := mb.queue
	mb.queue = nil
	return q
}

func L(a any) *slog.Logger {
	return slog.With("actor", fmt.Sprintf("%T", a))
}
