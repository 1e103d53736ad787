package roster

import (
	"context"
	"log/slog"
	"sync"

	"github.com/edup2p/lobbylink/types"
)

// Watch subscribes to feed and hands every identity-relevant change to sink, in roster order.
//
// Cosmetic changes (display names) are dropped here, so that the address book and the transport
// behind it don't churn on them. sink is called from the feed's goroutine and must hand off rather
// than do work inline.
//
// The returned Subscription ends the watch.
func Watch(feed Feed, sink func([]Change)) *Subscription {
	w := &watcher{
		prev: Snapshot{},
		sink: sink,
	}

	return feed.Subscribe(w.onSnapshot)
}

type watcher struct {
	mu   sync.Mutex
	prev Snapshot

	sink func([]Change)
}

func (w *watcher) onSnapshot(snap Snapshot) {
	w.mu.Lock()
	changes := DiffSnapshots(w.prev, snap)
	w.prev = snap.Clone()
	w.mu.Unlock()

	relevant := make([]Change, 0, len(changes))

	for _, c := range changes {
		if c.IdentityRelevant() {
			relevant = append(relevant, c)
			continue
		}

		slog.Log(context.Background(), types.LevelTrace, "roster: ignoring cosmetic change",
			"user", c.User.ID, "fields", c.Fields)
	}

	if len(relevant) > 0 {
		w.sink(relevant)
	}
}
