package roster

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Feed is a source of roster snapshots.
type Feed interface {
	// Snapshot returns a copy of the current roster.
	Snapshot() Snapshot

	// Subscribe registers fn to be called with every changed snapshot.
	//
	// fn is called once with the current snapshot before Subscribe returns.
	Subscribe(fn func(Snapshot)) *Subscription
}

// Lobby is the local copy of a remote lobby's roster.
//
// A lobby service client feeds it with Apply, Upsert and Remove; subscribers get notified of every
// version that actually differs from the one before it. Notifications are delivered in order, one at a
// time, and outside the data lock; subscribers may unsubscribe from their callback, but must not modify
// the lobby from it.
type Lobby struct {
	// serializes notification rounds
	notifyMu sync.Mutex

	mu    sync.Mutex
	users Snapshot
	subs  map[*Subscription]struct{}
}

var _ Feed = (*Lobby)(nil)

func NewLobby() *Lobby {
	return &Lobby{
		users: make(Snapshot),
		subs:  make(map[*Subscription]struct{}),
	}
}

func (l *Lobby) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.users.Clone()
}

func (l *Lobby) Subscribe(fn func(Snapshot)) *Subscription {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	sub := newSubscription(fn, l.detach)

	l.mu.Lock()
	l.subs[sub] = struct{}{}
	snap := l.users.Clone()
	l.mu.Unlock()

	sub.deliver(snap)

	return sub
}

func (l *Lobby) detach(sub *Subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.subs, sub)
}

// Apply replaces the roster with snap, member by member. Returns true if anything changed.
func (l *Lobby) Apply(snap Snapshot) bool {
	return l.mutate(func(users Snapshot) bool {
		changed := false

		for id := range users {
			if _, ok := snap[id]; !ok {
				delete(users, id)
				changed = true
			}
		}

		for id, u := range snap {
			u.ID = id

			existing, ok := users[id]
			if !ok {
				users[id] = u
				changed = true
				continue
			}

			if fs := existing.CopyFrom(u); fs.Len() > 0 {
				users[id] = existing
				changed = true

				slog.Debug("lobby: user changed", "user", id, "fields", fs)
			}
		}

		return changed
	})
}

// Upsert adds or replaces a single user. Returns true if anything changed.
func (l *Lobby) Upsert(u User) bool {
	return l.mutate(func(users Snapshot) bool {
		existing, ok := users[u.ID]
		if !ok {
			users[u.ID] = u
			return true
		}

		if existing.CopyFrom(u).Len() == 0 {
			return false
		}

		users[u.ID] = existing
		return true
	})
}

// Remove drops a user. Returns true if it was present.
func (l *Lobby) Remove(id string) bool {
	return l.mutate(func(users Snapshot) bool {
		if _, ok := users[id]; !ok {
			return false
		}

		delete(users, id)
		return true
	})
}

// SetHost flags id as the host, and every other user as not.
func (l *Lobby) SetHost(id string) bool {
	return l.mutate(func(users Snapshot) bool {
		changed := false

		for uid, u := range users {
			isHost := uid == id
			if u.IsHost != isHost {
				u.IsHost = isHost
				users[uid] = u
				changed = true
			}
		}

		return changed
	})
}

// ResetState clears per-session state (the host flag) of every user.
func (l *Lobby) ResetState() bool {
	return l.mutate(func(users Snapshot) bool {
		changed := false

		for id, u := range users {
			if u.IsHost {
				u.ResetState()
				users[id] = u
				changed = true
			}
		}

		return changed
	})
}

// UpdatePlayerData publishes a user's player data into the lobby, preserving its host flag.
func (l *Lobby) UpdatePlayerData(ctx context.Context, userID string, data map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	u, err := UserFromPlayerData(userID, data)
	if err != nil {
		return fmt.Errorf("could not parse player data: %w", err)
	}

	l.mutate(func(users Snapshot) bool {
		existing, ok := users[userID]
		if ok {
			u.IsHost = existing.IsHost

			if existing.CopyFrom(u).Len() == 0 {
				return false
			}

			users[userID] = existing
			return true
		}

		users[userID] = u
		return true
	})

	return nil
}

// mutate runs fn against the live roster, and notifies subscribers if it reports a change.
func (l *Lobby) mutate(fn func(users Snapshot) bool) bool {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	changed := fn(l.users)
	var (
		snap Snapshot
		subs []*Subscription
	)
	if changed {
		snap = l.users.Clone()
		subs = make([]*Subscription, 0, len(l.subs))
		for sub := range l.subs {
			subs = append(subs, sub)
		}
	}
	l.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(snap.Clone())
	}

	return changed
}
