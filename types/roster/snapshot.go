package roster

import (
	"slices"

	"golang.org/x/exp/maps"
)

// Snapshot is one version of the roster, keyed by user ID.
type Snapshot map[string]User

func (s Snapshot) Clone() Snapshot {
	return maps.Clone(s)
}

// IDs returns the sorted user IDs in the snapshot.
func (s Snapshot) IDs() []string {
	ids := maps.Keys(s)
	slices.Sort(ids)
	return ids
}

// Host returns the first user flagged as host, by ID order.
func (s Snapshot) Host() (User, bool) {
	for _, id := range s.IDs() {
		if s[id].IsHost {
			return s[id], true
		}
	}

	return User{}, false
}

// Change describes how one user differs between two snapshots.
type Change struct {
	User User

	// Fields is empty for additions and removals.
	Fields FieldSet

	Added   bool
	Removed bool
}

// IdentityRelevant reports whether the change should reach the address book.
func (c Change) IdentityRelevant() bool {
	if c.Removed {
		return true
	}

	if c.Added {
		_, hasEntry := c.User.AddressBookEntry()
		return hasEntry || c.User.IsHost
	}

	return c.Fields.IdentityRelevant()
}

// DiffSnapshots returns the changes from prev to cur, ordered by user ID.
//
// Users present in both with no differing fields are left out.
func DiffSnapshots(prev, cur Snapshot) []Change {
	ids := maps.Keys(cur)
	for id := range prev {
		if _, ok := cur[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	var changes []Change

	for _, id := range ids {
		before, had := prev[id]
		after, has := cur[id]

		switch {
		case !had:
			changes = append(changes, Change{User: after, Fields: FieldSet{}, Added: true})
		case !has:
			changes = append(changes, Change{User: before, Fields: FieldSet{}, Removed: true})
		default:
			if fs := before.Diff(after); fs.Len() > 0 {
				changes = append(changes, Change{User: after, Fields: fs})
			}
		}
	}

	return changes
}
