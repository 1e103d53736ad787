// Package roster models the lobby roster: the externally maintained list of session participants, their
// metadata, and the changes between successive versions of that list.
package roster

import (
	"fmt"

	"github.com/LukaGiorgadze/gonull"
	"github.com/edup2p/lobbylink/types/addrbook"
)

const DisplayNameField = "DisplayName"

// User is one member of the lobby.
type User struct {
	ID          string
	DisplayName string
	IsHost      bool

	// Entry is absent until the member has bound its transport and published its key.
	Entry gonull.Nullable[addrbook.Entry]
}

func MakeUser(id, displayName string, isHost bool, entry *addrbook.Entry) User {
	u := User{
		ID:          id,
		DisplayName: displayName,
		IsHost:      isHost,
	}

	if entry != nil {
		u.Entry = gonull.NewNullable(*entry)
	}

	return u
}

// AddressBookEntry returns the user's entry, if it has one.
func (u User) AddressBookEntry() (addrbook.Entry, bool) {
	if !u.Entry.Valid {
		return addrbook.Entry{}, false
	}

	return u.Entry.Val, true
}

// Diff returns the fields that differ between u and other.
func (u User) Diff(other User) FieldSet {
	fs := FieldSet{}

	if u.IsHost != other.IsHost {
		fs.add(FieldIsHost)
	}
	if u.DisplayName != other.DisplayName {
		fs.add(FieldDisplayName)
	}
	if u.ID != other.ID {
		fs.add(FieldID)
	}
	if !entriesEqual(u.Entry, other.Entry) {
		fs.add(FieldEntry)
	}

	return fs
}

// CopyFrom replaces u's data wholesale with other's, if anything differs, and returns the changed fields.
func (u *User) CopyFrom(other User) FieldSet {
	fs := u.Diff(other)

	if fs.Len() == 0 {
		return fs
	}

	*u = other

	return fs
}

// ResetState clears the per-session state of the user, keeping its identity.
func (u *User) ResetState() {
	u.IsHost = false
}

// PlayerData exports the user as lobby player data.
func (u User) PlayerData() map[string]string {
	data := map[string]string{
		DisplayNameField: u.DisplayName,
	}

	if e, ok := u.AddressBookEntry(); ok {
		e.AppendPlayerData(data)
	}

	return data
}

// UserFromPlayerData parses lobby player data written by PlayerData.
//
// The host flag is not part of player data, it is set by the lobby itself.
func UserFromPlayerData(id string, data map[string]string) (User, error) {
	entry, err := addrbook.EntryFromPlayerData(data)
	if err != nil {
		return User{}, fmt.Errorf("user %q: %w", id, err)
	}

	return MakeUser(id, data[DisplayNameField], false, entry), nil
}

func (u User) String() string {
	e := "none"
	if entry, ok := u.AddressBookEntry(); ok {
		e = entry.String()
	}

	return fmt.Sprintf("%s(%q host=%t entry=%s)", u.ID, u.DisplayName, u.IsHost, e)
}

func entriesEqual(a, b gonull.Nullable[addrbook.Entry]) bool {
	if a.Valid != b.Valid {
		return false
	}

	return !a.Valid || a.Val == b.Val
}
