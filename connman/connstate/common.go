package connstate

import (
	"fmt"
	"log/slog"

	"github.com/edup2p/lobbylink/types/addrbook"
	"github.com/edup2p/lobbylink/types/connstatus"
	"github.com/edup2p/lobbylink/types/ifaces"
	"github.com/edup2p/lobbylink/types/key"
	"github.com/edup2p/lobbylink/types/roster"
)

// StateCommon is shared by every state of one manager.
type StateCommon struct {
	cm ifaces.ConnectionManager

	// hostKey is the last key successfully handed to the transport, zero if none.
	hostKey key.NodePublic
}

// Initial returns the state a manager starts out in.
func Initial(cm ifaces.ConnectionManager) ConnState {
	return &Offline{StateCommon: &StateCommon{cm: cm}}
}

func (sc *StateCommon) isSelf(peerID string) bool {
	return peerID == sc.cm.SelfID()
}

// resetSession forgets everything the transport was told, after it was shut down.
func (sc *StateCommon) resetSession() {
	sc.cm.EndSession()

	sc.cm.Book().Clear()
	sc.hostKey = key.NodePublic{}
}

// applyRoster merges identity changes into the address book, registering every new or changed entry
// with the transport first. It then pushes the host's key if that changed.
func (sc *StateCommon) applyRoster(changes []roster.Change) {
	book := sc.cm.Book()

	for _, c := range changes {
		id := c.User.ID

		if c.Removed {
			if book.Remove(id) {
				// the transport has no way to forget a peer mid-session, it stays registered until shutdown
				slog.Debug("peer left roster", "peer", id)
			}
			continue
		}

		if e, ok := c.User.AddressBookEntry(); ok {
			sc.registerEntry(id, e)
		} else if book.Remove(id) {
			slog.Debug("peer retracted its entry", "peer", id)
		}

		if c.User.IsHost {
			book.SetHost(id)
		} else if book.Host() == id {
			book.SetHost("")
		}
	}

	sc.pushHostKey()
}

func (sc *StateCommon) registerEntry(id string, e addrbook.Entry) {
	book := sc.cm.Book()

	if cur, ok := book.Get(id); ok && cur == e {
		return
	}

	if err := sc.cm.Transport().RegisterAddressBookEntry(e); err != nil {
		slog.Warn("could not register address book entry", "peer", id, "entry", e, "err", err)
		return
	}

	book.Merge(id, e)
}

// pushHostKey makes sure the transport knows the host's current key, returns false if it does not.
func (sc *StateCommon) pushHostKey() bool {
	e, ok := sc.cm.Book().HostEntry()
	if !ok {
		return false
	}

	if e.PublicKey == sc.hostKey {
		return true
	}

	if err := sc.cm.Transport().SetHostPublicKey(e.PublicKey); err != nil {
		slog.Warn("could not set host public key", "key", e.PublicKey.Debug(), "err", err)
		return false
	}

	sc.hostKey = e.PublicKey
	slog.Debug("set host public key", "host", sc.cm.Book().Host(), "key", e.PublicKey.Debug())

	return true
}

// decodeReason turns the transport's disconnect reason into a status, with fallback for an empty reason.
//
// A reason that does not decode is reported as fatal, and ok is false.
func (sc *StateCommon) decodeReason(fallback connstatus.Status) (status connstatus.Status, ok bool) {
	reason := sc.cm.Transport().DisconnectReason()
	if reason == "" {
		return fallback, true
	}

	status, err := connstatus.DecodeReason(reason)
	if err != nil {
		sc.cm.Fatal(fmt.Errorf("could not decode disconnect reason %q: %w", reason, err))
		return connstatus.Undefined, false
	}

	return status, true
}

// finish publishes status, and returns the offline state.
func (sc *StateCommon) finish(from ConnState, status connstatus.Status) ConnState {
	sc.cm.Publish(status)

	return LogTransition(from, &Offline{StateCommon: sc})
}
