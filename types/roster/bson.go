package roster

import (
	"fmt"
	"net/netip"

	"github.com/edup2p/lobbylink/types/addrbook"
	"github.com/edup2p/lobbylink/types/key"
	"go.mongodb.org/mongo-driver/bson"
)

type userDoc struct {
	ID          string          `bson:"id"`
	DisplayName string          `bson:"display_name"`
	IsHost      bool            `bson:"is_host"`
	PublicKey   *key.NodePublic `bson:"public_key,omitempty"`
	Address     string          `bson:"address,omitempty"`
}

type snapshotDoc struct {
	Users []userDoc `bson:"users"`
}

// EncodeBSON serializes a snapshot, users ordered by ID.
func EncodeBSON(snap Snapshot) ([]byte, error) {
	doc := snapshotDoc{Users: make([]userDoc, 0, len(snap))}

	for _, id := range snap.IDs() {
		u := snap[id]

		ud := userDoc{
			ID:          id,
			DisplayName: u.DisplayName,
			IsHost:      u.IsHost,
		}

		if e, ok := u.AddressBookEntry(); ok {
			pub := e.PublicKey
			ud.PublicKey = &pub
			ud.Address = e.Address.String()
		}

		doc.Users = append(doc.Users, ud)
	}

	return bson.Marshal(doc)
}

// DecodeBSON parses a snapshot written by EncodeBSON.
func DecodeBSON(b []byte) (Snapshot, error) {
	var doc snapshotDoc

	if err := bson.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("could not decode roster: %w", err)
	}

	snap := make(Snapshot, len(doc.Users))

	for _, ud := range doc.Users {
		var entry *addrbook.Entry

		if ud.PublicKey != nil {
			ap, err := netip.ParseAddrPort(ud.Address)
			if err != nil {
				return nil, fmt.Errorf("user %q: could not parse address: %w", ud.ID, err)
			}

			e := addrbook.MakeEntry(*ud.PublicKey, ap)
			entry = &e
		}

		snap[ud.ID] = MakeUser(ud.ID, ud.DisplayName, ud.IsHost, entry)
	}

	return snap, nil
}
