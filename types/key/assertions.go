package key

var (
	_ publicKey = NodePublic{}

	_ privateKey[NodePublic] = NodePrivate{}

	// Keys travel through lobby player data as text.
	_ canTextMarshal = &NodePublic{}

	// The shell saves and loads private keys.
	_ canTextMarshal = &NodePrivate{}

	// Roster snapshots are saved as BSON.
	_ canBsonMarshal = &NodePublic{}
)
