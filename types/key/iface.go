package key

import (
	"encoding"

	"go.mongodb.org/mongo-driver/bson"
)

type key interface {
	IsZero() bool
}

type canTextMarshal interface {
	// We need text encoding for lobby player data, JSON and BSON

	encoding.TextMarshaler
	encoding.TextUnmarshaler
}

type canBsonMarshal interface {
	bson.ValueMarshaler
	bson.ValueUnmarshaler
}

type publicKey interface {
	key

	Debug() string
	HexString() string
}

type privateKey[Pub key] interface {
	key

	Public() Pub
}
