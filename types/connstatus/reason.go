package connstatus

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDecode signals a disconnect reason that could not be decoded into a failure status.
//
// Reasons are produced by trusted code on the other end of the transport, so this is a bug, not bad input.
var ErrDecode = errors.New("could not decode disconnect reason")

type reasonDoc struct {
	Status Status `json:"status"`
}

// EncodeReason produces the disconnect reason string carrying s.
func EncodeReason(s Status) (string, error) {
	b, err := json.Marshal(reasonDoc{Status: s})
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// MustEncodeReason is EncodeReason for statuses known at compile time.
func MustEncodeReason(s Status) string {
	r, err := EncodeReason(s)
	if err != nil {
		panic(err)
	}
	return r
}

// DecodeReason decodes a non-empty disconnect reason.
//
// A reason can only carry a failure; decoding Success, Undefined or Reconnecting is an ErrDecode, like
// malformed input is.
func DecodeReason(reason string) (Status, error) {
	var doc reasonDoc

	if err := json.Unmarshal([]byte(reason), &doc); err != nil {
		if errors.Is(err, ErrDecode) {
			return Undefined, err
		}

		return Undefined, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if !doc.Status.IsFailure() {
		return Undefined, fmt.Errorf("%w: reason carries non-failure status %s", ErrDecode, doc.Status)
	}

	return doc.Status, nil
}
