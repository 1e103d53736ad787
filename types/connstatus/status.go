// Package connstatus contains the outcome codes published for connection attempts and disconnects, and the
// codec for the out-of-band disconnect reasons transports carry them in.
package connstatus

import (
	"fmt"
)

// Status summarises the result of a connection attempt or a disconnect.
type Status byte

const (
	Undefined Status = iota
	// Success means the client connected.
	Success
	// ServerFull means the host refused the client because it has no room left.
	ServerFull
	// LoggedInAgain means the same user connected from another client.
	LoggedInAgain
	// UserRequestedDisconnect means the local user asked to leave.
	UserRequestedDisconnect
	// Disconnected is a generic disconnect with no specific cause.
	Disconnected
	// Reconnecting means the connection dropped and a reconnect is under way.
	Reconnecting
	// IncompatibleBuildType means client and host builds can't talk to each other.
	IncompatibleBuildType
	// HostEndedSession means the host shut the session down.
	HostEndedSession
	StartHostFailed
	StartClientFailed
)

var names = [...]string{
	Undefined:               "Undefined",
	Success:                 "Success",
	ServerFull:              "ServerFull",
	LoggedInAgain:           "LoggedInAgain",
	UserRequestedDisconnect: "UserRequestedDisconnect",
	Disconnected:            "Disconnected",
	Reconnecting:            "Reconnecting",
	IncompatibleBuildType:   "IncompatibleBuildType",
	HostEndedSession:        "HostEndedSession",
	StartHostFailed:         "StartHostFailed",
	StartClientFailed:       "StartClientFailed",
}

func (s Status) String() string {
	if int(s) < len(names) {
		return names[s]
	}

	return fmt.Sprintf("Status(%d)", s)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return int(s) < len(names)
}

// IsFailure reports whether s ends a connection without success.
func (s Status) IsFailure() bool {
	return s != Success && s != Undefined && s != Reconnecting
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: unknown status %d", ErrDecode, s)
	}

	return []byte(names[s]), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for i, n := range names {
		if n == string(b) {
			*s = Status(i)
			return nil
		}
	}

	return fmt.Errorf("%w: unknown status %q", ErrDecode, b)
}

// All returns every known status, in declaration order.
func All() []Status {
	all := make([]Status, len(names))
	for i := range names {
		all[i] = Status(i)
	}
	return all
}
