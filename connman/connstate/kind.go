package connstate

import "fmt"

// Kind is the externally observable identity of a state.
type Kind byte

const (
	KindOffline Kind = iota
	KindConnecting
	KindConnected
	KindReconnecting
)

func (k Kind) String() string {
	switch k {
	case KindOffline:
		return "Offline"
	case KindConnecting:
		return "ClientConnecting"
	case KindConnected:
		return "ClientConnected"
	case KindReconnecting:
		return "ClientReconnecting"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// Online reports whether the client is trying to be, or is, part of a session.
func (k Kind) Online() bool {
	return k != KindOffline
}
