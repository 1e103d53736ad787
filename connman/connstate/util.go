package connstate

import (
	"context"
	"log/slog"

	"github.com/edup2p/lobbylink/types"
)

func L(s ConnState) *slog.Logger {
	return slog.With("state", s.Name())
}

func LogTransition(from ConnState, to ConnState) ConnState {
	L(from).Log(context.Background(), types.LevelTrace, "transitioning state", "to-state", to.Name())

	return to
}

func logIgnored(s ConnState, event string, args ...any) {
	L(s).Log(context.Background(), types.LevelTrace, "ignoring event", append([]any{"event", event}, args...)...)
}
