package connman

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/edup2p/lobbylink/types/ifaces"
)

// Attempt is one run of the connect sequence: set up the method, start the client, run the hooks.
type Attempt struct {
	ID string

	Transport ifaces.Transport
	Hooks     []ifaces.PostStartHook

	// SetupTimeout bounds the method's setup, zero means no bound besides the context.
	SetupTimeout time.Duration
}

// Run runs the attempt with method.
//
// It returns an error wrapping ErrSetup if the method could not set up, ErrStartFailed if the transport
// refused to start, or ErrAborted if ctx ended before the client was started. A panic in the method or
// the transport is returned as ErrPanic. Hook failures and panics are logged.
func (a *Attempt) Run(ctx context.Context, method ifaces.ConnectionMethod) (err error) {
	defer func() {
		if v := recover(); v != nil {
			slog.Error("connection attempt panicked", "attempt", a.ID, "panic", v, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrPanic, v)
		}
	}()

	l := slog.With("attempt", a.ID, "method", method.Name())

	l.Debug("setting up client connection")

	if err := a.setup(ctx, method); err != nil {
		return fmt.Errorf("%w: %w", ErrSetup, err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrAborted, context.Cause(ctx))
	}

	l.Debug("starting client")

	if !a.Transport.StartClient() {
		return ErrStartFailed
	}

	for i, hook := range a.Hooks {
		if err := runHook(ctx, hook); err != nil {
			l.Warn("post-start hook failed", "hook", i, "err", err)
		}
	}

	return nil
}

func runHook(ctx context.Context, hook ifaces.PostStartHook) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, v)
		}
	}()

	return hook(ctx)
}

func (a *Attempt) setup(ctx context.Context, method ifaces.ConnectionMethod) error {
	if a.SetupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.SetupTimeout)
		defer cancel()
	}

	return method.SetupClientConnection(ctx)
}
