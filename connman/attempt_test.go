package connman

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edup2p/lobbylink/types/ifaces"
	"github.com/stretchr/testify/assert"
)

func TestAttemptSetupFailure(t *testing.T) {
	tr := newMockTransport(&recorder{})
	cause := errors.New("lobby unreachable")

	a := &Attempt{ID: "a", Transport: tr}
	err := a.Run(context.Background(), &MockMethod{setup: func(context.Context) error { return cause }})

	assert.ErrorIs(t, err, ErrSetup)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, int32(0), tr.starts.Load(), "client started after failed setup")
}

func TestAttemptSetupTimeout(t *testing.T) {
	tr := newMockTransport(&recorder{})

	a := &Attempt{ID: "a", Transport: tr, SetupTimeout: 10 * time.Millisecond}
	err := a.Run(context.Background(), &MockMethod{setup: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	assert.ErrorIs(t, err, ErrSetup)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAttemptAbortedAfterSetup(t *testing.T) {
	tr := newMockTransport(&recorder{})
	ctx, cancel := context.WithCancel(context.Background())

	a := &Attempt{ID: "a", Transport: tr}
	err := a.Run(ctx, &MockMethod{setup: func(context.Context) error {
		cancel()
		return nil
	}})

	assert.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, int32(0), tr.starts.Load())
}

func TestAttemptHooksAreNotFatal(t *testing.T) {
	tr := newMockTransport(&recorder{})

	var ran []int
	a := &Attempt{
		ID:        "a",
		Transport: tr,
		Hooks: []ifaces.PostStartHook{
			func(context.Context) error { ran = append(ran, 0); return errors.New("scene missing") },
			func(context.Context) error { ran = append(ran, 1); return nil },
		},
	}

	assert.NoError(t, a.Run(context.Background(), &MockMethod{}))
	assert.Equal(t, []int{0, 1}, ran)
}

func TestAttemptPanicIsAnError(t *testing.T) {
	tr := newMockTransport(&recorder{})

	a := &Attempt{ID: "a", Transport: tr}
	err := a.Run(context.Background(), &MockMethod{setup: func(context.Context) error { panic("lobby SDK bug") }})

	assert.ErrorIs(t, err, ErrPanic)
	assert.Equal(t, int32(0), tr.starts.Load())
}

func TestAttemptHookPanicIsLogged(t *testing.T) {
	tr := newMockTransport(&recorder{})

	var ran []int
	a := &Attempt{
		ID:        "a",
		Transport: tr,
		Hooks: []ifaces.PostStartHook{
			func(context.Context) error { panic("scene loader crashed") },
			func(context.Context) error { ran = append(ran, 1); return nil },
		},
	}

	assert.NoError(t, a.Run(context.Background(), &MockMethod{}))
	assert.Equal(t, []int{1}, ran)
}

func TestAttemptStartRefused(t *testing.T) {
	tr := newMockTransport(&recorder{})
	tr.setStartOK(false)

	hookRan := false
	a := &Attempt{ID: "a", Transport: tr, Hooks: []ifaces.PostStartHook{
		func(context.Context) error { hookRan = true; return nil },
	}}

	assert.ErrorIs(t, a.Run(context.Background(), &MockMethod{}), ErrStartFailed)
	assert.False(t, hookRan)
}
