package connman

import "errors"

var (
	// ErrSetup wraps the connection method's setup failure.
	ErrSetup = errors.New("connection setup failed")

	// ErrStartFailed is returned when the transport refused to start the client.
	ErrStartFailed = errors.New("transport did not start client")

	// ErrAborted is returned by an attempt that was cancelled between setup and start.
	ErrAborted = errors.New("connection attempt aborted")

	// ErrPanic is the cause of a manager that stopped after an event handler panicked, and the error of an
	// attempt that panicked.
	ErrPanic = errors.New("connection manager panicked")
)
