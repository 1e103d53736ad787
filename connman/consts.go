package connman

import "time"

const (
	// DefaultSetupTimeout bounds how long a connection method may take to set up.
	DefaultSetupTimeout = time.Second * 30

	AttemptErrorBuffer = 8

	DefaultRetryAttempts  = 5
	DefaultRetryBaseDelay = time.Second
	DefaultRetryMaxDelay  = time.Second * 30
)
