package connman

import "time"

// RetryPolicy decides whether, and when, a dropped connection is retried.
//
// Attempts count from 1. The delay before attempt n is BaseDelay * 2^(n-1), capped at MaxDelay.
type RetryPolicy struct {
	MaxAttempts int

	BaseDelay time.Duration
	// MaxDelay caps the delay, zero means uncapped.
	MaxDelay time.Duration
}

func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: DefaultRetryAttempts,
		BaseDelay:   DefaultRetryBaseDelay,
		MaxDelay:    DefaultRetryMaxDelay,
	}
}

// Allows reports whether attempt n may run.
func (p *RetryPolicy) Allows(n int) bool {
	return p != nil && n >= 1 && n <= p.MaxAttempts
}

// Delay returns how long to wait before attempt n.
func (p *RetryPolicy) Delay(n int) time.Duration {
	if p == nil || n < 1 || p.BaseDelay <= 0 {
		return 0
	}

	d := p.BaseDelay
	for i := 1; i < n; i++ {
		next := d * 2
		if next < d {
			// overflow
			next = time.Duration(1<<63 - 1)
		}
		d = next

		if p.MaxDelay > 0 && d >= p.MaxDelay {
			break
		}
	}

	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}

	return d
}
