package netfsm

import (
	"math"
	"time"
)

// Backoff computes the wait before re-attempting a phase.
//
// Delay(n) = min(Initial * Multiplier^(n-1), Max) for n >= 1. There is no
// jitter, so successive delays never decrease.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// Delay returns the wait after the n-th retryable failure. n < 1 yields zero.
func (b Backoff) Delay(n int) time.Duration {
	if n < 1 || b.Initial <= 0 {
		return 0
	}

	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}

	ceiling := b.Max
	if ceiling <= 0 {
		ceiling = time.Duration(math.MaxInt64)
	}
	limit := float64(ceiling)

	d := float64(b.Initial)
	for i := 1; i < n && d < limit; i++ {
		d *= mult
	}

	if d >= limit {
		return ceiling
	}
	return time.Duration(d)
}

// RetryPolicy bounds retryable failures for one phase.
type RetryPolicy struct {
	// MaxRetries is how many retryable failures are tolerated. The
	// (MaxRetries+1)-th ends the phase.
	MaxRetries int
	Backoff    Backoff
}

func (p RetryPolicy) valid() bool {
	return p.MaxRetries >= 0 &&
		p.Backoff.Initial > 0 &&
		p.Backoff.Max >= p.Backoff.Initial &&
		p.Backoff.Multiplier >= 1
}
