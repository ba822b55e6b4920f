package syncqueue

import "time"

// Backoff computes retry delays: base delay doubling (or whatever the
// multiplier is) per attempt, capped at a maximum.
type Backoff struct {
	Base       time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultBackoff returns the delay schedule used by the engine unless
// configured otherwise: 2s, 4s, 8s, ... capped at 5 minutes.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:       2 * time.Second,
		Max:        5 * time.Minute,
		Multiplier: 2.0,
	}
}

// Delay returns the wait before attempt number retries+1. Delays are
// non-decreasing in retries and never exceed Max.
func (b Backoff) Delay(retries int) time.Duration {
	if retries < 0 {
		retries = 0
	}
	d := float64(b.Base)
	for i := 0; i < retries; i++ {
		d *= b.Multiplier
		if time.Duration(d) >= b.Max {
			return b.Max
		}
	}
	if time.Duration(d) > b.Max {
		return b.Max
	}
	return time.Duration(d)
}
