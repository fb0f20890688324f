package syncq

import (
	"math/rand"
	"time"
)

// Backoff returns the delay before the next delivery attempt: exponential
// in the attempt count, capped, with up to 50% jitter so a burst of
// failures doesn't replay in lockstep.
func Backoff(base, cap time.Duration, attempts int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if cap <= 0 {
		cap = 60 * time.Second
	}

	d := base
	for i := 0; i < attempts && d < cap; i++ {
		d *= 2
	}
	if d > cap {
		d = cap
	}

	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}
