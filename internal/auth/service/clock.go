package service

import "time"

// Clock abstracts wall-clock reads so expiry checks stay deterministic in
// tests. Production code uses SystemClock.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
