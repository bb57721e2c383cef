package clock

import "time"

// Clock abstracts time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// TickerFunc starts a periodic ticker and returns its channel plus a stop func.
// Tests swap it for a manually driven channel.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func SystemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
