package util

import "time"

var zeroTime time.Time

// Freshness tracks when something was last fetched, and whether that fetch
// is still within a given staleness window. Zero value means never fetched.
// This is the same shape as a dirty-timestamp: "has it been more than d since
// the last Mark()" is "has it been dirty for more than d", just read as
// staleness instead of write-buffering.
type Freshness struct {
	clock Clock
	t     time.Time
}

func NewFreshness(clock Clock) *Freshness {
	if clock == nil {
		clock = SystemClock
	}
	return &Freshness{clock: clock}
}

// Fetched reports whether Mark has ever been called.
func (f *Freshness) Fetched() bool {
	return !f.t.IsZero()
}

// Mark records that a fetch happened now.
func (f *Freshness) Mark() {
	f.t = f.clock.Now()
}

// Reset forgets the last fetch, so Fetched reports false again.
func (f *Freshness) Reset() {
	f.t = zeroTime
}

// Stale reports whether it has been more than d since the last Mark, or no
// Mark has ever happened.
func (f *Freshness) Stale(d time.Duration) bool {
	return !f.Fetched() || f.t.Add(d).Before(f.clock.Now())
}

// LastFetch returns the time of the last Mark, or the zero Time if never
// fetched.
func (f *Freshness) LastFetch() time.Time {
	return f.t
}
