package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFreshness(t *testing.T) {
	TestClock.Reset()
	f := NewFreshness(&TestClock)
	assert.False(t, f.Fetched())
	assert.True(t, f.Stale(0))

	f.Mark()
	assert.True(t, f.Fetched())
	assert.True(t, f.Stale(0))
	assert.False(t, f.Stale(5*time.Minute))

	f.Reset()
	assert.False(t, f.Fetched())

	// Check timing behavior after a single mark and elapsed time.
	f.Mark()
	TestClock.Advance(501 * time.Millisecond)
	assert.True(t, f.Stale(0))
	assert.True(t, f.Stale(250*time.Millisecond))
	assert.True(t, f.Stale(500*time.Millisecond))
	assert.False(t, f.Stale(1*time.Second))

	// A fresh Mark resets the clock the staleness window is measured from.
	f.Mark()
	assert.False(t, f.Stale(500*time.Millisecond))
}
