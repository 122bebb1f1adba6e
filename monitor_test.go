package adbsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancellableProgressMonitorDelegatesAndCancels(t *testing.T) {
	inner := &fakeMonitor{}
	m := NewCancellableProgressMonitor(inner)

	m.Start(10)
	m.StartSubTask("a")
	m.Advance(3)

	assert.False(t, m.IsCancelled())
	m.Cancel()
	assert.True(t, m.IsCancelled())

	// Cancelling twice is a no-op, not a panic.
	m.Cancel()
	assert.True(t, m.IsCancelled())

	m.Stop()
	assert.True(t, inner.started)
	assert.True(t, inner.stopped)
	assert.Equal(t, []string{"a"}, inner.subTasks)
	assert.Equal(t, int64(3), inner.totalAdvanced())
}

func TestNewCancellableProgressMonitorDefaultsToNull(t *testing.T) {
	m := NewCancellableProgressMonitor(nil)
	assert.NotPanics(t, func() {
		m.Start(0)
		m.Advance(1)
		m.StartSubTask("x")
		m.Stop()
	})
	assert.False(t, m.IsCancelled())
}
