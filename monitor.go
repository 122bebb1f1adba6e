package adbsync

import "adbsync/internal/util"

// ProgressMonitor reports transfer progress and cooperative cancellation
// (spec §4.4). Implementations must be safe to call from whatever
// goroutine a transfer runs on.
type ProgressMonitor interface {
	// Start is called once with the total amount of work before any
	// transfer begins.
	Start(totalWork int64)
	// Stop is called once when the transfer finishes or is interrupted.
	Stop()
	// IsCancelled is polled at every loop boundary inside pull/push.
	IsCancelled() bool
	// StartSubTask is called before each file in a recursive pull/push.
	StartSubTask(name string)
	// Advance reports that units of work have completed.
	Advance(units int64)
}

// NullProgressMonitor satisfies ProgressMonitor by doing nothing. It is
// reentrant and safe for concurrent use, so it can be shared across
// transfers that don't care about progress reporting.
type NullProgressMonitor struct{}

var _ ProgressMonitor = NullProgressMonitor{}

func (NullProgressMonitor) Start(int64)        {}
func (NullProgressMonitor) Stop()              {}
func (NullProgressMonitor) IsCancelled() bool  { return false }
func (NullProgressMonitor) StartSubTask(string) {}
func (NullProgressMonitor) Advance(int64)      {}

// CancellableProgressMonitor wraps another ProgressMonitor and adds a
// Cancel method a caller on a different goroutine (a SIGINT handler, most
// commonly) can use to stop an in-flight transfer. The cancelled flag is an
// AtomicBool rather than a plain bool so Cancel and IsCancelled can race
// safely without a mutex.
type CancellableProgressMonitor struct {
	delegate  ProgressMonitor
	cancelled util.AtomicBool
}

// NewCancellableProgressMonitor wraps delegate, or NullProgressMonitor{} if
// delegate is nil.
func NewCancellableProgressMonitor(delegate ProgressMonitor) *CancellableProgressMonitor {
	if delegate == nil {
		delegate = NullProgressMonitor{}
	}
	return &CancellableProgressMonitor{delegate: delegate}
}

// Cancel marks the monitor cancelled. Idempotent.
func (m *CancellableProgressMonitor) Cancel() {
	m.cancelled.CompareAndSwap(false, true)
}

func (m *CancellableProgressMonitor) Start(totalWork int64) { m.delegate.Start(totalWork) }
func (m *CancellableProgressMonitor) Stop()                 { m.delegate.Stop() }
func (m *CancellableProgressMonitor) StartSubTask(name string) { m.delegate.StartSubTask(name) }
func (m *CancellableProgressMonitor) Advance(units int64)   { m.delegate.Advance(units) }

// IsCancelled reports true once Cancel has been called, regardless of what
// the wrapped delegate reports.
func (m *CancellableProgressMonitor) IsCancelled() bool {
	return m.cancelled.Value() || m.delegate.IsCancelled()
}

var _ ProgressMonitor = (*CancellableProgressMonitor)(nil)
