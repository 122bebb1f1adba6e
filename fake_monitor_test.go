package adbsync

// fakeMonitor records Start/Stop/Advance calls and lets a test script
// cancellation after a given number of IsCancelled polls.
type fakeMonitor struct {
	started     bool
	totalWork   int64
	stopped     bool
	subTasks    []string
	advances    []int64
	cancelAfter int
	pollCount   int
}

func (m *fakeMonitor) Start(totalWork int64) {
	m.started = true
	m.totalWork = totalWork
}

func (m *fakeMonitor) Stop() {
	m.stopped = true
}

func (m *fakeMonitor) IsCancelled() bool {
	m.pollCount++
	if m.cancelAfter <= 0 {
		return false
	}
	return m.pollCount > m.cancelAfter
}

func (m *fakeMonitor) StartSubTask(name string) {
	m.subTasks = append(m.subTasks, name)
}

func (m *fakeMonitor) Advance(units int64) {
	m.advances = append(m.advances, units)
}

func (m *fakeMonitor) totalAdvanced() int64 {
	var total int64
	for _, a := range m.advances {
		total += a
	}
	return total
}
