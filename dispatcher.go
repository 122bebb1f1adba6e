package adbsync

import (
	"sync"

	"adbsync/internal/cli"
)

// dispatcher serializes asynchronous listing jobs for one device, owned by
// the ListingService instance rather than kept in process-wide storage
// (spec §9: the original's global queue with map-iteration "next job"
// selection is replaced here by an instance-owned, strictly-ordered FIFO).
type dispatcher struct {
	mu       sync.Mutex
	queue    []func()
	eventLog *cli.EventLog
}

func newDispatcher() *dispatcher {
	return &dispatcher{eventLog: cli.NewEventLog("ListingDispatcher", "")}
}

// submit enqueues job. If it's the only job in the queue, its worker starts
// immediately; otherwise it waits for every job ahead of it to finish.
func (d *dispatcher) submit(job func()) {
	d.mu.Lock()
	d.queue = append(d.queue, job)
	shouldStart := len(d.queue) == 1
	d.eventLog.Debugf("submit: queue depth %d", len(d.queue))
	d.mu.Unlock()

	if shouldStart {
		go d.worker(job)
	}
}

// worker runs job, then pops it off the queue and starts the new head, if
// any. This guarantees at most one job is ever running at a time, in FIFO
// order.
func (d *dispatcher) worker(job func()) {
	job()

	d.mu.Lock()
	d.queue = d.queue[1:]
	var next func()
	if len(d.queue) > 0 {
		next = d.queue[0]
	}
	d.eventLog.Debugf("worker finished: queue depth %d", len(d.queue))
	d.mu.Unlock()

	if next != nil {
		d.worker(next)
	}
}
