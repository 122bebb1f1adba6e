package adbsync

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/trace"

	"adbsync/internal/cli"
)

/*
LogEntry reports results, errors, and statistics for an individual sync-client
or listing-service operation. Error and Result can each only be called once,
and will panic on subsequent calls.

Example usage:

	func (c *SyncClient) PullFile(remotePath, localPath string, monitor ProgressMonitor) error {
		entry := StartOperation("PullFile", remotePath)
		defer entry.FinishOperation()

		if err := c.pullFile(remotePath, localPath, monitor); err != nil {
			entry.Error(err)
			return err
		}
		entry.Result("ok")
		return nil
	}
*/
type LogEntry struct {
	name       string
	devicePath string
	serial     string
	startTime  time.Time
	err        error
	result     string

	trace trace.Trace

	cacheUsed bool
	cacheHit  bool
}

var traceEntryFormatter = new(logrus.JSONFormatter)

// StartOperation creates a new LogEntry with the current time.
// Should be immediately followed by a deferred call to FinishOperation.
func StartOperation(name, devicePath string) *LogEntry {
	return &LogEntry{
		name:       name,
		devicePath: devicePath,
		startTime:  time.Now(),
		trace:      trace.New(name, devicePath),
	}
}

// Serial records which device's serial this operation ran against.
func (r *LogEntry) Serial(serial string) {
	r.serial = serial
}

// Error records a failure result. Panics if called more than once.
func (r *LogEntry) Error(err error) {
	if r.err != nil {
		panic(fmt.Sprintf("err already set to '%s', can't set to '%s'", r.err, err))
	}
	r.err = err
}

// Result records a non-failure result. Panics if called more than once.
//
// Any []byte argument is summarized to its length before formatting (via
// formatArgsListForLog's summarizeForLog step), so a caller that logs a
// transferred chunk's contents doesn't flood the log with its bytes.
func (r *LogEntry) Result(msg string, args ...interface{}) {
	summarizeForLog(args)
	result := fmt.Sprintf(msg, args...)
	if r.result != "" {
		panic(fmt.Sprintf("result already set to '%s', can't set to '%s'", r.result, result))
	}
	r.result = result
}

// CacheUsed records that a cache was used to attempt to retrieve a result.
func (r *LogEntry) CacheUsed(hit bool) {
	r.cacheUsed = true
	r.cacheHit = r.cacheHit || hit
}

// FinishOperation should be deferred. It logs the duration of the
// operation, along with any result and/or error.
func (r *LogEntry) FinishOperation() {
	entry := cli.Log.WithFields(logrus.Fields{
		"duration_ms": calculateDurationMillis(r.startTime),
		"pid":         os.Getpid(),
	})

	if r.devicePath != "" {
		entry = entry.WithField("path", r.devicePath)
	}
	if r.serial != "" {
		entry = entry.WithField("serial", r.serial)
	}
	if r.result != "" {
		entry = entry.WithField("result", r.result)
	}
	if r.cacheUsed {
		entry = entry.WithField("cache_hit", r.cacheHit)
	}

	entry.Debug(r.name)

	if r.err != nil {
		cli.Log.Errorln(r.err)
	}

	r.logTrace(entry)
}

func (r *LogEntry) logTrace(entry *logrus.Entry) {
	var msg string
	// Use a different formatter for logging to the HTML trace viewer since
	// the TextFormatter would include color escape codes.
	msgBytes, err := traceEntryFormatter.Format(entry)
	if err != nil {
		msg = fmt.Sprint(entry)
	} else {
		msg = string(msgBytes)
	}
	r.trace.LazyPrintf("%s", msg)

	if r.err != nil {
		r.trace.SetError()
		r.trace.LazyPrintf("%s", r.err)
	}
	r.trace.Finish()
}

func calculateDurationMillis(startTime time.Time) int64 {
	return time.Since(startTime).Nanoseconds() / time.Millisecond.Nanoseconds()
}
