package adbsync

import (
	"strings"

	adb "github.com/zach-klippenstein/goadb"
	adbutil "github.com/zach-klippenstein/goadb/util"

	"adbsync/internal/util"
)

// LineReceiver is the shell-command collaborator's line-receiver contract
// (spec §6): a capability that consumes device-side output lines and can be
// polled for cooperative cancellation. *lsParser and *lineCollector are the
// two concrete variants.
type LineReceiver interface {
	ProcessNewLines(lines []string)
	IsCancelled() bool
}

// ShellExecutor runs a shell command against a device and streams its
// output through a LineReceiver. It is the out-of-scope "shell-command
// execution" collaborator spec §1 declares rather than defines: this repo
// implements the sync protocol and listing engine fresh, but delegates
// actual command execution to goadb, exactly as the teacher's device_client.go
// delegates file IO to goadb's DeviceClient.
type ShellExecutor interface {
	RunLines(cmd string, receiver LineReceiver) error
}

// goadbShellExecutor adapts a goadb device client into a ShellExecutor. Like
// the teacher's goadbDeviceClient, it watches for the device-disconnected
// error code and calls the optional disconnect handler when it sees it. The
// returned error is of Kind IO either way; only its message tells "device
// disconnected" apart from "failed to run".
type goadbShellExecutor struct {
	client                    *adb.DeviceClient
	deviceDisconnectedHandler func()
}

// NewGoadbShellExecutor wraps a goadb DeviceClient for the given serial,
// dialing through clientConfig exactly as the teacher's
// NewGoadbDeviceClientFactory does.
func NewGoadbShellExecutor(clientConfig adb.ClientConfig, serial string) ShellExecutor {
	return &goadbShellExecutor{
		client: adb.NewDeviceClient(clientConfig, adb.DeviceWithSerial(serial)),
	}
}

// NewGoadbShellExecutorWithDisconnectHandler is NewGoadbShellExecutor, plus a
// callback invoked each time a command fails because the device went away.
// cmd/adbsync uses this to tear down cached state (ListingService.ForgetDevice)
// for a device that's no longer attached.
func NewGoadbShellExecutorWithDisconnectHandler(clientConfig adb.ClientConfig, serial string, onDisconnect func()) ShellExecutor {
	return &goadbShellExecutor{
		client:                    adb.NewDeviceClient(clientConfig, adb.DeviceWithSerial(serial)),
		deviceDisconnectedHandler: onDisconnect,
	}
}

// RunLines executes cmd and delivers its output to receiver one batch of
// lines at a time. goadb's RunCommand has no streaming mode, so the whole
// output is captured, split on newlines, and handed to the receiver in a
// single call. IsCancelled is polled once, before the command runs: a
// receiver that is already cancelled gets a Cancelled error and the command
// is never sent. Cancellation while the command runs is not observed.
func (e *goadbShellExecutor) RunLines(cmd string, receiver LineReceiver) error {
	if receiver.IsCancelled() {
		return Errorf(Cancelled, "shell command cancelled before executing: %s", cmd)
	}

	output, err := e.client.RunCommand(cmd)
	if err != nil {
		if adbutil.HasErrCode(err, adbutil.DeviceNotFound) {
			if e.deviceDisconnectedHandler != nil {
				e.deviceDisconnectedHandler()
			}
			return WrapErrf(IO, err, "device disconnected running %q", cmd)
		}
		return WrapErrf(IO, err, "failed to run %q", cmd)
	}

	var buf util.GrowableByteSlice
	buf.WriteAt([]byte(output), 0)

	lines := splitLines(buf.String())
	receiver.ProcessNewLines(lines)
	return nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
