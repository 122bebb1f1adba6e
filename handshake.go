package adbsync

import (
	"strconv"
	"time"
)

// Handshaker is the external collaborator Open() delegates to (spec §4.5):
// whatever dialed the connection hands SyncClient a Transport plus a way to
// complete the handshake that switches it into the device's sync service.
type Handshaker interface {
	// Handshake performs the handshake over t and reports whether the
	// device accepted it. err is only non-nil for IO/timeout; a rejection
	// is reported as (false, nil).
	Handshake(t Transport, timeout time.Duration) (bool, error)
}

// hostMessageHandshaker implements the ADB host-message framing used to
// select a device and switch its connection into sync mode: a 4-hex-ASCII
// length prefix followed by the command text, then a 4-byte "OKAY"/"FAIL"
// status. This is the one piece of the ADB host protocol this repo
// implements itself, rather than delegating to goadb: goadb's public API
// dials and multiplexes services but doesn't expose the raw pre-sync
// handshake frames, and no other library in reach speaks this particular
// framing.
type hostMessageHandshaker struct {
	serial string
}

// NewHostMessageHandshaker builds a Handshaker that switches the device
// identified by serial into sync mode. An empty serial addresses whatever
// single device is attached, matching plain `adb` host-service semantics.
func NewHostMessageHandshaker(serial string) Handshaker {
	return &hostMessageHandshaker{serial: serial}
}

func (h *hostMessageHandshaker) Handshake(t Transport, timeout time.Duration) (bool, error) {
	target := "host:transport-any"
	if h.serial != "" {
		target = "host:transport:" + h.serial
	}
	ok, err := h.sendHostMessage(t, timeout, target)
	if err != nil || !ok {
		return ok, err
	}
	return h.sendHostMessage(t, timeout, "sync:")
}

func (h *hostMessageHandshaker) sendHostMessage(t Transport, timeout time.Duration, message string) (bool, error) {
	frame := make([]byte, 4+len(message))
	copy(frame[0:4], []byte(hostMessageLengthPrefix(len(message))))
	copy(frame[4:], message)

	if err := writeExact(t, frame, timeout); err != nil {
		return false, err
	}

	status := make([]byte, 4)
	if err := readExact(t, status, timeout); err != nil {
		return false, err
	}

	if isTag(status, tagOkay) {
		return true, nil
	}
	return false, nil
}

// hostMessageLengthPrefix renders n as 4 lowercase hex digits, the framing
// the ADB host protocol uses ahead of every host-message request.
func hostMessageLengthPrefix(n int) string {
	s := strconv.FormatInt(int64(n), 16)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
