package adbsync

import (
	"io"
	"time"
)

// Transport is the duplex byte stream the sync client drives. Per spec §1
// this is an external collaborator: a dialed connection that SyncClient.Open
// switches into a single device's sync service through its Handshaker. Any
// net.Conn satisfies this interface as-is.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer
	SetDeadline(t time.Time) error
}

// writeExact writes all of b to t, applying timeout as the write deadline.
// A short write against a non-blocking transport is retried until b is
// exhausted or the deadline trips.
func writeExact(t Transport, b []byte, timeout time.Duration) error {
	if timeout > 0 {
		if err := t.SetDeadline(time.Now().Add(timeout)); err != nil {
			return WrapErrf(IO, err, "failed to set write deadline")
		}
	}

	for written := 0; written < len(b); {
		n, err := t.Write(b[written:])
		written += n
		if err != nil {
			return classifyIOErr(err, "write")
		}
	}
	return nil
}

// readExact fills buf completely from t, applying timeout as the read
// deadline. A zero-byte read on a still-open stream is treated as an IO
// error rather than silently looping forever.
func readExact(t Transport, buf []byte, timeout time.Duration) error {
	if timeout > 0 {
		if err := t.SetDeadline(time.Now().Add(timeout)); err != nil {
			return WrapErrf(IO, err, "failed to set read deadline")
		}
	}

	for read := 0; read < len(buf); {
		n, err := t.Read(buf[read:])
		read += n
		if err != nil {
			return classifyIOErr(err, "read")
		}
		if n == 0 {
			return Errorf(IO, "zero-byte read from open stream")
		}
	}
	return nil
}

// timeoutError is satisfied by net.Error and most deadline-exceeded errors.
type timeoutError interface {
	Timeout() bool
}

func classifyIOErr(err error, op string) error {
	if te, ok := err.(timeoutError); ok && te.Timeout() {
		return WrapErrf(Timeout, err, "%s timed out", op)
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return WrapErrf(IO, err, "%s hit unexpected end of stream", op)
	}
	return WrapErrf(IO, err, "%s failed", op)
}
