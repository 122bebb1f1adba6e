package adbsync

import (
	"io"
	"os"
	"path/filepath"
	"time"
)

// SyncClient drives the sync protocol (§4.5) over a single Transport. It is
// not safe for concurrent use: a transport must not be shared by multiple
// callers at once.
type SyncClient struct {
	transport  Transport
	handshaker Handshaker
	timeout    time.Duration
	buf        *transferBuffer
	serial     string
}

// SetSerial records which device's serial to attach to this client's log
// entries and traces; purely cosmetic, no protocol effect.
func (c *SyncClient) SetSerial(serial string) {
	c.serial = serial
}

// NewSyncClient builds a SyncClient around an already-dialed transport. The
// handshaker performs the device-specific work of pinning the connection to
// a sync-service session; timeout is applied to every transport read/write.
func NewSyncClient(transport Transport, handshaker Handshaker, timeout time.Duration) *SyncClient {
	return &SyncClient{
		transport:  transport,
		handshaker: handshaker,
		timeout:    timeout,
		buf:        newTransferBuffer(),
	}
}

// Open initiates the sync handshake via the configured Handshaker. A false
// return means the device rejected the handshake; err is only set for IO or
// timeout, in which case the transport has already been closed.
func (c *SyncClient) Open() (bool, error) {
	ok, err := c.handshaker.Handshake(c.transport, c.timeout)
	if err != nil {
		c.transport.Close()
		return false, err
	}
	return ok, nil
}

// ReadMode issues a STAT request and returns the mode word, or nil if the
// response's tag isn't STAT (treated as "unknown, attempt anyway").
func (c *SyncClient) ReadMode(path string) (*uint32, error) {
	if err := checkRemotePathLength(path); err != nil {
		return nil, err
	}

	if err := writeExact(c.transport, makePathReq(tagStat, []byte(path)), c.timeout); err != nil {
		return nil, err
	}

	resp := make([]byte, 16)
	if err := readExact(c.transport, resp, c.timeout); err != nil {
		return nil, err
	}

	if !isTag(resp, tagStat) {
		return nil, nil
	}
	mode := decodeLE32(resp, 4)
	return &mode, nil
}

// PullFile copies remotePath to localPath (§4.5 pull_file).
func (c *SyncClient) PullFile(remotePath, localPath string, monitor ProgressMonitor) error {
	entry := StartOperation("PullFile", remotePath)
	entry.Serial(c.serial)
	defer entry.FinishOperation()

	monitor.Start(0)
	defer monitor.Stop()

	err := c.pullFile(remotePath, localPath, monitor)
	if err != nil {
		entry.Error(err)
	} else {
		entry.Result("ok")
	}
	return err
}

// pullFile is PullFile's body, without the Start/Stop bracket, so the
// recursive Pull can drive many files through one monitor lifecycle.
func (c *SyncClient) pullFile(remotePath, localPath string, monitor ProgressMonitor) error {
	if err := checkRemotePathLength(remotePath); err != nil {
		return err
	}

	mode, err := c.ReadMode(remotePath)
	if err != nil {
		return err
	}
	if mode != nil && *mode == 0 {
		return Errorf(NoRemoteObject, "no such remote file: %s", remotePath)
	}

	if err := writeExact(c.transport, makePathReq(tagRecv, []byte(remotePath)), c.timeout); err != nil {
		return err
	}

	f, err := os.Create(localPath)
	if err != nil {
		return WrapErrf(FileWriteError, err, "failed to open %s for writing", localPath)
	}
	defer f.Close()

	header := make([]byte, 8)
	for {
		if monitor.IsCancelled() {
			return Errorf(Cancelled, "pull of %s cancelled", remotePath)
		}

		if err := readExact(c.transport, header, c.timeout); err != nil {
			return err
		}

		switch {
		case isTag(header, tagDone):
			return nil
		case isTag(header, tagData):
			length := decodeLE32(header, 4)
			if length > SyncDataMax {
				return Errorf(BufferOverrun, "device announced %d byte chunk, max is %d", length, SyncDataMax)
			}
			chunk := make([]byte, length)
			if err := readExact(c.transport, chunk, c.timeout); err != nil {
				return err
			}
			if _, err := f.Write(chunk); err != nil {
				return WrapErrf(FileWriteError, err, "failed to write to %s", localPath)
			}
			monitor.Advance(int64(length))
		default:
			msg, err := readFailMessage(c.transport, header, c.timeout)
			if err != nil {
				return err
			}
			return Errorf(TransferProtocolError, "%s", msg)
		}
	}
}

// PushFile copies localPath to remotePath (§4.5 push_file).
func (c *SyncClient) PushFile(localPath, remotePath string, monitor ProgressMonitor) error {
	entry := StartOperation("PushFile", remotePath)
	entry.Serial(c.serial)
	defer entry.FinishOperation()

	info, err := os.Stat(localPath)
	if err != nil {
		wrapped := WrapErrf(NoLocalFile, err, "no such local file: %s", localPath)
		entry.Error(wrapped)
		return wrapped
	}
	if info.IsDir() {
		dirErr := Errorf(LocalIsDirectory, "local path is a directory: %s", localPath)
		entry.Error(dirErr)
		return dirErr
	}

	monitor.Start(info.Size())
	defer monitor.Stop()

	if err := c.pushFile(localPath, remotePath, monitor); err != nil {
		entry.Error(err)
		return err
	}
	entry.Result("ok")
	return nil
}

// pushFile is PushFile's body, without the Start/Stop bracket or the local
// existence check (the recursive Push already stat'd every entry), so the
// recursive Push can drive many files through one monitor lifecycle.
func (c *SyncClient) pushFile(localPath, remotePath string, monitor ProgressMonitor) error {
	if err := checkRemotePathLength(remotePath); err != nil {
		return err
	}

	if err := writeExact(c.transport, makeSendReq(tagSend, []byte(remotePath), 0o644), c.timeout); err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return WrapErrf(NoLocalFile, err, "failed to open %s for reading", localPath)
	}
	defer f.Close()

	for {
		if monitor.IsCancelled() {
			return Errorf(Cancelled, "push of %s cancelled", localPath)
		}

		n, err := f.Read(c.buf.payload()[:SyncDataMax])
		if n > 0 {
			if werr := writeExact(c.transport, c.buf.frame(n), c.timeout); werr != nil {
				return werr
			}
			monitor.Advance(int64(n))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return WrapErrf(IO, err, "failed to read from %s", localPath)
		}
	}

	if err := writeExact(c.transport, makeReq(tagDone, uint32(time.Now().Unix())), c.timeout); err != nil {
		return err
	}

	resp := make([]byte, 8)
	if err := readExact(c.transport, resp, c.timeout); err != nil {
		return err
	}
	if !isTag(resp, tagOkay) {
		msg, err := readFailMessage(c.transport, resp, c.timeout)
		if err != nil {
			return err
		}
		return Errorf(TransferProtocolError, "%s", msg)
	}
	return nil
}

// Pull recursively copies entries into localDir (§4.5 pull).
func (c *SyncClient) Pull(entries []*FileEntry, localDir string, monitor ProgressMonitor) error {
	entry := StartOperation("Pull", localDir)
	entry.Serial(c.serial)
	defer entry.FinishOperation()

	info, err := os.Stat(localDir)
	if err != nil {
		wrapped := WrapErrf(NoDirTarget, err, "pull destination does not exist: %s", localDir)
		entry.Error(wrapped)
		return wrapped
	}
	if !info.IsDir() {
		dirErr := Errorf(TargetIsFile, "pull destination is not a directory: %s", localDir)
		entry.Error(dirErr)
		return dirErr
	}

	total := totalRemoteSize(entries)
	monitor.Start(total)
	defer monitor.Stop()

	if err := c.pullEntries(entries, localDir, monitor); err != nil {
		entry.Error(err)
		return err
	}
	entry.Result("copied %s", formatArgsListForLog(len(entries), total))
	return nil
}

func (c *SyncClient) pullEntries(entries []*FileEntry, localDir string, monitor ProgressMonitor) error {
	for _, e := range entries {
		if monitor.IsCancelled() {
			return Errorf(Cancelled, "pull cancelled")
		}

		local := filepath.Join(localDir, e.Name)
		if e.IsDirectory() {
			if err := os.MkdirAll(local, 0o755); err != nil {
				return WrapErrf(FileWriteError, err, "failed to create directory %s", local)
			}
			if err := c.pullEntries(e.CachedChildren(), local, monitor); err != nil {
				return err
			}
			monitor.Advance(1)
		} else {
			monitor.StartSubTask(e.FullPath())
			if err := c.pullFile(e.FullPath(), local, monitor); err != nil {
				return err
			}
		}
	}
	return nil
}

// Push recursively copies locals under remoteEntry (§4.5 push). Directories
// below remoteEntry are addressed by path only: the sync protocol has no
// mkdir request, so a nested local directory is pushed on the assumption
// that its remote counterpart already exists (mirroring the precondition
// checked on remoteEntry itself).
func (c *SyncClient) Push(locals []string, remoteEntry *FileEntry, monitor ProgressMonitor) error {
	entry := StartOperation("Push", remoteEntry.FullPath())
	entry.Serial(c.serial)
	defer entry.FinishOperation()

	if !remoteEntry.IsDirectory() {
		dirErr := Errorf(RemoteIsFile, "push destination is not a directory: %s", remoteEntry.FullPath())
		entry.Error(dirErr)
		return dirErr
	}

	total, err := totalLocalSize(locals)
	if err != nil {
		entry.Error(err)
		return err
	}
	monitor.Start(total)
	defer monitor.Stop()

	if err := c.pushLocals(locals, remoteEntry.FullPath(), monitor); err != nil {
		entry.Error(err)
		return err
	}
	entry.Result("copied %s", formatArgsListForLog(len(locals), total))
	return nil
}

func (c *SyncClient) pushLocals(locals []string, remoteDir string, monitor ProgressMonitor) error {
	for _, local := range locals {
		if monitor.IsCancelled() {
			return Errorf(Cancelled, "push cancelled")
		}

		info, err := os.Stat(local)
		if err != nil {
			return WrapErrf(NoLocalFile, err, "no such local file: %s", local)
		}

		name := filepath.Base(local)
		remotePath := remoteDir
		if remotePath != "/" {
			remotePath += "/"
		}
		remotePath += name

		if info.IsDir() {
			children, err := listLocalDir(local)
			if err != nil {
				return err
			}
			if err := c.pushLocals(children, remotePath, monitor); err != nil {
				return err
			}
			monitor.Advance(1)
		} else {
			monitor.StartSubTask(local)
			if err := c.pushFile(local, remotePath, monitor); err != nil {
				return err
			}
		}
	}
	return nil
}

func listLocalDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, WrapErrf(NoLocalFile, err, "failed to read local directory %s", dir)
	}
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = filepath.Join(dir, e.Name())
	}
	return paths, nil
}

func totalRemoteSize(entries []*FileEntry) int64 {
	var total int64
	for _, e := range entries {
		if e.IsDirectory() {
			total += 1 + totalRemoteSize(e.CachedChildren())
		} else {
			total += e.SizeValue()
		}
	}
	return total
}

func totalLocalSize(locals []string) (int64, error) {
	var total int64
	for _, local := range locals {
		info, err := os.Stat(local)
		if err != nil {
			return 0, WrapErrf(NoLocalFile, err, "no such local file: %s", local)
		}
		if info.IsDir() {
			total++
			children, err := listLocalDir(local)
			if err != nil {
				return 0, err
			}
			childTotal, err := totalLocalSize(children)
			if err != nil {
				return 0, err
			}
			total += childTotal
		} else {
			total += info.Size()
		}
	}
	return total, nil
}

func checkRemotePathLength(path string) error {
	if len(path) > RemotePathMaxLength {
		return Errorf(RemotePathLength, "remote path exceeds %d bytes: %s", RemotePathMaxLength, path)
	}
	return nil
}

// readFailMessage reads a FAIL frame's message, given its already-read 8-byte
// header (tag ∥ length).
func readFailMessage(t Transport, header []byte, timeout time.Duration) (string, error) {
	length := decodeLE32(header, 4)
	msg := make([]byte, length)
	if err := readExact(t, msg, timeout); err != nil {
		return "", err
	}
	return string(msg), nil
}
