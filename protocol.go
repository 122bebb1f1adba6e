package adbsync

import "strconv"

// Wire tags for the sync protocol (spec §4.3). Each is 4 ASCII bytes, never
// NUL-terminated.
var (
	tagOkay = [4]byte{'O', 'K', 'A', 'Y'}
	tagFail = [4]byte{'F', 'A', 'I', 'L'}
	tagStat = [4]byte{'S', 'T', 'A', 'T'}
	tagRecv = [4]byte{'R', 'E', 'C', 'V'}
	tagData = [4]byte{'D', 'A', 'T', 'A'}
	tagDone = [4]byte{'D', 'O', 'N', 'E'}
	tagSend = [4]byte{'S', 'E', 'N', 'D'}
)

const (
	// SyncDataMax is the largest payload a single DATA frame may carry.
	SyncDataMax = 64 * 1024

	// RemotePathMaxLength is the longest path the sync service accepts.
	RemotePathMaxLength = 1024
)

// EntryType enumerates the possible FileEntry kinds (spec §3).
type EntryType int

const (
	TypeFile EntryType = iota
	TypeDirectory
	TypeDirectoryLink
	TypeBlock
	TypeCharacter
	TypeLink
	TypeSocket
	TypeFifo
	TypeOther
)

// Mode bits used to classify a STAT response (spec §4.3). Tested in the
// order given; first match wins.
const (
	modeSock = 0xC000
	modeLnk  = 0xA000
	modeReg  = 0x8000
	modeBlk  = 0x6000
	modeDir  = 0x4000
	modeChr  = 0x2000
	modeFifo = 0x1000
)

// fileTypeFromMode projects a POSIX mode word onto an EntryType.
func fileTypeFromMode(mode uint32) EntryType {
	switch mode & 0xF000 {
	case modeSock:
		return TypeSocket
	case modeLnk:
		return TypeLink
	case modeReg:
		return TypeFile
	case modeBlk:
		return TypeBlock
	case modeDir:
		return TypeDirectory
	case modeChr:
		return TypeCharacter
	case modeFifo:
		return TypeFifo
	default:
		return TypeOther
	}
}

// isTag reports whether buf starts with tag's 4 bytes.
func isTag(buf []byte, tag [4]byte) bool {
	return len(buf) >= 4 && buf[0] == tag[0] && buf[1] == tag[1] && buf[2] == tag[2] && buf[3] == tag[3]
}

// makeReq builds an 8-byte frame: tag followed by a little-endian u32 value.
func makeReq(tag [4]byte, value uint32) []byte {
	buf := make([]byte, 8)
	copy(buf[0:4], tag[:])
	encodeLE32(value, buf, 4)
	return buf
}

// makePathReq builds tag ∥ len(path) ∥ path.
func makePathReq(tag [4]byte, path []byte) []byte {
	buf := make([]byte, 8+len(path))
	copy(buf[0:4], tag[:])
	encodeLE32(uint32(len(path)), buf, 4)
	copy(buf[8:], path)
	return buf
}

// makeSendReq builds tag ∥ len(path+","+decimal(mode&0o777)) ∥ path ∥ "," ∥ decimal mode.
// The trailing field is the ASCII decimal rendering of mode&0o777 (spec §6;
// confirmed against the original's Poco::NumberFormatter::format(mode &
// 0777) in SyncService.cpp), not an octal-digit string — 0o644 goes on the
// wire as "644" rendered in decimal, i.e. "420".
func makeSendReq(tag [4]byte, path []byte, mode uint32) []byte {
	modeStr := strconv.Itoa(int(mode & 0o777))
	payload := make([]byte, 0, len(path)+1+len(modeStr))
	payload = append(payload, path...)
	payload = append(payload, ',')
	payload = append(payload, modeStr...)

	buf := make([]byte, 8+len(payload))
	copy(buf[0:4], tag[:])
	encodeLE32(uint32(len(payload)), buf, 4)
	copy(buf[8:], payload)
	return buf
}
