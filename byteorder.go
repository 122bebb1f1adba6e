package adbsync

import "encoding/binary"

// encodeLE32 writes value little-endian into buf[offset:offset+4].
func encodeLE32(value uint32, buf []byte, offset int) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], value)
}

// decodeLE32 reads a little-endian uint32 from buf[offset:offset+4].
func decodeLE32(buf []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(buf[offset : offset+4])
}
