package adbsync

import (
	"bytes"
	"fmt"
)

// formatArgsListForLog renders args the way LogEntry wants them in its
// "result" field: summarized first so byte slices don't flood the log, then
// Go-syntax quoted. Used by Pull/Push to describe how many top-level entries
// were copied and the total work (bytes plus one per directory).
func formatArgsListForLog(args ...interface{}) string {
	if len(args) == 0 {
		return ""
	}

	summarizeForLog(args)

	var buffer bytes.Buffer
	buffer.WriteRune('[')
	for i, item := range args {
		fmt.Fprintf(&buffer, "%#v", item)

		if i < len(args)-1 {
			buffer.WriteString(", ")
		}
	}
	buffer.WriteRune(']')
	return buffer.String()
}

// summarizeForLog replaces []byte elements of vals with their length and
// type, so logging a DATA chunk doesn't dump the payload.
func summarizeForLog(vals []interface{}) {
	for i, val := range vals {
		if b, ok := val.([]byte); ok {
			vals[i] = fmt.Sprintf("[]byte(%d)", len(b))
		}
	}
}
