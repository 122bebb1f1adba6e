package adbsync

import (
	"regexp"
	"strings"

	"adbsync/internal/util"
)

// lsLinePattern is the fixed `ls -l` line format (spec §4.6): permission
// bits, owner, group, size, date, time, and a tail holding the name (or
// "name -> target" for a link).
var lsLinePattern = regexp.MustCompile(
	`^([bcdlsp-][-r][-w][-xsS][-r][-w][-xsS][-r][-w][-xstST])\s+(\S+)\s+(\S+)\s+([\d\s,]*)\s+(\d{4}-\d\d-\d\d)\s+(\d\d:\d\d)\s+(.*)$`,
)

// lsParser consumes `ls -l` output lines for a single directory and
// reconciles them against that directory's previous children, preserving
// object identity for names that survive a refresh.
type lsParser struct {
	parent *FileEntry
	clock  util.Clock

	previous map[string]*FileEntry
	result   []*FileEntry
}

func newLsParser(parent *FileEntry, clock util.Clock) *lsParser {
	p := &lsParser{
		parent:   parent,
		clock:    clock,
		previous: make(map[string]*FileEntry),
	}
	for _, child := range parent.CachedChildren() {
		p.previous[child.Name] = child
	}
	return p
}

// ProcessNewLines implements the shell-command collaborator's line-receiver
// contract (spec §6). Blank lines are ignored; lines that don't match the
// fixed pattern are silently dropped (the source is expected to only emit
// `ls -l` output here).
func (p *lsParser) ProcessNewLines(lines []string) {
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p.processLine(line)
	}
}

func (p *lsParser) processLine(line string) {
	m := lsLinePattern.FindStringSubmatch(line)
	if m == nil {
		return
	}

	perms, owner, group, size, date, timeField, tail := m[1], m[2], m[3], m[4], m[5], m[6], m[7]

	entryType := typeFromPermsChar(perms[0])
	name := tail
	info := ""

	if entryType == TypeLink {
		name, info = splitLinkTail(tail)
		if !strings.Contains(info, "/") && strings.Contains(info, "..") {
			entryType = TypeDirectoryLink
		}
		info = "-> " + info
	}

	if p.parent.IsRoot() && !rootLevelApprovedItems[name] {
		return
	}

	entry, existed := p.previous[name]
	if existed {
		delete(p.previous, name)
	} else {
		entry = newChildEntry(p.parent, name, p.clock)
	}

	entry.Type = entryType
	entry.Permissions = perms
	entry.Owner = owner
	entry.Group = group
	entry.Size = strings.TrimSpace(size)
	entry.Date = date
	entry.Time = timeField
	entry.Info = info
	entry.refreshAppPackageStatus()

	p.result = append(p.result, entry)
}

// Finish returns the reconciled children. Entries from the previous
// snapshot that weren't seen in this batch are dropped.
func (p *lsParser) Finish() []*FileEntry {
	return p.result
}

// IsCancelled satisfies the shell-command collaborator's line-receiver
// contract (§6); listing a directory is never cancelled mid-stream.
func (p *lsParser) IsCancelled() bool { return false }

func splitLinkTail(tail string) (name, target string) {
	if idx := strings.Index(tail, " -> "); idx >= 0 {
		return tail[:idx], tail[idx+len(" -> "):]
	}
	return tail, ""
}

func typeFromPermsChar(c byte) EntryType {
	switch c {
	case '-':
		return TypeFile
	case 'b':
		return TypeBlock
	case 'c':
		return TypeCharacter
	case 'd':
		return TypeDirectory
	case 'l':
		return TypeLink
	case 's':
		return TypeSocket
	case 'p':
		return TypeFifo
	default:
		return TypeOther
	}
}
