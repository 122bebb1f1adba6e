package adbsync

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"adbsync/internal/util"
)

// RefreshRate and RefreshTest are the listing cache timings from spec §4.7 /
// GLOSSARY: a listing is considered fresh for RefreshTest milliseconds,
// slightly less than RefreshRate to leave headroom for clock imprecision.
const (
	RefreshRate = 5000 * time.Millisecond
	RefreshTest = RefreshRate * 4 / 5
)

// rootLevelApprovedItems is the filter applied to root's direct children
// (spec §4.6): everything else reported by `ls -l /` is dropped.
var rootLevelApprovedItems = map[string]bool{
	"data":   true,
	"sdcard": true,
	"mnt":    true,
	"system": true,
	"tmp":    true,
}

var apkPattern = regexp.MustCompile(`(?i)\.apk$`)

// escapeChars lists the non-whitespace characters plus space that
// FileEntry.EscapedPath backslash-escapes so a path is safe inside a shell
// command line (spec §3); escapePattern also escapes \t, \n, \r, \f and \v.
const escapeChars = `\ ()*+?"'#/`

var escapePattern = regexp.MustCompile(`[\\ ()*+?"'#/\t\n\r\f\v]`)

// FileEntry is a node in the remote directory tree (spec §3). Non-root
// entries have exactly one parent; identity is (parent, name).
type FileEntry struct {
	Name        string
	Type        EntryType
	Size        string
	Date        string
	Time        string
	Permissions string
	Owner       string
	Group       string
	Info        string

	parent     *FileEntry
	isRoot     bool
	isAppPkg   bool
	children   []*FileEntry
	freshness  *util.Freshness
}

// newRootEntry creates the tree root: no parent, empty name, DIRECTORY type.
func newRootEntry(clock util.Clock) *FileEntry {
	return &FileEntry{
		Type:      TypeDirectory,
		isRoot:    true,
		freshness: util.NewFreshness(clock),
	}
}

// NewRootEntry creates the root of a fresh directory tree, rooted at "/".
// Callers outside this package (the CLI, most notably) have no other way to
// obtain a *FileEntry to pass to ListingService: the tree is otherwise only
// ever grown by ListChildren/ListChildrenSync.
func NewRootEntry(clock util.Clock) *FileEntry {
	return newRootEntry(clock)
}

// newChildEntry creates a non-root entry under parent.
func newChildEntry(parent *FileEntry, name string, clock util.Clock) *FileEntry {
	e := &FileEntry{
		Name:      name,
		Type:      TypeOther,
		parent:    parent,
		freshness: util.NewFreshness(clock),
	}
	return e
}

// IsRoot reports whether e is the tree root.
func (e *FileEntry) IsRoot() bool { return e.isRoot }

// Parent returns e's parent, or nil if e is root.
func (e *FileEntry) Parent() *FileEntry { return e.parent }

// IsDirectory reports whether e is a directory or a directory link.
func (e *FileEntry) IsDirectory() bool {
	return e.Type == TypeDirectory || e.Type == TypeDirectoryLink
}

// SizeValue parses Size as an integer, returning 0 if it isn't numeric
// (e.g. a block/character device's "major, minor" field).
func (e *FileEntry) SizeValue() int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(e.Size), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// PathSegments returns the path from root to e as a list of names,
// excluding root's own empty name.
func (e *FileEntry) PathSegments() []string {
	if e.isRoot {
		return nil
	}
	segs := e.parent.PathSegments()
	return append(segs, e.Name)
}

// FullPath returns "/" + join(segments, "/"); root returns "/".
func (e *FileEntry) FullPath() string {
	segs := e.PathSegments()
	if len(segs) == 0 {
		return "/"
	}
	return "/" + strings.Join(segs, "/")
}

// EscapedPath is FullPath with every character in escapeChars backslash-
// escaped, so the result is safe to splice into a shell command line.
//
// The C++ original this was ported from builds this string via a regex
// Matcher::replaceAll call whose result it discards, so the "escaped" path
// it actually sends to the shell is just the unescaped path. Spec §9 calls
// that out as unintentional and asks for the documented contract instead,
// so unlike the original, this implementation applies the escaping.
func (e *FileEntry) EscapedPath() string {
	full := e.FullPath()
	return escapePattern.ReplaceAllStringFunc(full, func(c string) string {
		return `\` + c
	})
}

// IsAppFileName reports whether Name matches *.apk case-insensitively.
func (e *FileEntry) IsAppFileName() bool {
	return apkPattern.MatchString(e.Name)
}

// IsApplicationPackage reports whether e is an installed application
// package: a FILE named *.apk whose path is exactly [system|data]/app/_.
func (e *FileEntry) IsApplicationPackage() bool {
	return e.isAppPkg
}

func (e *FileEntry) refreshAppPackageStatus() {
	if e.Type != TypeFile || !e.IsAppFileName() {
		e.isAppPkg = false
		return
	}
	segs := e.PathSegments()
	e.isAppPkg = len(segs) == 3 && segs[1] == "app" && (segs[0] == "system" || segs[0] == "data")
}

// FindChild returns the cached child named name, or nil.
func (e *FileEntry) FindChild(name string) *FileEntry {
	for _, c := range e.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// CachedChildren returns the entry's current children, in listing order.
func (e *FileEntry) CachedChildren() []*FileEntry {
	return e.children
}

// AddChild appends child to e's child list. Used while building a fresh
// listing; does not check for duplicate names (the ls parser guarantees
// uniqueness within one batch).
func (e *FileEntry) AddChild(child *FileEntry) {
	e.children = append(e.children, child)
}

// SetChildren replaces e's children wholesale.
func (e *FileEntry) SetChildren(children []*FileEntry) {
	e.children = children
}

// NeedsFetch reports whether e's children should be re-listed: either they
// have never been fetched, or the last fetch is older than RefreshTest.
func (e *FileEntry) NeedsFetch() bool {
	return e.freshness.Stale(RefreshTest)
}

// markFetched records that e's children were just listed.
func (e *FileEntry) markFetched() {
	e.freshness.Mark()
}
