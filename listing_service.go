package adbsync

import (
	"fmt"
	"regexp"

	"adbsync/internal/util"
)

// ListingReceiver is notified as an asynchronous listing completes (spec
// §4.8/§4.9): SetChildren has already been applied to the entry by the time
// RefreshEntry fires for any child touched by package-name augmentation.
type ListingReceiver interface {
	RefreshEntry(entry *FileEntry)
}

var packageLinePattern = regexp.MustCompile(`^package:(.+?)=(.+)$`)

// ListingService lists remote directories via the shell-command
// collaborator, maintaining the directory tree's cache freshness and
// serializing asynchronous jobs through a dispatcher (spec §4.8/§4.9).
type ListingService struct {
	executor   ShellExecutor
	dispatcher *dispatcher
	packages   *packageNameCache
	serial     string
	clock      util.Clock
}

// NewListingService builds a ListingService for one device.
func NewListingService(executor ShellExecutor, serial string, clock util.Clock) *ListingService {
	if clock == nil {
		clock = util.SystemClock
	}
	return &ListingService{
		executor:   executor,
		dispatcher: newDispatcher(),
		packages:   newPackageNameCache(),
		serial:     serial,
		clock:      clock,
	}
}

// ListChildren returns entry's children (spec §4.8).
//
// If useCache is true and the cache is still fresh, the cached children are
// returned immediately regardless of whether a receiver is supplied. With
// no receiver, the call is synchronous and best-effort: a shell/protocol
// error is swallowed and the (possibly stale) cache is returned instead.
// With a receiver, the listing is dispatched asynchronously and this call
// returns an empty slice immediately; receiver is notified through
// RefreshEntry as package names are resolved.
func (s *ListingService) ListChildren(entry *FileEntry, useCache bool, receiver ListingReceiver) []*FileEntry {
	if useCache && !entry.NeedsFetch() {
		logEntry := StartOperation("ListChildren", entry.FullPath())
		logEntry.Serial(s.serial)
		logEntry.CacheUsed(true)
		logEntry.FinishOperation()
		return entry.CachedChildren()
	}

	if receiver == nil {
		if err := s.doLs(entry, nil); err != nil {
			return entry.CachedChildren()
		}
		return entry.CachedChildren()
	}

	s.dispatcher.submit(func() {
		if err := s.doLs(entry, receiver); err != nil {
			return
		}
	})
	return nil
}

// ListChildrenSync lists entry on the caller's goroutine and surfaces any
// shell/protocol error instead of swallowing it.
func (s *ListingService) ListChildrenSync(entry *FileEntry, useCache bool) ([]*FileEntry, error) {
	if useCache && !entry.NeedsFetch() {
		return entry.CachedChildren(), nil
	}
	if err := s.doLs(entry, nil); err != nil {
		return nil, err
	}
	return entry.CachedChildren(), nil
}

// doLs runs `ls -l` against entry's path, reconciles the result into the
// tree, and (best-effort) augments application-package children with their
// package names.
func (s *ListingService) doLs(entry *FileEntry, receiver ListingReceiver) error {
	logEntry := StartOperation("ListChildren", entry.FullPath())
	logEntry.Serial(s.serial)
	logEntry.CacheUsed(false)
	defer logEntry.FinishOperation()

	parser := newLsParser(entry, s.clock)
	cmd := fmt.Sprintf("ls -l %s", entry.EscapedPath())

	if err := s.executor.RunLines(cmd, parser); err != nil {
		logEntry.Error(err)
		return err
	}

	children := parser.Finish()
	entry.markFetched()
	entry.SetChildren(children)
	// Link-finalization hook: currently a no-op. The original leaves
	// link-to-file-vs-directory disambiguation unresolved after parsing;
	// this is a deliberate extension point, not a TODO.
	s.finishLinks(children)

	if receiver != nil && len(children) > 0 && children[0].IsApplicationPackage() {
		s.augmentPackageNames(children, receiver)
	}

	logEntry.Result("%d children", len(children))
	return nil
}

func (s *ListingService) finishLinks(children []*FileEntry) {}

// ForgetDevice drops any cached package-name map for this service's device.
// Intended for a shell-executor disconnect callback
// (NewGoadbShellExecutorWithDisconnectHandler): a reattached device with the
// same serial shouldn't see a stale package list from before it went away.
func (s *ListingService) ForgetDevice() {
	s.packages.delete(s.serial)
}

// augmentPackageNames runs `pm list packages -f`, matches output lines
// against `^package:(.+?)=(.+)$`, and writes the resolved package name into
// each matching child's Info field. All errors here are swallowed: this is
// a best-effort enrichment pass, never load-bearing for the listing itself.
func (s *ListingService) augmentPackageNames(children []*FileEntry, receiver ListingReceiver) {
	byPath := make(map[string]*FileEntry, len(children))
	for _, c := range children {
		byPath[c.FullPath()] = c
	}

	packages, hit := s.packages.get(s.serial)
	if !hit {
		lines, err := s.runPmListPackages()
		if err != nil {
			return
		}
		packages = parsePackageLines(lines)
		s.packages.set(s.serial, packages)
	}

	for apkPath, packageName := range packages {
		child, found := byPath[apkPath]
		if !found {
			continue
		}
		child.Info = packageName
		receiver.RefreshEntry(child)
	}
}

func (s *ListingService) runPmListPackages() ([]string, error) {
	receiver := &lineCollector{}
	if err := s.executor.RunLines("pm list packages -f", receiver); err != nil {
		return nil, err
	}
	return receiver.lines, nil
}

func parsePackageLines(lines []string) map[string]string {
	result := make(map[string]string, len(lines))
	for _, line := range lines {
		m := packageLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		result[m[1]] = m[2]
	}
	return result
}

// lineCollector is a minimal LineReceiver that just accumulates every line
// it sees, used for one-shot commands like `pm list packages -f` that don't
// need incremental parsing.
type lineCollector struct {
	lines []string
}

func (c *lineCollector) ProcessNewLines(lines []string) {
	c.lines = append(c.lines, lines...)
}

func (c *lineCollector) IsCancelled() bool { return false }
