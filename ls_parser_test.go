package adbsync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"adbsync/internal/util"
)

func TestLsParserDirectoryListing(t *testing.T) {
	root := newRootEntry(&util.TestClock)

	p := newLsParser(root, &util.TestClock)
	p.ProcessNewLines([]string{
		"drwxr-xr-x root     root              2024-01-02 03:04 system",
		"-rw-r--r-- root     root       12345 2024-01-02 03:05 build.prop",
	})
	children := p.Finish()

	// root-level filter: "build.prop" is not in the approved set.
	assert.Len(t, children, 1)
	assert.Equal(t, "system", children[0].Name)
	assert.Equal(t, TypeDirectory, children[0].Type)
}

func TestLsParserNonRootKeepsAllNames(t *testing.T) {
	util.TestClock.Reset()
	root := newRootEntry(&util.TestClock)
	dataDir := newChildEntry(root, "data", &util.TestClock)

	p := newLsParser(dataDir, &util.TestClock)
	p.ProcessNewLines([]string{
		"drwxr-xr-x root     root              2024-01-02 03:04 system",
		"-rw-r--r-- root     root       12345 2024-01-02 03:05 build.prop",
	})
	children := p.Finish()

	assert.Len(t, children, 2)
	assert.Equal(t, "system", children[0].Name)
	assert.Equal(t, "build.prop", children[1].Name)
	assert.Equal(t, "12345", children[1].Size)
	assert.Equal(t, int64(12345), children[1].SizeValue())
}

func TestLsParserLinkParsing(t *testing.T) {
	util.TestClock.Reset()
	root := newRootEntry(&util.TestClock)
	dataDir := newChildEntry(root, "data", &util.TestClock)

	p := newLsParser(dataDir, &util.TestClock)
	p.ProcessNewLines([]string{
		"lrwxrwxrwx root     root              2024-01-02 03:04 cur -> ..",
	})
	children := p.Finish()

	assert.Len(t, children, 1)
	assert.Equal(t, "cur", children[0].Name)
	assert.Equal(t, TypeDirectoryLink, children[0].Type)
	assert.Equal(t, "-> ..", children[0].Info)
}

func TestLsParserPlainLinkIsNotDirectoryLink(t *testing.T) {
	util.TestClock.Reset()
	root := newRootEntry(&util.TestClock)
	dataDir := newChildEntry(root, "data", &util.TestClock)

	p := newLsParser(dataDir, &util.TestClock)
	p.ProcessNewLines([]string{
		"lrwxrwxrwx root     root              2024-01-02 03:04 alias -> /data/real",
	})
	children := p.Finish()

	assert.Len(t, children, 1)
	assert.Equal(t, TypeLink, children[0].Type)
	assert.Equal(t, "-> /data/real", children[0].Info)
}

func TestLsParserReconciliationPreservesIdentity(t *testing.T) {
	util.TestClock.Reset()
	root := newRootEntry(&util.TestClock)
	dataDir := newChildEntry(root, "data", &util.TestClock)

	first := newLsParser(dataDir, &util.TestClock)
	first.ProcessNewLines([]string{
		"-rw-r--r-- root     root       100 2024-01-02 03:05 a.txt",
		"-rw-r--r-- root     root       200 2024-01-02 03:05 b.txt",
	})
	dataDir.SetChildren(first.Finish())

	original := dataDir.FindChild("a.txt")
	assert.NotNil(t, original)

	second := newLsParser(dataDir, &util.TestClock)
	second.ProcessNewLines([]string{
		"-rw-r--r-- root     root       150 2024-01-02 03:06 a.txt",
		"-rw-r--r-- root     root       300 2024-01-02 03:06 c.txt",
	})
	reconciled := second.Finish()
	dataDir.SetChildren(reconciled)

	// a.txt's identity survives the refresh with updated fields; b.txt
	// (absent from the new batch) is gone.
	refreshed := dataDir.FindChild("a.txt")
	assert.NotNil(t, refreshed)
	assert.Same(t, original, refreshed)
	assert.Equal(t, "150", refreshed.Size)

	assert.Nil(t, dataDir.FindChild("b.txt"))
	assert.NotNil(t, dataDir.FindChild("c.txt"))
}
