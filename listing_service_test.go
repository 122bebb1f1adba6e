package adbsync

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"adbsync/internal/util"
)

// delegateShellExecutor is a functional test double matching the teacher's
// delegate-struct style (see device_client_test.go).
type delegateShellExecutor struct {
	mu    sync.Mutex
	calls []string
	run   func(cmd string, receiver LineReceiver) error
}

func (e *delegateShellExecutor) RunLines(cmd string, receiver LineReceiver) error {
	e.mu.Lock()
	e.calls = append(e.calls, cmd)
	e.mu.Unlock()
	return e.run(cmd, receiver)
}

func TestListChildrenUsesCacheWhenFresh(t *testing.T) {
	util.TestClock.Reset()
	root := newRootEntry(&util.TestClock)
	root.SetChildren([]*FileEntry{newChildEntry(root, "data", &util.TestClock)})
	root.markFetched()

	exec := &delegateShellExecutor{run: func(string, LineReceiver) error {
		t.Fatal("shell executor should not be invoked when cache is fresh")
		return nil
	}}
	svc := NewListingService(exec, "SERIAL", &util.TestClock)

	children := svc.ListChildren(root, true, nil)
	assert.Len(t, children, 1)
	assert.Equal(t, "data", children[0].Name)
}

func TestListChildrenSynchronousSwallowsError(t *testing.T) {
	util.TestClock.Reset()
	root := newRootEntry(&util.TestClock)
	root.SetChildren([]*FileEntry{newChildEntry(root, "stale", &util.TestClock)})

	exec := &delegateShellExecutor{run: func(string, LineReceiver) error {
		return Errorf(IO, "device offline")
	}}
	svc := NewListingService(exec, "SERIAL", &util.TestClock)

	children := svc.ListChildren(root, false, nil)
	assert.Len(t, children, 1)
	assert.Equal(t, "stale", children[0].Name)
}

func TestListChildrenSyncPropagatesError(t *testing.T) {
	util.TestClock.Reset()
	root := newRootEntry(&util.TestClock)

	exec := &delegateShellExecutor{run: func(string, LineReceiver) error {
		return Errorf(IO, "device offline")
	}}
	svc := NewListingService(exec, "SERIAL", &util.TestClock)

	_, err := svc.ListChildrenSync(root, false)
	assert.Error(t, err)
	assert.True(t, HasKind(err, IO))
}

func TestListChildrenAsyncDispatchesAndNotifiesReceiver(t *testing.T) {
	util.TestClock.Reset()
	root := newRootEntry(&util.TestClock)
	dataDir := newChildEntry(root, "data", &util.TestClock)
	appDir := newChildEntry(dataDir, "app", &util.TestClock)

	lsOutput := "-rw-r--r-- root root 12345 2024-01-02 03:05 Foo.apk"
	pmOutput := "package:/data/app/Foo.apk=com.example.foo"

	exec := &delegateShellExecutor{run: func(cmd string, receiver LineReceiver) error {
		if strings.Contains(cmd, "pm list packages") {
			receiver.ProcessNewLines(splitLines(pmOutput))
			return nil
		}
		receiver.ProcessNewLines(splitLines(lsOutput))
		return nil
	}}
	svc := NewListingService(exec, "SERIAL", &util.TestClock)

	var (
		mu       sync.Mutex
		notified []*FileEntry
	)
	receiver := testListingReceiver(func(e *FileEntry) {
		mu.Lock()
		notified = append(notified, e)
		mu.Unlock()
	})

	result := svc.ListChildren(appDir, false, receiver)
	assert.Nil(t, result)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(notified) == 1
	}, time.Second, time.Millisecond)

	children := appDir.CachedChildren()
	assert.Len(t, children, 1)
	assert.Equal(t, "com.example.foo", children[0].Info)
	assert.True(t, children[0].IsApplicationPackage())
}

func TestAugmentPackageNamesUsesCache(t *testing.T) {
	util.TestClock.Reset()
	root := newRootEntry(&util.TestClock)
	dataDir := newChildEntry(root, "data", &util.TestClock)
	appDir := newChildEntry(dataDir, "app", &util.TestClock)

	lsOutput := "-rw-r--r-- root root 12345 2024-01-02 03:05 Foo.apk"
	pmOutput := "package:/data/app/Foo.apk=com.example.foo"

	var pmCalls int
	exec := &delegateShellExecutor{run: func(cmd string, receiver LineReceiver) error {
		if strings.Contains(cmd, "pm list packages") {
			pmCalls++
			receiver.ProcessNewLines(splitLines(pmOutput))
			return nil
		}
		receiver.ProcessNewLines(splitLines(lsOutput))
		return nil
	}}
	svc := NewListingService(exec, "SERIAL", &util.TestClock)

	receiver := testListingReceiver(func(*FileEntry) {})

	for i := 0; i < 3; i++ {
		svc.ListChildren(appDir, false, receiver)
		assert.Eventually(t, func() bool {
			return appDir.FindChild("Foo.apk") != nil && appDir.FindChild("Foo.apk").Info != ""
		}, time.Second, time.Millisecond)
	}

	assert.Equal(t, 1, pmCalls)
}

func TestForgetDeviceDropsPackageCache(t *testing.T) {
	util.TestClock.Reset()
	root := newRootEntry(&util.TestClock)
	dataDir := newChildEntry(root, "data", &util.TestClock)
	appDir := newChildEntry(dataDir, "app", &util.TestClock)

	lsOutput := "-rw-r--r-- root root 12345 2024-01-02 03:05 Foo.apk"
	pmOutput := "package:/data/app/Foo.apk=com.example.foo"

	var pmCalls int
	exec := &delegateShellExecutor{run: func(cmd string, receiver LineReceiver) error {
		if strings.Contains(cmd, "pm list packages") {
			pmCalls++
			receiver.ProcessNewLines(splitLines(pmOutput))
			return nil
		}
		receiver.ProcessNewLines(splitLines(lsOutput))
		return nil
	}}
	svc := NewListingService(exec, "SERIAL", &util.TestClock)
	receiver := testListingReceiver(func(*FileEntry) {})

	svc.ListChildren(appDir, false, receiver)
	assert.Eventually(t, func() bool {
		return appDir.FindChild("Foo.apk") != nil && appDir.FindChild("Foo.apk").Info != ""
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, pmCalls)

	svc.ForgetDevice()

	svc.ListChildren(appDir, false, receiver)
	assert.Eventually(t, func() bool { return pmCalls == 2 }, time.Second, time.Millisecond)
}

type testListingReceiver func(entry *FileEntry)

func (f testListingReceiver) RefreshEntry(entry *FileEntry) { f(entry) }
