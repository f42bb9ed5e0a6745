package cache

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meghashyamc/folio/content"
	"github.com/meghashyamc/folio/logger"
	"github.com/stretchr/testify/require"
)

func newTestLogger() logger.Logger {

	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type fakeLoader struct {
	calls   atomic.Int32
	mu      sync.Mutex
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeLoader) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeLoader) Load(ctx context.Context) (*content.Snapshot, error) {
	call := f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	doc := content.Document{Slug: "doc", Title: "load " + string(rune('0'+call))}
	return content.NewSnapshot([]content.Document{doc}, nil, uint64(call), time.Now()), nil
}

func TestGetReturnsSameSnapshotWithinTTL(t *testing.T) {
	assert := require.New(t)
	clock := newFakeClock()
	loader := &fakeLoader{}
	c := New("blog", loader, newTestLogger(), WithTTL(time.Minute), WithClock(clock.Now))

	first, err := c.Get(context.Background())
	assert.NoError(err)
	clock.Advance(59 * time.Second)
	second, err := c.Get(context.Background())
	assert.NoError(err)

	assert.Same(first, second, "snapshot should be memoized within the TTL")
	assert.Equal(int32(1), loader.calls.Load())
	assert.Equal(uint64(1), first.Generation)
}

func TestGetReloadsAfterTTL(t *testing.T) {
	assert := require.New(t)
	clock := newFakeClock()
	loader := &fakeLoader{}
	c := New("blog", loader, newTestLogger(), WithTTL(time.Minute), WithClock(clock.Now))

	first, err := c.Get(context.Background())
	assert.NoError(err)
	clock.Advance(time.Minute)
	second, err := c.Get(context.Background())
	assert.NoError(err)

	assert.NotSame(first, second)
	assert.Equal(int32(2), loader.calls.Load())
	assert.Equal(uint64(2), second.Generation)
}

func TestConcurrentGetsShareOnePopulation(t *testing.T) {
	assert := require.New(t)
	loader := &fakeLoader{started: make(chan struct{}, 1), release: make(chan struct{})}
	c := New("blog", loader, newTestLogger())

	const callers = 16
	results := make([]*content.Snapshot, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshot, err := c.Get(context.Background())
			assert.NoError(err)
			results[i] = snapshot
		}()
	}

	<-loader.started
	time.Sleep(50 * time.Millisecond)
	close(loader.release)
	wg.Wait()

	assert.Equal(int32(1), loader.calls.Load(), "only one population should run")
	for _, snapshot := range results {
		assert.Same(results[0], snapshot)
	}
}

func TestFailedReloadKeepsPreviousSnapshot(t *testing.T) {
	assert := require.New(t)
	clock := newFakeClock()
	loader := &fakeLoader{}
	c := New("blog", loader, newTestLogger(), WithTTL(time.Minute), WithRetryBackoff(10*time.Second), WithClock(clock.Now))

	first, err := c.Get(context.Background())
	assert.NoError(err)

	ioErr := errors.New("disk unplugged")
	loader.setErr(ioErr)
	clock.Advance(2 * time.Minute)

	snapshot, err := c.Get(context.Background())
	assert.ErrorIs(err, ioErr, "the triggering caller should see the reload error")
	assert.Nil(snapshot)

	previous, ok := c.Peek()
	assert.True(ok)
	assert.Same(first, previous, "a failed reload must not replace the snapshot")

	clock.Advance(5 * time.Second)
	snapshot, err = c.Get(context.Background())
	assert.NoError(err, "callers within the retry backoff get the previous snapshot")
	assert.Same(first, snapshot)
	assert.Equal(int32(2), loader.calls.Load())

	loader.setErr(nil)
	clock.Advance(10 * time.Second)
	snapshot, err = c.Get(context.Background())
	assert.NoError(err)
	assert.NotSame(first, snapshot)
	assert.Equal(int32(3), loader.calls.Load())
}

func TestFailedInitialLoadReturnsError(t *testing.T) {
	assert := require.New(t)
	loader := &fakeLoader{}
	loader.setErr(os.ErrPermission)
	c := New("projects", loader, newTestLogger(), WithRetryBackoff(time.Hour))

	_, err := c.Get(context.Background())
	assert.ErrorIs(err, os.ErrPermission)
	_, err = c.Get(context.Background())
	assert.ErrorIs(err, os.ErrPermission, "without a previous snapshot every call retries")
	assert.Equal(int32(2), loader.calls.Load())
}

func TestInvalidateForcesReload(t *testing.T) {
	assert := require.New(t)
	loader := &fakeLoader{}
	c := New("blog", loader, newTestLogger())

	first, err := c.Get(context.Background())
	assert.NoError(err)
	c.Invalidate()
	second, err := c.Get(context.Background())
	assert.NoError(err)

	assert.NotSame(first, second)
	assert.Equal(int32(2), loader.calls.Load())
}

func TestResetDropsSnapshot(t *testing.T) {
	assert := require.New(t)
	c := New("blog", &fakeLoader{}, newTestLogger())

	_, err := c.Get(context.Background())
	assert.NoError(err)
	c.Reset()

	_, ok := c.Peek()
	assert.False(ok)
}

func TestCancelledCallerDoesNotAbortPopulation(t *testing.T) {
	assert := require.New(t)
	loader := &fakeLoader{started: make(chan struct{}, 1), release: make(chan struct{})}
	c := New("blog", loader, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errC := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx)
		errC <- err
	}()

	<-loader.started
	cancel()
	assert.ErrorIs(<-errC, context.Canceled)

	close(loader.release)
	assert.Eventually(func() bool {
		_, ok := c.Peek()
		return ok
	}, time.Second, 10*time.Millisecond, "the shared population should finish without its caller")

	_, err := c.Get(context.Background())
	assert.NoError(err)
	assert.Equal(int32(1), loader.calls.Load())
}

func TestChangedCorpusIsVisibleAfterTTL(t *testing.T) {
	assert := require.New(t)
	dir := t.TempDir()
	writeFile := func(name, body string) {
		assert.NoError(os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
	writeFile("first.md", "---\ntitle: First\ndate: 2024-01-01\n---\nbody")

	clock := newFakeClock()
	c := New("blog", content.NewLoader(newTestLogger(), dir), newTestLogger(), WithTTL(time.Minute), WithClock(clock.Now))

	first, err := c.Get(context.Background())
	assert.NoError(err)
	assert.Equal(1, first.Len())

	writeFile("second.md", "---\ntitle: Second\ndate: 2024-02-01\n---\nbody")
	again, err := c.Get(context.Background())
	assert.NoError(err)
	assert.Same(first, again, "changes are not visible within the TTL")

	clock.Advance(time.Minute)
	reloaded, err := c.Get(context.Background())
	assert.NoError(err)
	assert.Equal(2, reloaded.Len())
	assert.Equal("second", reloaded.Documents[0].Slug)
	assert.NotEqual(first.Fingerprint, reloaded.Fingerprint)
}

func TestInvalidateDuringLoadForcesAnotherLoad(t *testing.T) {
	assert := require.New(t)
	loader := &fakeLoader{started: make(chan struct{}, 1), release: make(chan struct{})}
	c := New("blog", loader, newTestLogger())

	firstC := make(chan *content.Snapshot, 1)
	go func() {
		snapshot, err := c.Get(context.Background())
		assert.NoError(err)
		firstC <- snapshot
	}()

	<-loader.started
	c.Invalidate()
	close(loader.release)
	first := <-firstC

	second, err := c.Get(context.Background())
	assert.NoError(err)
	assert.NotSame(first, second, "a change seen during the load must not be lost")
	assert.Equal(int32(2), loader.calls.Load())

	third, err := c.Get(context.Background())
	assert.NoError(err)
	assert.Same(second, third)
	assert.Equal(int32(2), loader.calls.Load())
}

func TestReloadDoesNotAcceptLoadStartedBeforeIt(t *testing.T) {
	assert := require.New(t)
	loader := &fakeLoader{started: make(chan struct{}, 1), release: make(chan struct{})}
	c := New("blog", loader, newTestLogger())

	go func() {
		_, err := c.Get(context.Background())
		assert.NoError(err)
	}()
	<-loader.started

	reloadedC := make(chan *content.Snapshot, 1)
	go func() {
		snapshot, err := c.Reload(context.Background())
		assert.NoError(err)
		reloadedC <- snapshot
	}()
	time.Sleep(50 * time.Millisecond)
	close(loader.release)

	reloaded := <-reloadedC
	assert.Equal(uint64(2), reloaded.Generation)
	assert.Equal(int32(2), loader.calls.Load())
}

func TestReloadWithoutConcurrentLoad(t *testing.T) {
	assert := require.New(t)
	loader := &fakeLoader{}
	c := New("blog", loader, newTestLogger())

	first, err := c.Get(context.Background())
	assert.NoError(err)
	reloaded, err := c.Reload(context.Background())
	assert.NoError(err)

	assert.NotSame(first, reloaded)
	assert.Equal(int32(2), loader.calls.Load())

	again, err := c.Get(context.Background())
	assert.NoError(err)
	assert.Same(reloaded, again)
}
