package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder collects handler calls
type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) handle(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func startWatcher(t *testing.T, cfg Config, paths ...string) *recorder {
	t.Helper()
	w, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, w.Add(paths...))

	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, rec.handle) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return rec
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.cfg")
	require.NoError(t, os.WriteFile(file, []byte("x = 1\n"), 0644))

	rec := startWatcher(t, Config{Debounce: 100 * time.Millisecond}, dir)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(file, []byte(strings.Repeat("x = 1\n", i+2)), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) > 0 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, []string{file}, rec.snapshot())
}

func TestWatcher_Match(t *testing.T) {
	dir := t.TempDir()
	rec := startWatcher(t, Config{
		Debounce: 20 * time.Millisecond,
		Match:    func(p string) bool { return filepath.Ext(p) == ".cfg" },
	}, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.cfg"), []byte("x"), 0644))

	require.Eventually(t, func() bool { return len(rec.snapshot()) > 0 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{filepath.Join(dir, "b.cfg")}, rec.snapshot())
}

func TestWatcher_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "only.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	rec := startWatcher(t, Config{
		Debounce: 20 * time.Millisecond,
		Match:    func(string) bool { return true },
	}, file)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.cfg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(file, []byte("y"), 0644))

	require.Eventually(t, func() bool { return len(rec.snapshot()) > 0 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{file}, rec.snapshot())
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	rec := startWatcher(t, Config{Debounce: 20 * time.Millisecond}, dir)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	// give the watcher time to pick up the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "c.cfg"), []byte("x"), 0644))

	require.Eventually(t, func() bool {
		for _, p := range rec.snapshot() {
			if p == filepath.Join(sub, "c.cfg") {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_AddMissing(t *testing.T) {
	w, err := New(Config{})
	require.NoError(t, err)
	defer w.Close()
	assert.Error(t, w.Add(filepath.Join(t.TempDir(), "missing")))
}

// slowRecorder keeps the handler busy so changes pile up behind it
type slowRecorder struct {
	recorder
	delay time.Duration
}

func (r *slowRecorder) handle(ctx context.Context, path string) {
	time.Sleep(r.delay)
	r.recorder.handle(ctx, path)
}

func TestWatcher_BusyHandlerLosesNothing(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Add(dir))

	rec := &slowRecorder{delay: 30 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, rec.handle) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	const files = 40
	want := make(map[string]bool, files)
	for i := 0; i < files; i++ {
		path := filepath.Join(dir, fmt.Sprintf("f%02d.cfg", i))
		want[path] = true
		require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0644))
	}

	require.Eventually(t, func() bool {
		seen := make(map[string]bool)
		for _, p := range rec.snapshot() {
			seen[p] = true
		}
		return len(seen) == files
	}, 10*time.Second, 50*time.Millisecond)

	for _, p := range rec.snapshot() {
		assert.True(t, want[p], p)
	}
}

func TestWatcher_RescheduleAfterFire(t *testing.T) {
	w, err := New(Config{Debounce: time.Hour})
	require.NoError(t, err)
	defer w.Close()

	w.schedule("a.cfg")
	w.mu.Lock()
	stale := w.timers["a.cfg"]
	w.mu.Unlock()

	// a newer schedule replaces the timer; the old one must not clear it
	w.schedule("a.cfg")
	w.mu.Lock()
	current := w.timers["a.cfg"]
	w.mu.Unlock()
	require.NotSame(t, stale, current)

	stale.Reset(0)
	time.Sleep(50 * time.Millisecond)

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Same(t, current, w.timers["a.cfg"])
	assert.Empty(t, w.pending)
}

func TestWatcher_DrainSorted(t *testing.T) {
	w, err := New(Config{})
	require.NoError(t, err)
	defer w.Close()

	w.pending["b.cfg"] = true
	w.pending["a.cfg"] = true
	assert.Equal(t, []string{"a.cfg", "b.cfg"}, w.drain())
	assert.Empty(t, w.drain())
}
