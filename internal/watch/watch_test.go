package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, w *Watcher) *atomic.Int32 {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	// Give the watcher time to register its directories.
	time.Sleep(200 * time.Millisecond)
	return &calls
}

func TestRun_DebouncesBurst(t *testing.T) {
	root := t.TempDir()
	calls := startWatcher(t, New(root, WithDebounce(100*time.Millisecond)))

	for i := range 5 {
		require.NoError(t, os.WriteFile(filepath.Join(root, "Main.kt"), []byte(strings.Repeat("x", i+1)), 0o644))
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_Filter(t *testing.T) {
	root := t.TempDir()
	calls := startWatcher(t, New(root,
		WithDebounce(50*time.Millisecond),
		WithFilter(func(path string) bool { return strings.HasSuffix(path, ".kt") }),
	))

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	require.NoError(t, os.WriteFile(filepath.Join(root, "A.kt"), []byte("x"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, 20*time.Millisecond)
}

func TestRun_NewDirectory(t *testing.T) {
	root := t.TempDir()
	calls := startWatcher(t, New(root,
		WithDebounce(50*time.Millisecond),
		WithFilter(func(path string) bool { return strings.HasSuffix(path, ".xml") }),
	))

	sub := filepath.Join(root, "res", "values")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "colors.xml"), []byte("<resources/>"), 0o644))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
}

func TestDirs_SkipsHiddenAndExcluded(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	for _, dir := range []string{".git/objects", "build/tmp", "app/src"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}

	w := New(root, WithSkipDir(func(name string) bool { return name == "build" }))
	dirs, err := w.dirs(root)
	require.NoError(t, err)

	var rels []string
	for _, d := range dirs {
		rel, err := filepath.Rel(root, d)
		require.NoError(t, err)
		rels = append(rels, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{".", "app", "app/src"}, rels)
}
