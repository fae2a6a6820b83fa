package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicery/nutmeg-highlighter/internal/watcher"
)

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0644))

	w, err := watcher.New(watcher.Config{
		Files:       []string{path},
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")

	// Rapid writes should coalesce into a single notification
	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("package main // %d", i)), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case change := <-onChange:
		assert.Equal(t, []string{path}, change.Paths)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	other := filepath.Join(dir, "other.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(other, []byte("initial"), 0644))

	w, err := watcher.New(watcher.Config{
		Files:       []string{path},
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(other, []byte("other content"), 0644))

	select {
	case <-onChange:
		t.Fatal("should not notify for unrelated files")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_DirectoryFilter(t *testing.T) {
	dir := t.TempDir()
	w, err := watcher.New(watcher.Config{
		Dirs:        []string{dir},
		Filter:      func(p string) bool { return strings.HasSuffix(p, ".yaml") },
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.yaml"), []byte("name: Go"), 0644))

	select {
	case change := <-onChange:
		assert.Equal(t, []string{filepath.Join(dir, "go.yaml")}, change.Paths)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for definition file")
	}
}

func TestWatcher_StartFailsForMissingDirectory(t *testing.T) {
	w, err := watcher.New(watcher.Config{
		Dirs:        []string{filepath.Join(t.TempDir(), "missing")},
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	_, err = w.Start()
	require.Error(t, err)
	_ = w.Stop()
}

func TestWatcher_Stop(t *testing.T) {
	dir := t.TempDir()
	w, err := watcher.New(watcher.Config{Dirs: []string{dir}, DebounceDur: 50 * time.Millisecond})
	require.NoError(t, err)
	_, err = w.Start()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop(), "Stop returned error")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig()
	assert.Equal(t, 100*time.Millisecond, cfg.DebounceDur)
	assert.Empty(t, cfg.Files)
}
