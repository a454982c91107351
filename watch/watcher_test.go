package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 50 * time.Millisecond

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func startWatcher(t *testing.T, paths ...string) *Watcher {
	t.Helper()
	w, err := New(paths, testDebounce, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() { _ = w.Stop() })

	// Give the watcher time to settle.
	time.Sleep(2 * testDebounce)
	return w
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case event, ok := <-w.Events():
		require.True(t, ok, "events channel closed")
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for watch event")
		return Event{}
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil, 0, nil)
	assert.Error(t, err)

	dir := t.TempDir()
	w, err := New([]string{filepath.Join(dir, "a.md"), filepath.Join(dir, "b.md")}, 0, nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.Len(t, w.docs, 2)
	assert.Len(t, w.dirs, 1, "shared directory is watched once")
}

func TestWatcher_Modify(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "guide.md")
	writeFile(t, doc, "v1\n")

	w := startWatcher(t, doc)
	writeFile(t, doc, "v2\n")

	event := nextEvent(t, w)
	assert.Equal(t, doc, event.Path)
	assert.Equal(t, OpModify, event.Operation)
}

func TestWatcher_UnchangedContentIsIgnored(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "guide.md")
	other := filepath.Join(dir, "guide.md.cache")
	writeFile(t, doc, "same\n")

	w := startWatcher(t, doc)
	writeFile(t, doc, "same\n")
	writeFile(t, other, "ignored\n")

	select {
	case event := <-w.Events():
		t.Fatalf("unexpected event %+v", event)
	case <-time.After(5 * testDebounce):
	}
}

func TestWatcher_Delete(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "guide.md")
	writeFile(t, doc, "v1\n")

	w := startWatcher(t, doc)
	require.NoError(t, os.Remove(doc))

	event := nextEvent(t, w)
	assert.Equal(t, OpDelete, event.Operation)
	_, ok := w.GetHash(doc)
	assert.False(t, ok)
}

func TestWatcher_Run(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "guide.md")
	writeFile(t, doc, "v1\n")

	w, err := New([]string{doc}, testDebounce, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	handled := make(chan Event, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, event Event) error {
			handled <- event
			return errors.New("handler errors are logged, not fatal")
		})
	}()

	time.Sleep(2 * testDebounce)
	writeFile(t, doc, "v2\n")

	select {
	case event := <-handled:
		assert.Equal(t, doc, event.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("handler not called")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
