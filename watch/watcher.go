// Package watch regenerates documents when they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/docgen/source/parser"
)

const (
	// eventChannelBuffer is the size of the watch event channel.
	eventChannelBuffer = 64

	// DefaultDebounce is used when no debounce delay is configured.
	DefaultDebounce = 300 * time.Millisecond
)

// Operation indicates the type of document change.
type Operation string

// OpModify and OpDelete enumerate the document change types.
const (
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Event is a change of one watched document.
type Event struct {
	// Path is the document path as given to New.
	Path string

	// Operation is the type of change.
	Operation Operation
}

// Handler processes one event. Errors are logged and do not stop watching.
type Handler func(ctx context.Context, event Event) error

// Watcher watches a fixed set of documents. The parent directories are
// watched rather than the files so that editors replacing a file on save
// are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	// docs maps absolute paths to the paths given to New.
	docs map[string]string
	dirs []string

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// Hash-based change detection
	hashMu sync.RWMutex
	hashes map[string]string

	events chan Event

	droppedEvents atomic.Int64
}

// New creates a watcher for the given documents. A debounce of zero uses
// DefaultDebounce.
func New(paths []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no documents to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	docs := make(map[string]string, len(paths))
	seen := make(map[string]bool)
	var dirs []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		docs[abs] = p
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  fsw,
		logger:   logger,
		debounce: debounce,
		docs:     docs,
		dirs:     dirs,
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]string),
		events:   make(chan Event, eventChannelBuffer),
	}, nil
}

// Events returns the channel of watch events. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start records the current content of every document and begins
// watching. Writes that leave a document unchanged produce no event.
func (w *Watcher) Start(ctx context.Context) error {
	for abs := range w.docs {
		if content, err := os.ReadFile(abs); err == nil {
			w.SetHash(abs, parser.ContentHash(content))
		}
	}

	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.logger.Debug("Watching directory", "path", dir)
	}

	go w.processEvents(ctx)

	w.logger.Info("Document watcher started",
		"documents", len(w.docs),
		"debounce", w.debounce)
	return nil
}

// Stop stops the watcher.
// The events channel is closed by processEvents when it exits.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// Run starts the watcher and calls handle for every event on the calling
// goroutine, one at a time, until ctx is done.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.events:
			if !ok {
				return nil
			}
			if err := handle(ctx, event); err != nil {
				w.logger.Error("Failed to handle change",
					"path", event.Path,
					"error", err)
			}
		}
	}
}

// SetHash records the content hash for a document.
func (w *Watcher) SetHash(abs, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[abs] = hash
}

// GetHash returns the recorded content hash for a document.
func (w *Watcher) GetHash(abs string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[abs]
	return hash, ok
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent accumulates changes to watched documents.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, ok := w.docs[abs]; !ok {
		return
	}

	w.pendingMu.Lock()
	w.pending[abs] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Document change detected",
		"path", w.docs[abs],
		"op", event.Op.String())
}

// flushPending emits events for the accumulated changes.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for abs := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		event := Event{Path: w.docs[abs]}

		content, err := os.ReadFile(abs)
		if errors.Is(err, fs.ErrNotExist) {
			w.hashMu.Lock()
			delete(w.hashes, abs)
			w.hashMu.Unlock()

			event.Operation = OpDelete
			w.sendEvent(event)
			continue
		}
		if err != nil {
			w.logger.Warn("Failed to read file for hash check",
				"path", event.Path,
				"error", err)
			continue
		}

		newHash := parser.ContentHash(content)
		if oldHash, ok := w.GetHash(abs); ok && oldHash == newHash {
			continue
		}
		w.SetHash(abs, newHash)

		event.Operation = OpModify
		w.sendEvent(event)
	}
}

// sendEvent sends an event to the output channel.
func (w *Watcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event",
			"path", event.Path,
			"op", event.Operation)
	default:
		dropped := w.droppedEvents.Add(1)
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path,
			"total_dropped", dropped)
	}
}

// DroppedEvents returns the number of events dropped due to channel overflow.
func (w *Watcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}
