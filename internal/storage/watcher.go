package storage

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"xoso/internal/models"

	"github.com/fsnotify/fsnotify"
	"github.com/google/logger"
)

// ChangeFunc receives the document after results.json settles on new content.
type ChangeFunc func(models.Results)

// Watcher reports changes to the results file, whether they come from this
// process or from someone editing the file by hand. Bursts of events are
// collapsed and a change is only reported when the file content differs from
// the last reported content.
type Watcher struct {
	store    *FileStore
	onChange ChangeFunc
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending time.Time
	last    []byte
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher over the store's data directory.
func NewWatcher(store *FileStore, debounce time.Duration, onChange ChangeFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	return &Watcher{
		store:    store,
		onChange: onChange,
		watcher:  fw,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching in a goroutine. The data directory is created if it
// does not exist yet, since fsnotify cannot watch a missing path.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.store.dir, 0o755); err != nil {
		return err
	}
	if err := w.watcher.Add(w.store.dir); err != nil {
		return err
	}
	if data, err := os.ReadFile(w.store.path); err == nil {
		w.last = data
	}
	logger.Infof("Watching %s for changes", w.store.path)

	go w.run(ctx)
	return nil
}

// Stop ends the event loop and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.watcher.Close(); err != nil {
		logger.Warningf("Error closing results watcher: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.store.path) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("Results watcher error: %v", err)
		case <-ticker.C:
			w.flush()
		}
	}
}

// flush reports the file once it has been quiet for the debounce window.
func (w *Watcher) flush() {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	data, err := os.ReadFile(w.store.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Errorf("Failed to read %s after change: %v", w.store.path, err)
		}
		return
	}
	if bytes.Equal(data, w.last) {
		return
	}
	w.last = data

	results, err := w.store.Read()
	if err != nil {
		logger.Warningf("Ignoring unreadable results file: %v", err)
		return
	}
	w.onChange(results)
}
