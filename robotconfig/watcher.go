package robotconfig

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for more edits before
// reporting a change.
const DefaultDebounce = 500 * time.Millisecond

// ModelChange reports that a robot model file changed on disk.
type ModelChange struct {
	// Robot is the robot kind whose model changed.
	Robot string
	// Path is the absolute model file path.
	Path string
	// Removed is true when the file no longer exists.
	Removed bool
}

// ModelWatcher watches the robots directory and reports model edits. Models
// are never cached, so a report only means the next spawn of that kind picks
// the edit up.
type ModelWatcher struct {
	root     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	onChange func(ModelChange)

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	started bool
	done    chan struct{}
}

// NewModelWatcher creates a watcher over <root>/entities/robots. onChange may
// be nil.
func NewModelWatcher(root string, debounce time.Duration, onChange func(ModelChange), logger *slog.Logger) (*ModelWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &ModelWatcher{
		root:     filepath.Join(root, robotsDir),
		debounce: debounce,
		watcher:  fsw,
		logger:   logger,
		onChange: onChange,
		pending:  make(map[string]fsnotify.Op),
		done:     make(chan struct{}),
	}, nil
}

// Start adds watches and begins processing events until ctx is done or Stop
// is called.
func (w *ModelWatcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.root); err != nil {
		return err
	}
	w.started = true
	go w.processEvents(ctx)

	w.logger.Info("Robot model watcher started", "dir", w.root, "debounce", w.debounce)
	return nil
}

// Stop closes the underlying watcher and waits for the event loop to exit.
func (w *ModelWatcher) Stop() error {
	err := w.watcher.Close()
	if w.started {
		<-w.done
	}
	return err
}

func (w *ModelWatcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *ModelWatcher) processEvents(ctx context.Context) {
	defer close(w.done)
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
			w.logger.Error("Robot model watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *ModelWatcher) handleFSEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}
	if !strings.HasSuffix(event.Name, modelFileSuffix) {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] |= event.Op
	w.pendingMu.Unlock()
}

func (w *ModelWatcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		change := ModelChange{
			Robot: strings.TrimSuffix(filepath.Base(path), modelFileSuffix),
			Path:  path,
		}
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			if _, err := os.Stat(path); os.IsNotExist(err) {
				change.Removed = true
			}
		}

		w.logger.Info("Robot model changed, next spawn picks it up",
			"robot", change.Robot,
			"path", path,
			"removed", change.Removed)

		if w.onChange != nil {
			w.onChange(change)
		}
	}
}
