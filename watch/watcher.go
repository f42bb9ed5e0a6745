package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/meghashyamc/folio/logger"
)

const DefaultDebounce = 500 * time.Millisecond

// Watcher calls onChange once a burst of changes to a directory has settled.
type Watcher struct {
	dir      string
	logger   logger.Logger
	onChange func()
	filter   func(name string) bool
	debounce time.Duration

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFilter limits the events that trigger onChange to files accepted by filter.
func WithFilter(filter func(name string) bool) Option {
	return func(w *Watcher) {
		w.filter = filter
	}
}

func New(logger logger.Logger, dir string, onChange func(), opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		logger:   logger,
		onChange: onChange,
		filter:   func(string) bool { return true },
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. A directory that does not exist is not watched and
// is not an error.
func (w *Watcher) Start() error {
	if _, err := os.Stat(w.dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.logger.Info("content directory not found, not watching", "dir", w.dir)
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", w.dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("failed to create file watcher", "err", err.Error())
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		w.logger.Error("failed to watch directory", "dir", w.dir, "err", err.Error())
		return err
	}

	w.mu.Lock()
	w.watcher = watcher
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(watcher)
	w.logger.Info("watching content directory", "dir", w.dir, "debounce", w.debounce.String())

	return nil
}

func (w *Watcher) Watching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watcher != nil && !w.closed
}

func (w *Watcher) run(watcher *fsnotify.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.filter(event.Name) {
				continue
			}
			w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			w.schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "dir", w.dir, "err", err.Error())
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}
	w.logger.Info("content changed", "dir", w.dir)
	w.onChange()
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	watcher := w.watcher
	w.mu.Unlock()

	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	w.wg.Wait()
	return err
}
