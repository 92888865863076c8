// Package watcher watches corpus directories and triggers rebuilds.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher watches corpus roots with fsnotify and invokes a single rebuild
// callback. Because the index has no incremental update path, every relevant
// change — create, write, remove, rename — coalesces into one debounced
// wholesale rebuild rather than per-file patches.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	onRebuild  func()
	debounce   time.Duration
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	timer      *time.Timer
	started    bool
	stopOnce   sync.Once
	done       chan struct{}
	logger     *zap.Logger // optional; when set, logs debug events
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the rebuild debounce window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over roots. extensions filters which file events
// count (empty = all); onRebuild is invoked after the debounce window closes.
func New(roots, extensions []string, recursive bool, onRebuild func(), opts ...Option) *Watcher {
	w := &Watcher{
		roots:      roots,
		extensions: extensions,
		recursive:  recursive,
		onRebuild:  onRebuild,
		debounce:   defaultDebounce,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	if w.logger != nil {
		w.logger.Debug("watcher starting",
			zap.Strings("roots", w.roots),
			zap.Strings("extensions", w.extensions),
			zap.Bool("recursive", w.recursive),
		)
	}
	for _, root := range w.roots {
		if err := w.addRootLocked(root); err != nil {
			_ = w.watcher.Close()
			w.watcher = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and cancels any pending rebuild.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
		w.mu.Unlock()
		close(w.done)
	})
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create):
		// A new directory must itself be watched before its files can
		// schedule rebuilds.
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.recursive {
				w.watchTree(ev.Name)
			}
			w.scheduleRebuild(ev.Name, "dir created")
			return
		}
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		// Removed paths cannot be stat'd. An extensionless path is most
		// likely a directory; losing one takes a whole subtree of sections
		// with it, so it counts regardless of the extension filter.
		if filepath.Ext(ev.Name) == "" {
			w.scheduleRebuild(ev.Name, ev.Op.String())
			return
		}
	case ev.Op.Has(fsnotify.Write):
	default:
		return
	}
	if w.matchExtension(ev.Name) {
		w.scheduleRebuild(ev.Name, ev.Op.String())
	}
}

// scheduleRebuild arms (or re-arms) the debounce timer. A burst of file
// events collapses into one rebuild.
func (w *Watcher) scheduleRebuild(path, reason string) {
	if w.logger != nil {
		w.logger.Debug("rebuild scheduled", zap.String("path", path), zap.String("reason", reason))
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		if w.onRebuild != nil {
			w.onRebuild()
		}
	})
}

func (w *Watcher) addRootLocked(root string) error {
	if !w.recursive {
		return w.watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// watchTree adds a directory subtree created after Start.
func (w *Watcher) watchTree(dir string) {
	w.mu.Lock()
	watcher := w.watcher
	w.mu.Unlock()
	if watcher == nil {
		return
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if addErr := watcher.Add(path); addErr != nil && w.logger != nil {
				w.logger.Debug("watcher add failed", zap.String("path", path), zap.Error(addErr))
			}
		}
		return nil
	})
}

func (w *Watcher) matchExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, a := range w.extensions {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == ext {
			return true
		}
	}
	return false
}
