package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lovasoa/rustache/logging"
)

// ChangeHandler receives the partial names touched by a burst of file
// events.
type ChangeHandler func(names []string)

// Watcher keeps a Dir cache coherent with the file system. Events are
// debounced so an editor save that produces several writes yields one
// notification.
type Watcher struct {
	dir     *Dir
	watcher *fsnotify.Watcher
	delay   time.Duration
	logger  logging.Logger

	mu       sync.Mutex
	handlers []ChangeHandler
	pending  map[string]struct{}
	timer    *time.Timer
	done     chan struct{}
}

// Watch starts watching every directory below d's root. Call Close to
// release the underlying watcher.
func Watch(ctx context.Context, d *Dir, delay time.Duration, logger logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	w := &Watcher{
		dir:     d,
		watcher: fw,
		delay:   delay,
		logger:  logger.WithComponent("loader"),
		pending: make(map[string]struct{}),
		done:    make(chan struct{}),
	}

	err = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching %s: %w", d.root, err)
	}

	go w.loop(ctx)
	return w, nil
}

// OnChange registers a handler called after cached partials were dropped.
func (w *Watcher) OnChange(h ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, err, "file watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		// New directories need their own watch.
		if isDir(event.Name) {
			_ = w.watcher.Add(event.Name)
		}
	}

	name, ok := w.dir.Name(event.Name)
	if !ok {
		return
	}
	w.dir.Invalidate(name)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[name] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	names := make([]string, 0, len(w.pending))
	for name := range w.pending {
		names = append(names, name)
	}
	sort.Strings(names)
	w.pending = make(map[string]struct{})
	handlers := append([]ChangeHandler(nil), w.handlers...)
	w.mu.Unlock()

	w.logger.Debug(context.Background(), "partials changed", "names", names)
	for _, h := range handlers {
		h(names)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
