package preview

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher triggers a reload when one of a fixed set of files changes.
// Parent directories are watched rather than the files themselves so
// editors that save by renaming a new file into place are noticed.
type FileWatcher struct {
	server  *Server
	watcher *fsnotify.Watcher
	files   map[string]struct{}
	delay   time.Duration

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

// WatchFiles reloads connected browsers whenever one of paths is written,
// created, renamed or removed. Empty paths are ignored.
func (s *Server) WatchFiles(ctx context.Context, delay time.Duration, paths ...string) (*FileWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &FileWatcher{
		server:  s,
		watcher: fw,
		files:   make(map[string]struct{}),
		delay:   delay,
		done:    make(chan struct{}),
	}
	dirs := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	go w.loop(ctx)
	return w, nil
}

// Close stops watching.
func (w *FileWatcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *FileWatcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := w.files[abs]; ok {
				w.server.logger.Debug(ctx, "file changed", "path", event.Name, "op", event.Op.String())
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.server.logger.Warn(ctx, err, "file watcher error")
		}
	}
}

func (w *FileWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.server.Reload)
}
