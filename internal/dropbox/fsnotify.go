package dropbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// fsnotifyBackend hands a file over once its size and mtime have stayed the
// same for one settle delay.
type fsnotifyBackend struct {
	opts    Options
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*pendingFile
	settled chan string
	stopped bool
}

type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

func newFsnotifyBackend(opts Options, logger *slog.Logger) (backend, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := w.Add(opts.Dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", opts.Dir, err)
	}

	return &fsnotifyBackend{
		opts:    opts,
		logger:  logger,
		watcher: w,
		pending: make(map[string]*pendingFile),
		settled: make(chan string, 64),
	}, nil
}

func (b *fsnotifyBackend) Run(ctx context.Context, ready chan<- string) error {
	defer b.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-b.watcher.Events:
			if !ok {
				return nil
			}
			b.handle(event)
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Warn("fsnotify error", "error", err)
		case path := <-b.settled:
			if !send(ctx, ready, path) {
				return nil
			}
		}
	}
}

func (b *fsnotifyBackend) handle(event fsnotify.Event) {
	if !b.opts.accepts(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		b.cancel(event.Name)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		b.settle(event.Name)
	}
}

// settle (re)starts the settle timer for path.
func (b *fsnotifyBackend) settle(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}
	if p, ok := b.pending[path]; ok {
		p.timer.Stop()
	}
	b.pending[path] = &pendingFile{
		size:    info.Size(),
		modTime: info.ModTime(),
		timer:   time.AfterFunc(b.opts.SettleDelay, func() { b.check(path) }),
	}
}

func (b *fsnotifyBackend) check(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pending[path]
	if !ok || b.stopped {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(b.pending, path)
		return
	}
	if info.Size() != p.size || !info.ModTime().Equal(p.modTime) {
		p.size = info.Size()
		p.modTime = info.ModTime()
		p.timer = time.AfterFunc(b.opts.SettleDelay, func() { b.check(path) })
		return
	}

	delete(b.pending, path)
	select {
	case b.settled <- path:
	default:
		b.logger.Warn("dropbox queue full, file left for next scan", "path", path)
	}
}

func (b *fsnotifyBackend) cancel(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pending[path]; ok {
		p.timer.Stop()
		delete(b.pending, path)
	}
}

func (b *fsnotifyBackend) stopTimers() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopped = true
	for _, p := range b.pending {
		p.timer.Stop()
	}
	clear(b.pending)
}

func (b *fsnotifyBackend) Close() error {
	b.stopTimers()
	return b.watcher.Close()
}
