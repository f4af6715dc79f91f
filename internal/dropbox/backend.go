package dropbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// backend reports files in a single directory once they are ready to read.
type backend interface {
	// Run sends ready paths until ctx is done or the backend fails.
	Run(ctx context.Context, ready chan<- string) error
	Close() error
}

var errInotifyUnsupported = errors.New("inotify is not available on this platform")

func newBackend(opts Options, logger *slog.Logger) (backend, error) {
	switch opts.Backend {
	case BackendInotify:
		return newInotifyBackend(opts, logger)
	case BackendFsnotify:
		return newFsnotifyBackend(opts, logger)
	}

	b, err := newInotifyBackend(opts, logger)
	if err == nil {
		logger.Info("dropbox using inotify backend", "dir", opts.Dir)
		return b, nil
	}
	if !errors.Is(err, errInotifyUnsupported) {
		logger.Warn("inotify unavailable, falling back to fsnotify", "error", err)
	}

	fb, err := newFsnotifyBackend(opts, logger)
	if err != nil {
		return nil, fmt.Errorf("create fsnotify backend: %w", err)
	}
	logger.Info("dropbox using fsnotify backend", "dir", opts.Dir, "settle_delay", opts.SettleDelay)
	return fb, nil
}

func send(ctx context.Context, ready chan<- string, path string) bool {
	select {
	case ready <- path:
		return true
	case <-ctx.Done():
		return false
	}
}
