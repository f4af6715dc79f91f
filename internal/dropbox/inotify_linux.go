//go:build linux

package dropbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// pollTimeoutMs bounds how long Run waits before rechecking its context.
const pollTimeoutMs = 250

// inotifyBackend watches one directory with IN_CLOSE_WRITE and IN_MOVED_TO,
// which fire only once a writer has finished with the file.
type inotifyBackend struct {
	opts      Options
	logger    *slog.Logger
	fd        int
	closeOnce sync.Once
}

func newInotifyBackend(opts Options, logger *slog.Logger) (backend, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}

	if _, err := unix.InotifyAddWatch(fd, opts.Dir, unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO|unix.IN_ONLYDIR); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("inotify watch %s: %w", opts.Dir, err)
	}

	return &inotifyBackend{opts: opts, logger: logger, fd: fd}, nil
}

func (b *inotifyBackend) Run(ctx context.Context, ready chan<- string) error {
	buf := make([]byte, 64*(unix.SizeofInotifyEvent+unix.NAME_MAX+1))
	fds := []unix.PollFd{{Fd: int32(b.fd), Events: unix.POLLIN}} //nolint:gosec // G115: fd is a small non-negative int

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := unix.Poll(fds, pollTimeoutMs)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll inotify: %w", err)
		}
		if n == 0 {
			continue
		}

		n, err = unix.Read(b.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			return fmt.Errorf("read inotify events: %w", err)
		}

		for _, name := range parseEvents(buf[:n]) {
			path := filepath.Join(b.opts.Dir, name)
			if !b.opts.accepts(path) {
				continue
			}
			if info, err := os.Stat(path); err != nil || info.IsDir() {
				continue
			}
			if !send(ctx, ready, path) {
				return nil
			}
		}
	}
}

func (b *inotifyBackend) Close() error {
	var err error
	b.closeOnce.Do(func() { err = unix.Close(b.fd) })
	return err
}

// parseEvents returns the file names carried by raw inotify events.
// Events without a name (about the directory itself) are dropped.
func parseEvents(buf []byte) []string {
	var names []string
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buf) {
		//nolint:gosec // G103: inotify records are read in place
		event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		start := offset + unix.SizeofInotifyEvent
		end := start + int(event.Len)
		if end > len(buf) {
			break
		}
		offset = end

		if event.Mask&unix.IN_ISDIR != 0 || event.Len == 0 {
			continue
		}
		raw := buf[start:end]
		if i := bytes.IndexByte(raw, 0); i >= 0 {
			raw = raw[:i]
		}
		if len(raw) > 0 {
			names = append(names, string(raw))
		}
	}
	return names
}

