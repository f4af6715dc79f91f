package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/exhibit-server/internal/config"
	"github.com/listenupapp/exhibit-server/internal/dropbox"
	"github.com/listenupapp/exhibit-server/internal/logger"
	"github.com/listenupapp/exhibit-server/internal/service"
)

// DropboxHandle wraps the dropbox watcher with shutdown capability.
// Dropbox is nil when no dropbox path is configured.
type DropboxHandle struct {
	*dropbox.Dropbox
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *DropboxHandle) Shutdown() error {
	if h.Dropbox == nil {
		return nil
	}
	h.cancel()
	select {
	case <-h.done:
		return nil
	case <-time.After(shutdownTimeout):
		return fmt.Errorf("dropbox did not stop within %s", shutdownTimeout)
	}
}

// ProvideDropbox provides the dropbox watcher and starts it in the background.
func ProvideDropbox(i do.Injector) (*DropboxHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Ingest.DropboxPath == "" {
		log.Info("Dropbox disabled")
		return &DropboxHandle{}, nil
	}

	ingestService := do.MustInvoke[*service.IngestService](i)
	limiter := do.MustInvoke[*IngestLimiterHandle](i)
	box, err := dropbox.New(dropbox.Options{
		Dir:     cfg.Ingest.DropboxPath,
		Exhibit: cfg.Exhibit.ID,
		Limiter: limiter.KeyedRateLimiter,
	}, ingestService, log.Component("dropbox"))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := box.Run(ctx); err != nil {
			log.Error("Dropbox stopped", "error", err)
		}
	}()

	log.Info("Dropbox watching", "path", box.Dir())
	return &DropboxHandle{Dropbox: box, cancel: cancel, done: done}, nil
}
