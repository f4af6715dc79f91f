package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/listenupapp/exhibit-server/internal/api"
	"github.com/listenupapp/exhibit-server/internal/config"
	"github.com/listenupapp/exhibit-server/internal/logger"
	"github.com/listenupapp/exhibit-server/internal/ratelimit"
	"github.com/listenupapp/exhibit-server/internal/service"
)

// IngestLimiterHandle wraps the ingest rate limiter with shutdown capability.
type IngestLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *IngestLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideIngestLimiter provides the per-client, per-exhibit ingest rate limiter.
func ProvideIngestLimiter(i do.Injector) (*IngestLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &IngestLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.Ingest.RateLimit, cfg.Ingest.RateBurst),
	}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	limiter := do.MustInvoke[*IngestLimiterHandle](i)

	services := &api.Services{
		Catalog: do.MustInvoke[*service.CatalogService](i),
		Ingest:  do.MustInvoke[*service.IngestService](i),
		Index:   index.Index,
	}

	handler := api.NewServer(services, api.Options{
		CORSOrigins:   cfg.Server.CORSOrigins,
		IngestLimiter: limiter.KeyedRateLimiter,
	}, log.Component("http"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
