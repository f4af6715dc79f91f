// Package di provides dependency injection configuration for the exhibit server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/exhibit-server/internal/config"
	"github.com/listenupapp/exhibit-server/internal/di/providers"
	"github.com/listenupapp/exhibit-server/internal/facet"
	"github.com/listenupapp/exhibit-server/internal/ingest"
	"github.com/listenupapp/exhibit-server/internal/logger"
	"github.com/listenupapp/exhibit-server/internal/service"
	"github.com/listenupapp/exhibit-server/internal/validation"
)

// NewContainer creates the DI container, loading configuration from flags and environment.
func NewContainer() *do.RootScope {
	injector := do.New()
	do.Provide(injector, providers.ProvideConfig)
	registerProviders(injector)
	return injector
}

// NewContainerWithConfig creates the DI container around an already loaded configuration.
func NewContainerWithConfig(cfg *config.Config) *do.RootScope {
	injector := do.New()
	do.ProvideValue(injector, cfg)
	registerProviders(injector)
	return injector
}

func registerProviders(injector do.Injector) {
	// Core infrastructure
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSidecarStore)
	do.Provide(injector, providers.ProvideFieldRegistry)

	// Document building
	do.Provide(injector, providers.ProvideVocabulary)
	do.Provide(injector, providers.ProvideFacetStrategy)
	do.Provide(injector, providers.ProvideBuilder)

	// Business services
	do.Provide(injector, providers.ProvideIngestService)
	do.Provide(injector, providers.ProvideCatalogService)

	// Workers
	do.Provide(injector, providers.ProvideDropbox)

	// Server
	do.Provide(injector, providers.ProvideIngestLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)
}

// BootstrapIngest initializes everything needed to build and index documents.
func BootstrapIngest(injector do.Injector) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SidecarStoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.FieldRegistryHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[facet.Strategy](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*ingest.Builder](injector)
	_ = do.MustInvoke[*service.IngestService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	return nil
}

// Bootstrap initializes all services, starting the HTTP server and the dropbox.
func Bootstrap(injector do.Injector) error {
	if err := BootstrapIngest(injector); err != nil {
		return err
	}

	// Workers
	if _, err := do.Invoke[*providers.DropboxHandle](injector); err != nil {
		return err
	}

	// Server
	_ = do.MustInvoke[*providers.IngestLimiterHandle](injector)
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
