// Package providers contains dependency injection providers for the exhibit server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/exhibit-server/internal/config"
	"github.com/listenupapp/exhibit-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(_ do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting exhibit server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.Path,
		"exhibit", cfg.Exhibit.ID,
		"facet_strategy", cfg.Exhibit.FacetStrategy,
	)

	return log, nil
}
