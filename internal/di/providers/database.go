package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/exhibit-server/internal/config"
	"github.com/listenupapp/exhibit-server/internal/logger"
	"github.com/listenupapp/exhibit-server/internal/store"
	"github.com/listenupapp/exhibit-server/internal/store/sqlite"
)

// SidecarStoreHandle wraps the sidecar store with shutdown capability.
type SidecarStoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *SidecarStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideSidecarStore provides the Badger-backed sidecar store.
func ProvideSidecarStore(i do.Injector) (*SidecarStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := store.New(cfg.SidecarPath(), log.Component("sidecars"))
	if err != nil {
		return nil, err
	}

	log.Info("Sidecar store initialized", "path", cfg.SidecarPath())
	return &SidecarStoreHandle{Store: db}, nil
}

// FieldRegistryHandle wraps the SQLite field registry with shutdown capability.
type FieldRegistryHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *FieldRegistryHandle) Shutdown() error {
	return h.Close()
}

// ProvideFieldRegistry provides the custom field registry.
func ProvideFieldRegistry(i do.Injector) (*FieldRegistryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	registry, err := sqlite.Open(cfg.SQLitePath(), log.Component("registry"))
	if err != nil {
		return nil, err
	}

	log.Info("Field registry initialized", "path", cfg.SQLitePath())
	return &FieldRegistryHandle{Store: registry}, nil
}
