package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/exhibit-server/internal/config"
	"github.com/listenupapp/exhibit-server/internal/facet"
	"github.com/listenupapp/exhibit-server/internal/ingest"
	"github.com/listenupapp/exhibit-server/internal/logger"
	"github.com/listenupapp/exhibit-server/internal/service"
	"github.com/listenupapp/exhibit-server/internal/validation"
)

// ProvideVocabulary provides the controlled vocabularies, from the configured
// file or the embedded default.
func ProvideVocabulary(i do.Injector) (*facet.Vocabulary, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Exhibit.VocabularyPath == "" {
		return facet.DefaultVocabulary()
	}

	vocab, err := facet.LoadVocabulary(cfg.Exhibit.VocabularyPath)
	if err != nil {
		return nil, err
	}
	log.Info("Vocabulary loaded", "path", cfg.Exhibit.VocabularyPath)
	return vocab, nil
}

// ProvideFacetStrategy provides the configured facet derivation strategy.
func ProvideFacetStrategy(i do.Injector) (facet.Strategy, error) {
	cfg := do.MustInvoke[*config.Config](i)
	vocab := do.MustInvoke[*facet.Vocabulary](i)
	return facet.New(cfg.Exhibit.FacetStrategy, vocab)
}

// ProvideValidator provides the request validator.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideBuilder provides the document builder.
func ProvideBuilder(i do.Injector) (*ingest.Builder, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	strategy := do.MustInvoke[facet.Strategy](i)
	registry := do.MustInvoke[*FieldRegistryHandle](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	sidecars := do.MustInvoke[*SidecarStoreHandle](i)

	return ingest.NewBuilder(strategy, registry.Store, index.Index, sidecars.Store, ingest.Options{
		IIIFBase:         cfg.Exhibit.IIIFBase,
		SurrogatePostfix: cfg.Exhibit.SurrogatePostfix,
	}, log.Component("builder")), nil
}

// ProvideIngestService provides the batch ingest service.
func ProvideIngestService(i do.Injector) (*service.IngestService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	builder := do.MustInvoke[*ingest.Builder](i)
	validator := do.MustInvoke[*validation.Validator](i)

	return service.NewIngestService(builder, validator, service.IngestOptions{
		Workers:     cfg.Ingest.Workers,
		ItemTimeout: cfg.Ingest.ItemTimeout,
	}, log.Component("ingest")), nil
}

// ProvideCatalogService provides the search and document service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	vocab := do.MustInvoke[*facet.Vocabulary](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	sidecars := do.MustInvoke[*SidecarStoreHandle](i)
	registry := do.MustInvoke[*FieldRegistryHandle](i)

	return service.NewCatalogService(index.Index, sidecars.Store, registry.Store, vocab.CollectionDescriptions, log.Component("catalog")), nil
}
