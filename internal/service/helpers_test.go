package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/exhibit-server/internal/domain"
	"github.com/listenupapp/exhibit-server/internal/facet"
	"github.com/listenupapp/exhibit-server/internal/ingest"
	"github.com/listenupapp/exhibit-server/internal/search"
	"github.com/listenupapp/exhibit-server/internal/store"
	"github.com/listenupapp/exhibit-server/internal/store/sqlite"
	"github.com/listenupapp/exhibit-server/internal/validation"
)

const testExhibit = "ap_ireland"

type testEnv struct {
	index    *search.Index
	sidecars *store.Store
	registry *sqlite.Store
	ingest   *IngestService
	catalog  *CatalogService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	index, err := search.Open(search.Options{DataPath: dir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	sidecars, err := store.New(filepath.Join(dir, "sidecars"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sidecars.Close() })

	registry, err := sqlite.Open(filepath.Join(dir, "exhibit.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	vocab, err := facet.DefaultVocabulary()
	require.NoError(t, err)

	builder := ingest.NewBuilder(&facet.Structured{Vocab: vocab}, registry, index, sidecars, ingest.Options{
		IIIFBase: "https://repository.dri.ie/iiif/2",
	}, logger)

	return &testEnv{
		index:    index,
		sidecars: sidecars,
		registry: registry,
		ingest:   NewIngestService(builder, validation.New(), IngestOptions{Workers: 2}, logger),
		catalog:  NewCatalogService(index, sidecars, registry, vocab.CollectionDescriptions, logger),
	}
}

// exhibitItems is a grantee container, a grant container and one grant document.
func exhibitItems() []*domain.RawItem {
	return []*domain.RawItem{
		{
			ID: "genio",
			Metadata: []domain.MetadataEntry{
				{Label: "Title", Value: domain.Values{"Grantee: Genio"}},
			},
			Fields: map[string]domain.Values{
				"title":          {"Grantee: Genio"},
				"type":           {"Collection"},
				"description":    {"Funds social innovation."},
				"subject":        {"Genio (Organization)", "Curated collection--Grant documentation"},
				"ancestor_title": {"The Atlantic Philanthropies", "Grant documentation"},
			},
		},
		{
			ID: "g456",
			Metadata: []domain.MetadataEntry{
				{Label: "Title", Value: domain.Values{"Grant 456"}},
			},
			Fields: map[string]domain.Values{
				"title":          {"Grant 456"},
				"type":           {"Collection"},
				"description":    {"<p>Capital <strong>funding</strong>.</p>"},
				"subject":        {"Curated collection--Grant documentation"},
				"ancestor_title": {"Grantee: Genio", "Grant documentation"},
			},
		},
		{
			ID: "report",
			Metadata: []domain.MetadataEntry{
				{Label: "Title", Value: domain.Values{"Grant 456: Final report"}},
			},
			Fields: map[string]domain.Values{
				"title":          {"Grant 456: Final report"},
				"creator":        {"The Atlantic Philanthropies"},
				"type":           {"Text"},
				"subject":        {"Curated collection--education--children and youth--Grant documentation", "Grant 456", "Genio (Organization)"},
				"ancestor_title": {"Grant 456", "Grantee: Genio", "Grant documentation"},
			},
			Institutes:   []domain.Institute{{Name: "Cornell University Library", Depositing: true}},
			IsGovernedBy: "g456",
		},
	}
}

func (e *testEnv) seed(t *testing.T) *BatchReport {
	t.Helper()
	report, err := e.ingest.IngestBatch(context.Background(), testExhibit, exhibitItems())
	require.NoError(t, err)
	require.Equal(t, 3, report.Succeeded, "ingest failures: %+v", report.Items)
	return report
}
