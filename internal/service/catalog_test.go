package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/exhibit-server/internal/domain"
	domainerrors "github.com/listenupapp/exhibit-server/internal/errors"
	"github.com/listenupapp/exhibit-server/internal/facet"
	"github.com/listenupapp/exhibit-server/internal/id"
	"github.com/listenupapp/exhibit-server/internal/search"
	"github.com/listenupapp/exhibit-server/internal/tooltip"
)

func TestCatalogService_SearchTooltips(t *testing.T) {
	env := setupTestEnv(t)
	env.seed(t)

	res, err := env.catalog.Search(context.Background(), search.Query{Rows: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.Total)

	vocab, err := facet.DefaultVocabulary()
	require.NoError(t, err)
	grantDocs, _ := vocab.CollectionDescription("Grant documentation")

	assert.Equal(t, map[string]map[string]string{
		domain.FieldGrantee:    {"Genio (Organization)": "Funds social innovation."},
		domain.FieldGrant:      {"Grant 456": "Capital **funding**."},
		domain.FieldCollection: {"Grant documentation": grantDocs},
	}, res.Tooltips)
}

func TestCatalogService_SearchFilters(t *testing.T) {
	env := setupTestEnv(t)
	env.seed(t)

	res, err := env.catalog.Search(context.Background(), search.Query{
		Filters: []search.Filter{{Field: domain.FieldTheme, Values: []string{"education"}}},
		Rows:    10,
	})
	require.NoError(t, err)
	require.Len(t, res.Docs, 1)
	assert.Equal(t, id.Compound(testExhibit, "report"), res.Docs[0].ID)
}

func TestCatalogService_SearchWithoutDescribedDocuments(t *testing.T) {
	env := setupTestEnv(t)
	report, err := env.ingest.IngestBatch(context.Background(), testExhibit, exhibitItems()[2:])
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded)

	res, err := env.catalog.Search(context.Background(), search.Query{Rows: 10})
	require.NoError(t, err)

	assert.NotContains(t, res.Tooltips, domain.FieldGrantee)
	assert.NotContains(t, res.Tooltips, domain.FieldGrant)
	assert.Contains(t, res.Tooltips[domain.FieldCollection], "Grant documentation")
}

func TestCatalogService_Document(t *testing.T) {
	env := setupTestEnv(t)
	env.seed(t)

	view, err := env.catalog.Document(context.Background(), id.Compound(testExhibit, "report"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Grant 456: Final report"}, view.Document.Get(domain.FieldTitle))
	assert.Equal(t, []string{id.Compound(testExhibit, "g456")}, view.Document.Get(domain.FieldCollectionID))
	assert.True(t, view.Document.SubcollectionType.IsNull())

	require.NotNil(t, view.Sidecar)
	assert.False(t, view.Sidecar.Private)

	require.NotNil(t, view.Details)
	assert.Equal(t, &tooltip.GrantDetails{
		GranteeName:        "Genio (Organization)",
		GranteeDescription: "Funds social innovation.",
		GrantNumber:        "Grant 456",
		GrantDescription:   "Capital **funding**.",
	}, view.Details.Grant)

	assert.Equal(t,
		"The Atlantic Philanthropies. Grant 456: Final report, "+
			"Digital Repository of Ireland [Distributor], "+
			"Cornell University Library [Depositing Institution]",
		view.Citation)
}

func TestCatalogService_DocumentContainerIsPrivate(t *testing.T) {
	env := setupTestEnv(t)
	env.seed(t)

	view, err := env.catalog.Document(context.Background(), id.Compound(testExhibit, "g456"))
	require.NoError(t, err)

	v, ok := view.Document.SubcollectionType.Get()
	require.True(t, ok)
	assert.Equal(t, domain.SubcollectionGrant, v)
	require.NotNil(t, view.Sidecar)
	assert.True(t, view.Sidecar.Private)
}

func TestCatalogService_DocumentNotFound(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.catalog.Document(context.Background(), "missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCatalogService_Fields(t *testing.T) {
	env := setupTestEnv(t)
	report := env.seed(t)

	var created []string
	for _, item := range report.Items {
		created = append(created, item.CreatedFields...)
	}

	fields, err := env.catalog.Fields(context.Background(), testExhibit)
	require.NoError(t, err)
	assert.Len(t, fields, len(created))

	other, err := env.catalog.Fields(context.Background(), "another_exhibit")
	require.NoError(t, err)
	assert.Empty(t, other)
}
