package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/exhibit-server/internal/domain"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	index, err := Open(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func newDoc(id string, fields map[string][]string) *domain.IndexDocument {
	doc := domain.NewIndexDocument(id)
	for k, v := range fields {
		doc.Set(k, v...)
	}
	return doc
}

func seed(t *testing.T, index *Index) {
	t.Helper()
	docs := []*domain.IndexDocument{
		newDoc("d1", map[string][]string{
			domain.FieldTitle:       {"Annual report on disability law"},
			domain.FieldTheme:       {"education"},
			domain.FieldSubtheme:    {"disability"},
			domain.FieldGrant:       {"Grant 123"},
			domain.FieldCollection:  {"Grant documentation"},
			domain.FieldTileSource:  {"https://iiif.example/d1/info.json"},
			"readonly_creator_ssim": {"Smith, Jane", "Doe, John"},
		}),
		newDoc("d2", map[string][]string{
			domain.FieldTitle:      {"Interview with Mary Smith"},
			domain.FieldTheme:      {"human rights"},
			domain.FieldCollection: {"Oral histories"},
		}),
		newDoc("d3", map[string][]string{
			domain.FieldTitle:    {"Reconciliation in practice"},
			domain.FieldTheme:    {"communities"},
			domain.FieldSubtheme: {"reconciliation"},
		}),
	}
	upsertAll(t, index, docs...)
}

func upsertAll(t *testing.T, index *Index, docs ...*domain.IndexDocument) {
	t.Helper()
	for _, doc := range docs {
		require.NoError(t, index.Upsert(context.Background(), doc))
	}
}

func TestOpen(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestOpen_ReopensExisting(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	index, err := Open(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.Upsert(ctx, newDoc("d1", nil)))
	require.NoError(t, index.Close())

	index, err = Open(Options{DataPath: dir})
	require.NoError(t, err)
	defer index.Close()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestUpsert_ReplacesByID(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, newDoc("d1", map[string][]string{domain.FieldTheme: {"education"}})))
	require.NoError(t, index.Upsert(ctx, newDoc("d1", map[string][]string{domain.FieldTheme: {"communities"}})))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	doc, err := index.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"communities"}, doc.Get(domain.FieldTheme))
}

func TestGet_RoundTrip(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	seed(t, index)

	doc, err := index.Get(ctx, "d1")
	require.NoError(t, err)

	assert.Equal(t, "d1", doc.ID)
	assert.Equal(t, []string{"Smith, Jane", "Doe, John"}, doc.Get("readonly_creator_ssim"))
	assert.Equal(t, []string{"https://iiif.example/d1/info.json"}, doc.Get(domain.FieldTileSource))
	assert.NotContains(t, doc.Fields, fieldAllText)
	assert.False(t, doc.SubcollectionType.IsPresent())

	_, err = index.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_SubcollectionType(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	withValue := newDoc("c1", nil)
	withValue.SubcollectionType = domain.Some(domain.SubcollectionGrantee)
	withNull := newDoc("c2", nil)
	withNull.SubcollectionType = domain.Null()
	upsertAll(t, index, withValue, withNull)

	doc, err := index.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.Some(domain.SubcollectionGrantee), doc.SubcollectionType)

	doc, err = index.Get(ctx, "c2")
	require.NoError(t, err)
	assert.True(t, doc.SubcollectionType.IsNull())

	res, err := index.Search(ctx, Query{
		Filters: []Filter{{Field: domain.FieldSubcollectionType, Values: []string{domain.SubcollectionGrantee}}},
		Rows:    10,
	})
	require.NoError(t, err)
	require.Len(t, res.Docs, 1)
	assert.Equal(t, "c1", res.Docs[0].ID)
}

func TestSearch_FreeText(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res, err := index.Search(context.Background(), Query{Q: "interview", Rows: 10})
	require.NoError(t, err)

	require.Equal(t, uint64(1), res.Total)
	assert.Equal(t, "d2", res.Docs[0].ID)
}

func TestSearch_Filters(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	t.Run("exact value", func(t *testing.T) {
		res, err := index.Search(ctx, Query{
			Filters: []Filter{{Field: domain.FieldCollection, Values: []string{"Grant documentation"}}},
			Rows:    10,
		})
		require.NoError(t, err)
		require.Len(t, res.Docs, 1)
		assert.Equal(t, "d1", res.Docs[0].ID)
	})

	t.Run("or within field", func(t *testing.T) {
		res, err := index.Search(ctx, Query{
			Filters: []Filter{{Field: domain.FieldTheme, Values: []string{"education", "communities"}}},
			Rows:    10,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), res.Total)
	})

	t.Run("and across fields", func(t *testing.T) {
		res, err := index.Search(ctx, Query{
			Filters: []Filter{
				{Field: domain.FieldTheme, Values: []string{"education", "communities"}},
				{Field: domain.FieldSubtheme, Values: []string{"reconciliation"}},
			},
			Rows: 10,
		})
		require.NoError(t, err)
		require.Len(t, res.Docs, 1)
		assert.Equal(t, "d3", res.Docs[0].ID)
	})

	t.Run("case sensitive", func(t *testing.T) {
		res, err := index.Search(ctx, Query{
			Filters: []Filter{{Field: domain.FieldCollection, Values: []string{"grant documentation"}}},
			Rows:    10,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(0), res.Total)
	})
}

func TestSearch_Facets(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res, err := index.Search(context.Background(), Query{
		Rows:        0,
		FacetFields: []string{domain.FieldTheme, domain.FieldCollection},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(3), res.Total)
	assert.Empty(t, res.Docs)
	assert.ElementsMatch(t, []FacetCount{
		{Value: "education", Count: 1},
		{Value: "human rights", Count: 1},
		{Value: "communities", Count: 1},
	}, res.Facets[domain.FieldTheme])
	assert.ElementsMatch(t, []FacetCount{
		{Value: "Grant documentation", Count: 1},
		{Value: "Oral histories", Count: 1},
	}, res.Facets[domain.FieldCollection])
}

func TestSearch_Pagination(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	first, err := index.Search(ctx, Query{Rows: 2})
	require.NoError(t, err)
	second, err := index.Search(ctx, Query{Rows: 2, Offset: 2})
	require.NoError(t, err)

	assert.Len(t, first.Docs, 2)
	assert.Len(t, second.Docs, 1)
	assert.Equal(t, uint64(3), second.Total)
}

func TestCount(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	n, err := index.Count(context.Background(), Query{
		Filters: []Filter{{Field: domain.FieldTheme, Values: []string{"education"}}},
		Rows:    50,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestDelete(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	require.NoError(t, index.Delete(ctx, "d2"))
	require.NoError(t, index.Delete(ctx, "never-existed"))

	_, err := index.Get(ctx, "d2")
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestParseFilters(t *testing.T) {
	filters, err := ParseFilters([]string{
		"readonly_theme_ssim:education",
		`readonly_collection_ssim:"Grant documentation"`,
		"readonly_theme_ssim:communities",
		"readonly_grant_ssim:Grant 123: phase two",
	})
	require.NoError(t, err)

	assert.Equal(t, []Filter{
		{Field: domain.FieldTheme, Values: []string{"education", "communities"}},
		{Field: domain.FieldCollection, Values: []string{"Grant documentation"}},
		{Field: domain.FieldGrant, Values: []string{"Grant 123: phase two"}},
	}, filters)

	_, err = ParseFilters([]string{"no-colon"})
	assert.Error(t, err)
	_, err = ParseFilter(":value")
	assert.Error(t, err)
}
