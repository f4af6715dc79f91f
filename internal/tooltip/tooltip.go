// Package tooltip resolves the hover descriptions shown next to facet values.
//
// Descriptions live on the container documents of the grant documentation and
// oral histories collections. They are joined against the current result's facet
// values on every request rather than stored, so they follow re-ingestion
// without any extra bookkeeping.
package tooltip

import (
	"context"
	"fmt"
	"strings"

	"github.com/listenupapp/exhibit-server/internal/domain"
	"github.com/listenupapp/exhibit-server/internal/normalize"
	"github.com/listenupapp/exhibit-server/internal/search"
)

// Searcher is the read side of the index.
type Searcher interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
	Count(ctx context.Context, q search.Query) (uint64, error)
}

// Fields are the facets that carry tooltips.
var Fields = []string{
	domain.FieldGrantee,
	domain.FieldGrant,
	domain.FieldOralHistory,
	domain.FieldCollection,
}

// describedTypes are the subcollection types whose documents hold descriptions.
var describedTypes = search.Filter{
	Field: domain.FieldSubcollectionType,
	Values: []string{
		domain.SubcollectionGrantee,
		domain.SubcollectionGrant,
		domain.SubcollectionOral,
	},
}

// Tables holds the descriptions resolved for one request.
type Tables struct {
	Grantees    map[string]string `json:"grantees"`
	Grants      map[string]string `json:"grants"`
	Oral        map[string]string `json:"oral"`
	Collections map[string]string `json:"collections"`
}

// Static returns tables holding only the fixed collection descriptions.
func Static(collections map[string]string) *Tables {
	return &Tables{
		Grantees:    map[string]string{},
		Grants:      map[string]string{},
		Oral:        map[string]string{},
		Collections: collections,
	}
}

// Load fetches every described container document and matches it against the
// facet values of the current result.
//
// Grantee documents match a grantee value when any of their subjects equals it
// ignoring case. Grant and oral history documents match when one of their titles
// equals the value exactly.
func Load(ctx context.Context, s Searcher, facets map[string][]search.FacetCount, collections map[string]string) (*Tables, error) {
	t := Static(collections)

	filters := []search.Filter{describedTypes}
	total, err := s.Count(ctx, search.Query{Filters: filters})
	if err != nil {
		return nil, fmt.Errorf("count described documents: %w", err)
	}
	if total == 0 {
		return t, nil
	}

	res, err := s.Search(ctx, search.Query{Filters: filters, Rows: int(min(total, search.MaxRows))})
	if err != nil {
		return nil, fmt.Errorf("fetch described documents: %w", err)
	}

	grantees := facetValues(facets[domain.FieldGrantee])
	grants := facetValues(facets[domain.FieldGrant])
	oral := facetValues(facets[domain.FieldOralHistory])

	for _, doc := range res.Docs {
		kind, ok := doc.SubcollectionType.Get()
		if !ok {
			continue
		}
		desc := Description(doc)

		switch kind {
		case domain.SubcollectionGrantee:
			subjects := doc.Get(domain.FieldSubjectText)
			for _, g := range grantees {
				if containsFold(subjects, g) {
					t.Grantees[g] = desc
				}
			}
		case domain.SubcollectionGrant:
			titles := doc.Get(domain.FieldTitle)
			for _, g := range grants {
				if contains(titles, g) {
					t.Grants[g] = desc
				}
			}
		case domain.SubcollectionOral:
			titles := doc.Get(domain.FieldTitle)
			for _, o := range oral {
				if contains(titles, o) {
					t.Oral[o] = desc
				}
			}
		}
	}

	return t, nil
}

// Describe returns the description for a facet value, looking in grantees,
// grants, oral histories and then the fixed collection descriptions.
func (t *Tables) Describe(value string) (string, bool) {
	if t == nil {
		return "", false
	}
	for _, table := range []map[string]string{t.Grantees, t.Grants, t.Oral, t.Collections} {
		if d, ok := table[value]; ok {
			return d, true
		}
	}
	return "", false
}

// Annotate returns the description of every tooltip facet value that has one,
// keyed by facet field then value.
func (t *Tables) Annotate(facets map[string][]search.FacetCount) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, field := range Fields {
		for _, fc := range facets[field] {
			d, ok := t.Describe(fc.Value)
			if !ok {
				continue
			}
			if out[field] == nil {
				out[field] = make(map[string]string)
			}
			out[field][fc.Value] = d
		}
	}
	return out
}

// Description returns a container document's description as Markdown.
func Description(doc *domain.IndexDocument) string {
	return normalize.Description(doc.First(domain.FieldDescriptionText))
}

func facetValues(counts []search.FacetCount) []string {
	out := make([]string, 0, len(counts))
	for _, c := range counts {
		out = append(out, c.Value)
	}
	return out
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
