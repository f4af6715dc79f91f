package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/listenupapp/exhibit-server/internal/domain"
)

// Query limits.
const (
	DefaultRows     = 10
	MaxRows         = 10000
	DefaultFacetMax = 50
)

// Filter restricts results to documents whose Field holds any of Values.
type Filter struct {
	Field  string
	Values []string
}

// Query configures a search.
// Filters on different fields are ANDed; values within one filter are ORed.
type Query struct {
	Q           string
	Filters     []Filter
	Rows        int
	Offset      int
	FacetFields []string
	FacetLimit  int
}

// Result holds matching documents and facet counts.
type Result struct {
	Total  uint64                  `json:"total"`
	TookMs int64                   `json:"took_ms"`
	Docs   []*domain.IndexDocument `json:"docs"`
	Facets map[string][]FacetCount `json:"facets,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ParseFilter parses a "field:value" filter expression.
// Only the first colon separates field from value.
func ParseFilter(expr string) (Filter, error) {
	field, value, ok := strings.Cut(expr, ":")
	field = strings.TrimSpace(field)
	if !ok || field == "" || value == "" {
		return Filter{}, fmt.Errorf("invalid filter %q: expected field:value", expr)
	}
	return Filter{Field: field, Values: []string{strings.Trim(value, `"`)}}, nil
}

// ParseFilters parses filter expressions, merging repeated fields into one OR filter.
func ParseFilters(exprs []string) ([]Filter, error) {
	var filters []Filter
	index := make(map[string]int)
	for _, expr := range exprs {
		f, err := ParseFilter(expr)
		if err != nil {
			return nil, err
		}
		if i, ok := index[f.Field]; ok {
			filters[i].Values = append(filters[i].Values, f.Values...)
			continue
		}
		index[f.Field] = len(filters)
		filters = append(filters, f)
	}
	return filters, nil
}

// Search executes q.
func (s *Index) Search(ctx context.Context, q Query) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := q.Rows
	switch {
	case rows < 0:
		rows = DefaultRows
	case rows > MaxRows:
		rows = MaxRows
	}
	offset := max(q.Offset, 0)

	req := bleve.NewSearchRequestOptions(buildQuery(q), rows, offset, false)
	req.Fields = []string{"*"}
	req.SortBy([]string{"-_score", "_id"})

	facetLimit := q.FacetLimit
	if facetLimit <= 0 {
		facetLimit = DefaultFacetMax
	}
	for _, field := range q.FacetFields {
		req.AddFacet(field, bleve.NewFacetRequest(field, facetLimit))
	}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Docs:   make([]*domain.IndexDocument, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		result.Docs = append(result.Docs, fromStored(hit.ID, hit.Fields))
	}

	if len(q.FacetFields) > 0 {
		result.Facets = make(map[string][]FacetCount, len(q.FacetFields))
		for _, field := range q.FacetFields {
			fr, ok := res.Facets[field]
			if !ok || fr.Terms == nil {
				continue
			}
			for _, term := range fr.Terms.Terms() {
				result.Facets[field] = append(result.Facets[field], FacetCount{
					Value: term.Term,
					Count: term.Count,
				})
			}
		}
	}

	return result, nil
}

// Count returns how many documents match q, without fetching them.
func (s *Index) Count(ctx context.Context, q Query) (uint64, error) {
	q.Rows = 0
	q.FacetFields = nil
	res, err := s.Search(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

// buildQuery constructs the Bleve query: free text ANDed with every filter.
func buildQuery(q Query) query.Query {
	var queries []query.Query

	if text := strings.TrimSpace(q.Q); text != "" {
		match := bleve.NewMatchQuery(text)
		match.SetField(fieldAllText)
		match.SetOperator(query.MatchQueryOperatorAnd)
		queries = append(queries, match)
	}

	for _, f := range q.Filters {
		if len(f.Values) == 0 {
			continue
		}
		terms := make([]query.Query, len(f.Values))
		for i, v := range f.Values {
			tq := bleve.NewTermQuery(v)
			tq.SetField(f.Field)
			terms[i] = tq
		}
		if len(terms) == 1 {
			queries = append(queries, terms[0])
		} else {
			queries = append(queries, bleve.NewDisjunctionQuery(terms...))
		}
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
