package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/exhibit-server/internal/domain"
	domainerrors "github.com/listenupapp/exhibit-server/internal/errors"
	"github.com/listenupapp/exhibit-server/internal/search"
	"github.com/listenupapp/exhibit-server/internal/tooltip"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search documents",
		Description: "Free-text search with field filters and facet counts. Facet values carry tooltips where a description is known.",
		Tags:        []string{"Search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "getDocument",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents/{id}",
		Summary:     "Get document",
		Description: "Returns an indexed document with its sidecar, citation and collection details",
		Tags:        []string{"Search"},
	}, s.handleGetDocument)
}

// === DTOs ===

// SearchInput contains parameters for searching documents.
type SearchInput struct {
	Query   string   `query:"q" maxLength:"500" doc:"Free-text query"`
	Filters []string `query:"fq,explode" doc:"Filters as field:value. Repeated fields are ORed, different fields ANDed."`
	Facets  []string `query:"facet,explode" doc:"Facet fields to count. Omit for the default facets."`
	Rows    int      `query:"rows" default:"10" minimum:"0" maximum:"10000" doc:"Documents per page"`
	Offset  int      `query:"offset" minimum:"0" doc:"Pagination offset"`
}

// FacetValue is one facet value with its count and optional tooltip.
type FacetValue struct {
	Value   string `json:"value" doc:"Facet value"`
	Count   int    `json:"count" doc:"Number of matches"`
	Tooltip string `json:"tooltip,omitempty" doc:"Description of the value"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Total  uint64                  `json:"total" doc:"Total matches"`
	TookMs int64                   `json:"took_ms" doc:"Search duration in milliseconds"`
	Docs   []map[string]any        `json:"docs" doc:"Matching documents"`
	Facets map[string][]FacetValue `json:"facets,omitempty" doc:"Facet counts by field"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// GetDocumentInput identifies a document.
type GetDocumentInput struct {
	ID string `path:"id" minLength:"1" maxLength:"64" doc:"Document ID"`
}

// DocumentResponse is a document with everything shown alongside it.
type DocumentResponse struct {
	Document map[string]any   `json:"document" doc:"Indexed fields"`
	Sidecar  *domain.Sidecar  `json:"sidecar,omitempty" doc:"Custom field values"`
	Details  *tooltip.Details `json:"details,omitempty" doc:"Grant, grantee and oral history descriptions"`
	Citation string           `json:"citation" doc:"HTML citation"`
}

// DocumentOutput wraps the document response for Huma.
type DocumentOutput struct {
	Body DocumentResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	filters, err := search.ParseFilters(input.Filters)
	if err != nil {
		return nil, serviceError(domainerrors.ValidationWithDetails(err.Error(), map[string]string{"fq": err.Error()}))
	}

	res, err := s.services.Catalog.Search(ctx, search.Query{
		Q:           input.Query,
		Filters:     filters,
		Rows:        input.Rows,
		Offset:      input.Offset,
		FacetFields: input.Facets,
	})
	if err != nil {
		return nil, serviceError(err)
	}

	body := SearchResponse{
		Total:  res.Total,
		TookMs: res.TookMs,
		Docs:   make([]map[string]any, 0, len(res.Docs)),
	}
	for _, doc := range res.Docs {
		body.Docs = append(body.Docs, doc.Flat())
	}

	if len(res.Facets) > 0 {
		body.Facets = make(map[string][]FacetValue, len(res.Facets))
		for field, counts := range res.Facets {
			values := make([]FacetValue, 0, len(counts))
			for _, c := range counts {
				values = append(values, FacetValue{
					Value:   c.Value,
					Count:   c.Count,
					Tooltip: res.Tooltips[field][c.Value],
				})
			}
			body.Facets[field] = values
		}
	}

	return &SearchOutput{Body: body}, nil
}

func (s *Server) handleGetDocument(ctx context.Context, input *GetDocumentInput) (*DocumentOutput, error) {
	view, err := s.services.Catalog.Document(ctx, input.ID)
	if err != nil {
		return nil, serviceError(err)
	}

	return &DocumentOutput{Body: DocumentResponse{
		Document: view.Document.Flat(),
		Sidecar:  view.Sidecar,
		Details:  view.Details,
		Citation: view.Citation,
	}}, nil
}
