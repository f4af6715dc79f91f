package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/listenupapp/exhibit-server/internal/citation"
	"github.com/listenupapp/exhibit-server/internal/domain"
	domainerrors "github.com/listenupapp/exhibit-server/internal/errors"
	"github.com/listenupapp/exhibit-server/internal/search"
	"github.com/listenupapp/exhibit-server/internal/store"
	"github.com/listenupapp/exhibit-server/internal/tooltip"
)

// DefaultFacets are requested when a search names none.
var DefaultFacets = []string{
	domain.FieldTheme,
	domain.FieldSubtheme,
	domain.FieldCollection,
	domain.FieldGrantee,
	domain.FieldGrant,
	domain.FieldOralHistory,
	domain.FieldType,
	domain.FieldCreator,
	domain.FieldTemporalCoverage,
	domain.FieldGeographicalCoverage,
}

// Index is the read side of the search index.
type Index interface {
	tooltip.Searcher
	Get(ctx context.Context, id string) (*domain.IndexDocument, error)
}

// SidecarReader reads sidecars.
type SidecarReader interface {
	GetSidecar(ctx context.Context, documentID string) (*domain.Sidecar, error)
}

// FieldLister lists registry descriptors.
type FieldLister interface {
	ListFields(ctx context.Context, exhibitID string) ([]*domain.FieldDescriptor, error)
}

// CatalogService answers search and document requests.
type CatalogService struct {
	index       Index
	sidecars    SidecarReader
	fields      FieldLister
	collections map[string]string
	logger      *slog.Logger
}

// NewCatalogService creates a catalog service. collections holds the fixed
// per-collection tooltip descriptions.
func NewCatalogService(index Index, sidecars SidecarReader, fields FieldLister, collections map[string]string, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		index:       index,
		sidecars:    sidecars,
		fields:      fields,
		collections: collections,
		logger:      logger,
	}
}

// SearchResult is a search result with tooltips for its facet values.
type SearchResult struct {
	*search.Result
	// Tooltips maps facet field → value → description.
	Tooltips map[string]map[string]string `json:"tooltips,omitempty"`
}

// Search runs q and resolves tooltips for the returned facets.
// A tooltip failure is logged and the result returned without tooltips.
func (s *CatalogService) Search(ctx context.Context, q search.Query) (*SearchResult, error) {
	if len(q.FacetFields) == 0 {
		q.FacetFields = DefaultFacets
	}

	res, err := s.index.Search(ctx, q)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}

	out := &SearchResult{Result: res}
	if len(res.Facets) == 0 {
		return out, nil
	}

	tables, err := tooltip.Load(ctx, s.index, res.Facets, s.collections)
	if err != nil {
		s.logger.Warn("failed to load facet tooltips", "error", err)
		tables = tooltip.Static(s.collections)
	}
	out.Tooltips = tables.Annotate(res.Facets)

	return out, nil
}

// DocumentView is a single document with everything shown alongside it.
type DocumentView struct {
	Document *domain.IndexDocument `json:"document"`
	Sidecar  *domain.Sidecar       `json:"sidecar,omitempty"`
	Details  *tooltip.Details      `json:"details,omitempty"`
	Citation string                `json:"citation"`
}

// Document returns the document stored under id.
func (s *CatalogService) Document(ctx context.Context, id string) (*DocumentView, error) {
	doc, err := s.index.Get(ctx, id)
	if errors.Is(err, search.ErrNotFound) {
		return nil, domainerrors.NotFoundf("document %s not found", id)
	}
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeInternal, "get document %s failed", id)
	}

	view := &DocumentView{
		Document: doc,
		Citation: citation.Format(doc),
	}

	sidecar, err := s.sidecars.GetSidecar(ctx, id)
	switch {
	case err == nil:
		view.Sidecar = sidecar
	case !errors.Is(err, store.ErrNotFound):
		return nil, domainerrors.Wrapf(err, domainerrors.CodeInternal, "get sidecar %s failed", id)
	}

	details, err := tooltip.LoadDetails(ctx, s.index, doc)
	if err != nil {
		s.logger.Warn("failed to load document details", "document_id", id, "error", err)
	}
	view.Details = details

	return view, nil
}

// Fields lists the custom fields registered for an exhibit.
func (s *CatalogService) Fields(ctx context.Context, exhibitID string) ([]*domain.FieldDescriptor, error) {
	fields, err := s.fields.ListFields(ctx, exhibitID)
	if err != nil {
		return nil, fmt.Errorf("list fields for %s: %w", exhibitID, err)
	}
	return fields, nil
}
