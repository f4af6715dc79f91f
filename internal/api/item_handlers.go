package api

import (
	"bytes"
	"context"
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/exhibit-server/internal/domain"
	domainerrors "github.com/listenupapp/exhibit-server/internal/errors"
	"github.com/listenupapp/exhibit-server/internal/ingest"
	"github.com/listenupapp/exhibit-server/internal/service"
)

func (s *Server) registerItemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "ingestItems",
		Method:        http.MethodPost,
		Path:          "/api/v1/exhibits/{exhibit}/items",
		Summary:       "Ingest items",
		Description:   "Builds and indexes documents for a batch of repository items. The body is a {items: [...]} object, a bare array, or a single item.",
		Tags:          []string{"Items"},
		MaxBodyBytes:  32 << 20,
		DefaultStatus: http.StatusOK,
		// The payload accepts several shapes and is decoded by the handler.
		SkipValidateBody: true,
		Middlewares:      huma.Middlewares{s.rateLimitIngest},
	}, s.handleIngestItems)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteItem",
		Method:      http.MethodDelete,
		Path:        "/api/v1/exhibits/{exhibit}/items/{item}",
		Summary:     "Delete item",
		Description: "Removes an item's document and sidecar from the exhibit",
		Tags:        []string{"Items"},
	}, s.handleDeleteItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteExhibitItems",
		Method:      http.MethodDelete,
		Path:        "/api/v1/exhibits/{exhibit}/items",
		Summary:     "Delete all items",
		Description: "Removes every document and sidecar of the exhibit. Custom fields are kept unless fields=true.",
		Tags:        []string{"Items"},
		Middlewares: huma.Middlewares{s.rateLimitIngest},
	}, s.handleDeleteExhibitItems)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFields",
		Method:      http.MethodGet,
		Path:        "/api/v1/exhibits/{exhibit}/fields",
		Summary:     "List custom fields",
		Description: "Lists the custom fields registered for the exhibit",
		Tags:        []string{"Items"},
	}, s.handleListFields)
}

// === DTOs ===

// IngestItemsInput carries a raw JSON payload so every accepted shape can be decoded.
type IngestItemsInput struct {
	Exhibit string `path:"exhibit" minLength:"1" maxLength:"100" doc:"Exhibit ID"`
	RawBody []byte
}

// IngestItemsOutput wraps the batch report.
type IngestItemsOutput struct {
	Body *service.BatchReport
}

// DeleteItemInput identifies an item.
type DeleteItemInput struct {
	Exhibit string `path:"exhibit" minLength:"1" maxLength:"100" doc:"Exhibit ID"`
	Item    string `path:"item" minLength:"1" maxLength:"200" doc:"Repository item ID"`
}

// DeleteItemResponse names the removed document.
type DeleteItemResponse struct {
	DocumentID string `json:"document_id" doc:"ID of the removed document"`
}

// DeleteItemOutput wraps the delete response.
type DeleteItemOutput struct {
	Body DeleteItemResponse
}

// DeleteExhibitItemsInput identifies an exhibit.
type DeleteExhibitItemsInput struct {
	Exhibit string `path:"exhibit" minLength:"1" maxLength:"100" doc:"Exhibit ID"`
	Fields  bool   `query:"fields" doc:"Also clear the exhibit's custom field registry"`
}

// DeleteExhibitItemsOutput wraps the removal counts.
type DeleteExhibitItemsOutput struct {
	Body *service.ExhibitRemoval
}

// ListFieldsInput identifies an exhibit.
type ListFieldsInput struct {
	Exhibit string `path:"exhibit" minLength:"1" maxLength:"100" doc:"Exhibit ID"`
}

// ListFieldsResponse lists custom fields.
type ListFieldsResponse struct {
	Fields []*domain.FieldDescriptor `json:"fields" doc:"Registered custom fields"`
}

// ListFieldsOutput wraps the field list.
type ListFieldsOutput struct {
	Body ListFieldsResponse
}

// === Handlers ===

func (s *Server) handleIngestItems(ctx context.Context, input *IngestItemsInput) (*IngestItemsOutput, error) {
	payload, err := ingest.DecodePayload(bytes.NewReader(input.RawBody))
	if err != nil {
		return nil, serviceError(domainerrors.ValidationWithDetails("invalid payload", map[string]string{"body": err.Error()}))
	}

	report, err := s.services.Ingest.IngestPayload(ctx, input.Exhibit, payload)
	if err != nil {
		return nil, serviceError(err)
	}
	return &IngestItemsOutput{Body: report}, nil
}

func (s *Server) handleDeleteItem(ctx context.Context, input *DeleteItemInput) (*DeleteItemOutput, error) {
	docID, err := s.services.Ingest.Remove(ctx, input.Exhibit, input.Item)
	if err != nil {
		return nil, serviceError(err)
	}
	return &DeleteItemOutput{Body: DeleteItemResponse{DocumentID: docID}}, nil
}

func (s *Server) handleDeleteExhibitItems(ctx context.Context, input *DeleteExhibitItemsInput) (*DeleteExhibitItemsOutput, error) {
	removed, err := s.services.Ingest.RemoveExhibit(ctx, input.Exhibit, input.Fields)
	if err != nil {
		return nil, serviceError(err)
	}
	return &DeleteExhibitItemsOutput{Body: removed}, nil
}

func (s *Server) handleListFields(ctx context.Context, input *ListFieldsInput) (*ListFieldsOutput, error) {
	fields, err := s.services.Catalog.Fields(ctx, input.Exhibit)
	if err != nil {
		return nil, serviceError(err)
	}
	if fields == nil {
		fields = []*domain.FieldDescriptor{}
	}
	return &ListFieldsOutput{Body: ListFieldsResponse{Fields: fields}}, nil
}

// rateLimitIngest throttles ingestion per client address and exhibit.
func (s *Server) rateLimitIngest(ctx huma.Context, next func(huma.Context)) {
	if s.ingestLimiter == nil {
		next(ctx)
		return
	}

	key := clientHost(ctx.RemoteAddr()) + "|" + ctx.Param("exhibit")
	if !s.ingestLimiter.Allow(key) {
		s.logger.Warn("ingest rate limit exceeded", "key", key)
		ctx.SetHeader("Retry-After", "1")
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many ingest requests, try again later")
		return
	}
	next(ctx)
}

// clientHost strips the port from a remote address.
func clientHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
