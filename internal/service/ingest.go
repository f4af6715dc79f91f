package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/exhibit-server/internal/domain"
	domainerrors "github.com/listenupapp/exhibit-server/internal/errors"
	"github.com/listenupapp/exhibit-server/internal/ingest"
	"github.com/listenupapp/exhibit-server/internal/store"
	"github.com/listenupapp/exhibit-server/internal/validation"
)

// Ingest defaults.
const (
	DefaultIngestWorkers     = 4
	DefaultIngestItemTimeout = 30 * time.Second
)

// IngestOptions configures batch ingestion.
type IngestOptions struct {
	Workers     int
	ItemTimeout time.Duration
}

// IngestService ingests batches of repository items into an exhibit.
type IngestService struct {
	builder   *ingest.Builder
	validator *validation.Validator
	opts      IngestOptions
	logger    *slog.Logger
}

// NewIngestService creates an ingest service. Zero options take the defaults.
func NewIngestService(builder *ingest.Builder, validator *validation.Validator, opts IngestOptions, logger *slog.Logger) *IngestService {
	if opts.Workers <= 0 {
		opts.Workers = DefaultIngestWorkers
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = DefaultIngestItemTimeout
	}
	return &IngestService{
		builder:   builder,
		validator: validator,
		opts:      opts,
		logger:    logger,
	}
}

// ItemOutcome reports what happened to one item of a batch.
type ItemOutcome struct {
	ItemID        string                `json:"item_id"`
	DocumentID    string                `json:"document_id,omitempty"`
	CreatedFields []string              `json:"created_fields,omitempty"`
	Error         string                `json:"error,omitempty"`
	Code          domainerrors.Code     `json:"code,omitempty"`
	Sidecar       *domain.Sidecar       `json:"-"`
	Document      *domain.IndexDocument `json:"-"`
}

// OK reports whether the item was ingested.
func (o ItemOutcome) OK() bool { return o.Error == "" }

// BatchReport summarizes a batch. Items are in request order.
type BatchReport struct {
	BatchID    string        `json:"batch_id"`
	ExhibitID  string        `json:"exhibit_id"`
	Total      int           `json:"total"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	DurationMs int64         `json:"duration_ms"`
	Items      []ItemOutcome `json:"items"`
}

// IngestBatch ingests items concurrently. An item that fails is recorded in the
// report and never stops the others; the returned error is only for an invalid
// exhibit ID.
func (s *IngestService) IngestBatch(ctx context.Context, exhibitID string, items []*domain.RawItem) (*BatchReport, error) {
	if err := s.validator.Var("exhibit", exhibitID, "required,exhibit"); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &BatchReport{
		BatchID:   uuid.NewString(),
		ExhibitID: exhibitID,
		Total:     len(items),
		Items:     make([]ItemOutcome, len(items)),
	}

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)

	for i, item := range items {
		g.Go(func() error {
			report.Items[i] = s.ingestOne(ctx, exhibitID, item)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range report.Items {
		if o.OK() {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	report.DurationMs = time.Since(start).Milliseconds()

	s.logger.Info("ingest batch finished",
		"batch_id", report.BatchID,
		"exhibit", exhibitID,
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duration_ms", report.DurationMs,
	)

	return report, nil
}

// IngestPayload validates a decoded payload and ingests its items into exhibitID.
// A payload naming a different exhibit is rejected.
func (s *IngestService) IngestPayload(ctx context.Context, exhibitID string, p *ingest.Payload) (*BatchReport, error) {
	if p.Exhibit != "" && p.Exhibit != exhibitID {
		return nil, domainerrors.Validationf("payload is for exhibit %q, not %q", p.Exhibit, exhibitID)
	}
	if err := s.validator.Validate(p); err != nil {
		return nil, err
	}
	return s.IngestBatch(ctx, exhibitID, p.Items)
}

func (s *IngestService) ingestOne(ctx context.Context, exhibitID string, item *domain.RawItem) ItemOutcome {
	if item == nil {
		return failed("", domainerrors.Validation("item is null"))
	}
	if err := s.validator.Validate(item); err != nil {
		return failed(item.ID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.ItemTimeout)
	defer cancel()

	res, err := s.builder.Ingest(ctx, item, exhibitID)
	if err != nil {
		s.logger.Warn("item ingest failed", "exhibit", exhibitID, "item_id", item.ID, "error", err)
		return failed(item.ID, err)
	}

	return ItemOutcome{
		ItemID:        res.ItemID,
		DocumentID:    res.DocumentID,
		CreatedFields: res.CreatedFields,
		Sidecar:       res.Sidecar,
		Document:      res.Document,
	}
}

func failed(itemID string, err error) ItemOutcome {
	return ItemOutcome{ItemID: itemID, Error: err.Error(), Code: codeOf(err)}
}

func codeOf(err error) domainerrors.Code {
	var domainErr *domainerrors.Error
	switch {
	case errors.As(err, &domainErr):
		return domainErr.Code
	case errors.Is(err, store.ErrConflict):
		return domainerrors.CodeConflict
	default:
		return domainerrors.CodeInternal
	}
}

// Remove deletes an item's document and sidecar from an exhibit.
func (s *IngestService) Remove(ctx context.Context, exhibitID, itemID string) (string, error) {
	if err := s.validator.Var("exhibit", exhibitID, "required,exhibit"); err != nil {
		return "", err
	}
	if err := s.validator.Var("item", itemID, "required,max=200"); err != nil {
		return "", err
	}

	docID, err := s.builder.Remove(ctx, exhibitID, itemID)
	if err != nil {
		return "", fmt.Errorf("remove item %s: %w", itemID, err)
	}

	s.logger.Info("item removed", "exhibit", exhibitID, "item_id", itemID, "document_id", docID)
	return docID, nil
}

// ExhibitRemoval counts what RemoveExhibit deleted.
type ExhibitRemoval struct {
	Documents int   `json:"documents"`
	Fields    int64 `json:"fields"`
}

// RemoveExhibit deletes every document and sidecar of an exhibit, and its custom
// field registry when dropFields is set.
func (s *IngestService) RemoveExhibit(ctx context.Context, exhibitID string, dropFields bool) (*ExhibitRemoval, error) {
	if err := s.validator.Var("exhibit", exhibitID, "required,exhibit"); err != nil {
		return nil, err
	}

	out := &ExhibitRemoval{}
	n, err := s.builder.RemoveExhibit(ctx, exhibitID)
	out.Documents = n
	if err != nil {
		return out, fmt.Errorf("remove exhibit %s: %w", exhibitID, err)
	}

	if dropFields {
		out.Fields, err = s.builder.DropFields(ctx, exhibitID)
		if err != nil {
			return out, err
		}
	}

	s.logger.Info("exhibit removed", "exhibit", exhibitID, "documents", out.Documents, "fields", out.Fields)
	return out, nil
}
