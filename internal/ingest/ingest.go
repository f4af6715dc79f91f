// Package ingest builds index documents from repository items and writes them
// to the search index and the sidecar store.
package ingest

import (
	"context"

	"github.com/listenupapp/exhibit-server/internal/domain"
)

// Indexer is the search index boundary.
type Indexer interface {
	Upsert(ctx context.Context, doc *domain.IndexDocument) error
	Delete(ctx context.Context, id string) error
}

// SidecarStore persists the per-document sidecar.
type SidecarStore interface {
	MergeSidecar(ctx context.Context, delta domain.SidecarDelta) (*domain.Sidecar, error)
	DeleteSidecar(ctx context.Context, documentID string) error
	ListSidecars(ctx context.Context, exhibitID string) ([]string, error)
}

// FieldRegistry resolves metadata labels to custom field descriptors.
// Labels are matched ignoring case; FindOrCreateField must be safe to call concurrently
// for the same label and never create two descriptors for it.
type FieldRegistry interface {
	ListFields(ctx context.Context, exhibitID string) ([]*domain.FieldDescriptor, error)
	FindOrCreateField(ctx context.Context, exhibitID, label string) (*domain.FieldDescriptor, bool, error)
	DeleteFields(ctx context.Context, exhibitID string) (int64, error)
}

// Result describes one ingested item.
type Result struct {
	ItemID        string                `json:"item_id"`
	DocumentID    string                `json:"document_id"`
	Document      *domain.IndexDocument `json:"document,omitempty"`
	Sidecar       *domain.Sidecar       `json:"sidecar,omitempty"`
	CreatedFields []string              `json:"created_fields,omitempty"`
}
