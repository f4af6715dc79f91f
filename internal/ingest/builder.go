package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/listenupapp/exhibit-server/internal/domain"
	"github.com/listenupapp/exhibit-server/internal/facet"
	"github.com/listenupapp/exhibit-server/internal/id"
	"github.com/listenupapp/exhibit-server/internal/metadata"
)

var (
	errItemID   = errors.New("item has no identifier")
	errReadOnly = errors.New("builder has no index or sidecar store")
)

// DefaultSurrogatePostfix is the file-attachment key that marks an image surrogate.
const DefaultSurrogatePostfix = "iiif"

// Options configures document construction.
type Options struct {
	// IIIFBase is the image server base URL tile sources are built from.
	IIIFBase string
	// SurrogatePostfix is the attachment key (and filename suffix) of image surrogates.
	SurrogatePostfix string
}

// Builder turns raw items into index documents and sidecar deltas.
type Builder struct {
	strategy facet.Strategy
	parser   *metadata.Parser
	registry FieldRegistry
	index    Indexer
	sidecars SidecarStore
	opts     Options
	logger   *slog.Logger

	// Collapses concurrent creation of the same label within this process.
	creating singleflight.Group
}

// NewBuilder creates a Builder. index and sidecars may be nil when only Build is used.
func NewBuilder(strategy facet.Strategy, registry FieldRegistry, index Indexer, sidecars SidecarStore, opts Options, logger *slog.Logger) *Builder {
	if opts.SurrogatePostfix == "" {
		opts.SurrogatePostfix = DefaultSurrogatePostfix
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		strategy: strategy,
		parser:   metadata.NewParser(strategy),
		registry: registry,
		index:    index,
		sidecars: sidecars,
		opts:     opts,
		logger:   logger,
	}
}

// Build assembles the index document and sidecar delta for item.
//
// The only side effect is creating custom field descriptors for labels the exhibit
// has not seen; they are created before any document refers to them.
// Building the same item twice yields equal documents.
func (b *Builder) Build(ctx context.Context, item *domain.RawItem, exhibitID string) (*domain.IndexDocument, domain.SidecarDelta, error) {
	doc, delta, _, err := b.build(ctx, item, exhibitID)
	return doc, delta, err
}

func (b *Builder) build(ctx context.Context, item *domain.RawItem, exhibitID string) (*domain.IndexDocument, domain.SidecarDelta, []string, error) {
	if item == nil || item.ID == "" {
		return nil, domain.SidecarDelta{}, nil, errItemID
	}

	docID := id.Compound(exhibitID, item.ID)
	doc := domain.NewIndexDocument(docID)
	container := item.IsContainer()

	// Identity and direct fields.
	doc.Set(domain.FieldDRIID, item.ID)
	if inst := item.DepositingInstitute(); inst != "" {
		doc.Set(domain.FieldDepositingInstitute, inst)
	}
	doc.Set(domain.FieldTitle, item.Titles()...)
	doc.Set(domain.FieldCreator, item.Field("creator")...)
	doc.Set(domain.FieldType, item.Field("type")...)

	// Subject-derived facets.
	if subjects := item.Subjects(); len(subjects) > 0 {
		f := b.strategy.Derive(item)

		doc.Set(domain.FieldSubject, subjects...)
		doc.Set(domain.FieldTheme, first(f.Themes)...)
		doc.Set(domain.FieldSubtheme, first(f.Subthemes)...)
		doc.Set(domain.FieldOralHistory, f.OralHistory...)
		doc.Set(domain.FieldCollection, nonEmpty(f.Collection)...)

		if !container {
			doc.Set(domain.FieldGrantee, nonEmpty(f.Grantee)...)
			doc.Set(domain.FieldGrant, f.Grants...)
		}
	}

	doc.Set(domain.FieldTemporalCoverage, metadata.Coverage(item.Field("temporal_coverage"))...)
	doc.Set(domain.FieldGeographicalCoverage, metadata.Coverage(item.Field("geographical_coverage"))...)

	// Custom metadata fields, mirrored into the sidecar.
	custom, created, err := b.customFields(ctx, item, exhibitID)
	if err != nil {
		return nil, domain.SidecarDelta{}, nil, err
	}
	for field, values := range custom {
		doc.Set(field, values...)
	}

	if parent := item.IsGovernedBy; parent != "" {
		doc.Set(domain.FieldCollectionID, id.Compound(exhibitID, parent))
	}

	doc.SubcollectionType = facet.SubcollectionType(item)
	if !container {
		doc.Set(domain.FieldTileSource, b.TileSources(item)...)
	}

	delta := domain.SidecarDelta{
		DocumentID: docID,
		ExhibitID:  exhibitID,
		Data:       custom,
		Private:    container,
	}
	return doc, delta, created, nil
}

// customFields parses item metadata and maps every label to its registered field,
// creating descriptors for new labels first. Labels that resolve to the same
// descriptor contribute to one field in label order.
func (b *Builder) customFields(ctx context.Context, item *domain.RawItem, exhibitID string) (map[string][]string, []string, error) {
	parsed := b.parser.Parse(item)
	if parsed.Len() == 0 {
		return map[string][]string{}, nil, nil
	}

	known, err := b.registry.ListFields(ctx, exhibitID)
	if err != nil {
		return nil, nil, fmt.Errorf("list custom fields: %w", err)
	}
	byLabel := make(map[string]*domain.FieldDescriptor, len(known))
	for _, f := range known {
		byLabel[domain.LabelKey(f.Label)] = f
	}

	var created []string
	for _, label := range parsed.Keys() {
		key := domain.LabelKey(label)
		if _, ok := byLabel[key]; ok {
			continue
		}
		f, isNew, err := b.findOrCreate(ctx, exhibitID, label)
		if err != nil {
			return nil, nil, fmt.Errorf("create custom field %q: %w", label, err)
		}
		byLabel[key] = f
		if isNew {
			created = append(created, f.Label)
		}
	}

	out := make(map[string][]string, parsed.Len())
	for _, label := range parsed.Keys() {
		f := byLabel[domain.LabelKey(label)]
		out[f.Field] = append(out[f.Field], parsed.Get(label)...)
	}
	return out, created, nil
}

type createResult struct {
	field   *domain.FieldDescriptor
	created bool
}

// findOrCreate resolves a label through the registry, sharing one call between
// concurrent builds. The shared call runs detached from any single caller's
// cancellation; each caller still stops waiting when its own ctx is done.
func (b *Builder) findOrCreate(ctx context.Context, exhibitID, label string) (*domain.FieldDescriptor, bool, error) {
	key := exhibitID + "\x00" + domain.LabelKey(label)
	ch := b.creating.DoChan(key, func() (any, error) {
		f, created, err := b.registry.FindOrCreateField(context.WithoutCancel(ctx), exhibitID, label)
		if err != nil {
			return nil, err
		}
		if created {
			b.logger.Info("custom field created",
				"exhibit", exhibitID,
				"label", f.Label,
				"field", f.Field,
			)
		}
		return createResult{field: f, created: created}, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, false, r.Err
		}
		if r.Shared {
			b.logger.Debug("custom field creation shared", "exhibit", exhibitID, "label", label)
		}
		res := r.Val.(createResult)
		return res.field, res.created, nil
	}
}

// TileSources returns the IIIF info.json URL of every image surrogate attached to item.
// Attachments without the surrogate key are skipped.
func (b *Builder) TileSources(item *domain.RawItem) []string {
	base := strings.TrimRight(b.opts.IIIFBase, "/")
	postfix := b.opts.SurrogatePostfix

	var urls []string
	for _, file := range item.Files {
		raw, ok := file[postfix]
		if !ok || raw == "" {
			continue
		}
		imageID := surrogateID(raw, postfix)
		if imageID == "" {
			continue
		}
		urls = append(urls, fmt.Sprintf("%s/%s:%s/info.json", base, item.ID, imageID))
	}
	return urls
}

// surrogateID derives an image identifier from a surrogate URL: the file name
// up to "_<postfix>". "https://repo/objects/abc_iiif.jpg" -> "abc".
func surrogateID(raw, postfix string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return ""
	}
	imageID, _, _ := strings.Cut(name, "_"+postfix)
	return imageID
}

func first(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values[:1]
}

func nonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}

// Ingest builds item and writes it: the document is upserted into the index and
// the sidecar delta merged. A failure affects this item only.
func (b *Builder) Ingest(ctx context.Context, item *domain.RawItem, exhibitID string) (*Result, error) {
	if b.index == nil || b.sidecars == nil {
		return nil, errReadOnly
	}

	doc, delta, created, err := b.build(ctx, item, exhibitID)
	if err != nil {
		return nil, err
	}

	if err := b.index.Upsert(ctx, doc); err != nil {
		return nil, fmt.Errorf("index document %s: %w", doc.ID, err)
	}

	sidecar, err := b.sidecars.MergeSidecar(ctx, delta)
	if err != nil {
		return nil, fmt.Errorf("merge sidecar %s: %w", doc.ID, err)
	}

	b.logger.Debug("item ingested",
		"exhibit", exhibitID,
		"item_id", item.ID,
		"document_id", doc.ID,
		"fields", len(doc.Fields),
	)

	return &Result{
		ItemID:        item.ID,
		DocumentID:    doc.ID,
		Document:      doc,
		Sidecar:       sidecar,
		CreatedFields: created,
	}, nil
}

// Remove deletes an item's document and sidecar.
func (b *Builder) Remove(ctx context.Context, exhibitID, itemID string) (string, error) {
	docID := id.Compound(exhibitID, itemID)
	if err := b.removeDocument(ctx, docID); err != nil {
		return "", err
	}
	return docID, nil
}

// RemoveExhibit deletes every document of an exhibit that has a sidecar, which is
// every document ingested through this builder. Returns how many were removed.
func (b *Builder) RemoveExhibit(ctx context.Context, exhibitID string) (int, error) {
	if b.index == nil || b.sidecars == nil {
		return 0, errReadOnly
	}

	ids, err := b.sidecars.ListSidecars(ctx, exhibitID)
	if err != nil {
		return 0, fmt.Errorf("list exhibit %s: %w", exhibitID, err)
	}
	for i, docID := range ids {
		if err := b.removeDocument(ctx, docID); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}

// DropFields deletes every custom field descriptor of an exhibit. Documents that
// still use those fields keep their values; the next ingestion recreates them.
func (b *Builder) DropFields(ctx context.Context, exhibitID string) (int64, error) {
	n, err := b.registry.DeleteFields(ctx, exhibitID)
	if err != nil {
		return 0, fmt.Errorf("delete custom fields of %s: %w", exhibitID, err)
	}
	return n, nil
}

func (b *Builder) removeDocument(ctx context.Context, docID string) error {
	if b.index == nil || b.sidecars == nil {
		return errReadOnly
	}
	if err := b.index.Delete(ctx, docID); err != nil {
		return fmt.Errorf("delete document %s: %w", docID, err)
	}
	if err := b.sidecars.DeleteSidecar(ctx, docID); err != nil {
		return fmt.Errorf("delete sidecar %s: %w", docID, err)
	}
	return nil
}

// Strategy returns the facet strategy documents are built with.
func (b *Builder) Strategy() facet.Strategy { return b.strategy }

