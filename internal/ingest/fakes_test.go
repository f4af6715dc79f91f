package ingest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/listenupapp/exhibit-server/internal/domain"
	"github.com/listenupapp/exhibit-server/internal/normalize"
)

// memRegistry is an in-memory FieldRegistry that counts creations.
type memRegistry struct {
	mu      sync.Mutex
	fields  map[string]*domain.FieldDescriptor
	order   []string
	creates int
}

func newMemRegistry() *memRegistry {
	return &memRegistry{fields: make(map[string]*domain.FieldDescriptor)}
}

func (r *memRegistry) ListFields(_ context.Context, exhibitID string) ([]*domain.FieldDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.FieldDescriptor
	for _, k := range r.order {
		if f := r.fields[k]; f.ExhibitID == exhibitID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memRegistry) FindOrCreateField(_ context.Context, exhibitID, label string) (*domain.FieldDescriptor, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := exhibitID + "/" + domain.LabelKey(label)
	if f, ok := r.fields[key]; ok {
		return f, false, nil
	}
	f := &domain.FieldDescriptor{
		ID:        "fld-" + strings.ReplaceAll(key, " ", "-"),
		ExhibitID: exhibitID,
		Label:     label,
		Field:     normalize.CustomField(label),
		Readonly:  true,
		CreatedAt: time.Now(),
	}
	r.fields[key] = f
	r.order = append(r.order, key)
	r.creates++
	return f, true, nil
}

func (r *memRegistry) DeleteFields(_ context.Context, exhibitID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	kept := r.order[:0]
	for _, k := range r.order {
		if r.fields[k].ExhibitID == exhibitID {
			delete(r.fields, k)
			n++
			continue
		}
		kept = append(kept, k)
	}
	r.order = kept
	return n, nil
}

func (r *memRegistry) has(exhibitID, field string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.fields {
		if f.ExhibitID == exhibitID && f.Field == field {
			return true
		}
	}
	return false
}

// memIndex records upserts.
type memIndex struct {
	mu   sync.Mutex
	docs map[string]*domain.IndexDocument
	err  error
}

func newMemIndex() *memIndex {
	return &memIndex{docs: make(map[string]*domain.IndexDocument)}
}

func (m *memIndex) Upsert(_ context.Context, doc *domain.IndexDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *memIndex) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

// memSidecars merges deltas the same way the Badger store does.
type memSidecars struct {
	mu       sync.Mutex
	sidecars map[string]*domain.Sidecar
}

func newMemSidecars() *memSidecars {
	return &memSidecars{sidecars: make(map[string]*domain.Sidecar)}
}

func (m *memSidecars) MergeSidecar(_ context.Context, delta domain.SidecarDelta) (*domain.Sidecar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sidecars[delta.DocumentID]
	if !ok {
		s = &domain.Sidecar{DocumentID: delta.DocumentID, ExhibitID: delta.ExhibitID}
		m.sidecars[delta.DocumentID] = s
	}
	s.Apply(delta)
	return s.Clone(), nil
}

func (m *memSidecars) DeleteSidecar(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sidecars, id)
	return nil
}

func (m *memSidecars) ListSidecars(_ context.Context, exhibitID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, s := range m.sidecars {
		if s.ExhibitID == exhibitID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// gatedRegistry holds FindOrCreateField until release is closed and fails it,
// as a database driver would, if the caller's context is done by then.
type gatedRegistry struct {
	*memRegistry
	entered  chan struct{}
	release  chan struct{}
	listed   chan struct{}
	once     sync.Once
	canceled bool
}

func newGatedRegistry() *gatedRegistry {
	return &gatedRegistry{
		memRegistry: newMemRegistry(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
		listed:      make(chan struct{}, 16),
	}
}

func (r *gatedRegistry) ListFields(ctx context.Context, exhibitID string) ([]*domain.FieldDescriptor, error) {
	defer func() {
		select {
		case r.listed <- struct{}{}:
		default:
		}
	}()
	return r.memRegistry.ListFields(ctx, exhibitID)
}

func (r *gatedRegistry) FindOrCreateField(ctx context.Context, exhibitID, label string) (*domain.FieldDescriptor, bool, error) {
	r.once.Do(func() { close(r.entered) })
	<-r.release
	if err := ctx.Err(); err != nil {
		r.mu.Lock()
		r.canceled = true
		r.mu.Unlock()
		return nil, false, err
	}
	return r.memRegistry.FindOrCreateField(ctx, exhibitID, label)
}
