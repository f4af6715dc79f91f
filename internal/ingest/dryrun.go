package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/listenupapp/exhibit-server/internal/domain"
	"github.com/listenupapp/exhibit-server/internal/normalize"
)

// DryRun returns a builder that resolves labels against the same registry without
// writing to it and has no index or sidecar store. Labels the exhibit has never
// seen get a provisional field that is not persisted.
func (b *Builder) DryRun() *Builder {
	return NewBuilder(b.strategy, readOnlyRegistry{b.registry}, nil, nil, b.opts, b.logger)
}

// readOnlyRegistry reads through to a registry and refuses every write.
type readOnlyRegistry struct {
	FieldRegistry
}

func (r readOnlyRegistry) FindOrCreateField(ctx context.Context, exhibitID, label string) (*domain.FieldDescriptor, bool, error) {
	known, err := r.ListFields(ctx, exhibitID)
	if err != nil {
		return nil, false, err
	}
	key := domain.LabelKey(label)
	for _, f := range known {
		if domain.LabelKey(f.Label) == key {
			return f, false, nil
		}
	}

	label = strings.TrimSpace(label)
	field := normalize.CustomField(label)
	if field == "" {
		return nil, false, fmt.Errorf("label %q has no field name", label)
	}
	return &domain.FieldDescriptor{
		ExhibitID: exhibitID,
		Label:     label,
		Field:     field,
		Readonly:  true,
	}, true, nil
}

func (readOnlyRegistry) DeleteFields(context.Context, string) (int64, error) {
	return 0, errReadOnly
}
