package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/listenupapp/exhibit-server/internal/domain"
	"github.com/listenupapp/exhibit-server/internal/id"
	"github.com/listenupapp/exhibit-server/internal/normalize"
	"github.com/listenupapp/exhibit-server/internal/store"
)

// fieldColumns is the ordered list of columns selected in field queries.
// Must match the scan order in scanField.
const fieldColumns = `id, exhibit_id, label, field, readonly, created_at`

// scanField scans a sql.Row (or sql.Rows via its Scan method) into a domain.FieldDescriptor.
func scanField(scanner interface{ Scan(dest ...any) error }) (*domain.FieldDescriptor, error) {
	var (
		f         domain.FieldDescriptor
		readonly  int
		createdAt string
	)

	err := scanner.Scan(
		&f.ID,
		&f.ExhibitID,
		&f.Label,
		&f.Field,
		&readonly,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	f.Readonly = readonly != 0
	f.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &f, nil
}

// CreateField inserts a field descriptor.
// Returns store.ErrAlreadyExists if the exhibit already has the label in any casing.
func (s *Store) CreateField(ctx context.Context, f *domain.FieldDescriptor) error {
	readonly := 0
	if f.Readonly {
		readonly = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO custom_fields (id, exhibit_id, label, label_key, field, readonly, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID,
		f.ExhibitID,
		f.Label,
		domain.LabelKey(f.Label),
		f.Field,
		readonly,
		formatTime(f.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetFieldByLabel looks up a descriptor by label, ignoring case.
// Returns store.ErrNotFound if the exhibit has no such label.
func (s *Store) GetFieldByLabel(ctx context.Context, exhibitID, label string) (*domain.FieldDescriptor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fieldColumns+` FROM custom_fields
		 WHERE exhibit_id = ? AND label_key = ?`,
		exhibitID, domain.LabelKey(label))

	f, err := scanField(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListFields returns an exhibit's descriptors in insertion order.
func (s *Store) ListFields(ctx context.Context, exhibitID string) ([]*domain.FieldDescriptor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fieldColumns+` FROM custom_fields
		 WHERE exhibit_id = ?
		 ORDER BY rowid ASC`,
		exhibitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := []*domain.FieldDescriptor{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return fields, nil
}

// FindOrCreateField returns the descriptor for label, creating it with the given
// casing if the exhibit has never seen the label.
// Returns (field, created, error) where created is true if a new descriptor was made.
//
// Concurrent callers racing on the same label are reconciled by the unique index:
// the loser re-reads the winner's row.
func (s *Store) FindOrCreateField(ctx context.Context, exhibitID, label string) (*domain.FieldDescriptor, bool, error) {
	label = strings.TrimSpace(label)

	existing, err := s.GetFieldByLabel(ctx, exhibitID, label)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	fieldName := normalize.CustomField(label)
	if fieldName == "" {
		return nil, false, fmt.Errorf("label %q: %w", label, store.ErrInvalidInput)
	}

	fieldID, err := id.Generate("fld")
	if err != nil {
		return nil, false, fmt.Errorf("generate field id: %w", err)
	}

	f := &domain.FieldDescriptor{
		ID:        fieldID,
		ExhibitID: exhibitID,
		Label:     label,
		Field:     fieldName,
		Readonly:  true,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.CreateField(ctx, f); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			existing, err := s.GetFieldByLabel(ctx, exhibitID, label)
			if err != nil {
				return nil, false, fmt.Errorf("re-read field %q after conflict: %w", label, err)
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	s.logger.Debug("created custom field", "exhibit", exhibitID, "label", label, "field", fieldName)
	return f, true, nil
}

// DeleteFields removes every descriptor of an exhibit.
func (s *Store) DeleteFields(ctx context.Context, exhibitID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM custom_fields WHERE exhibit_id = ?`, exhibitID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
