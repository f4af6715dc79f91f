package domain

import (
	"strings"
	"time"
)

// FieldDescriptor is an exhibit-scoped custom field created on demand for a metadata label.
// Labels are unique per exhibit ignoring case; the first casing seen is kept.
type FieldDescriptor struct {
	ID        string    `json:"id"`
	ExhibitID string    `json:"exhibit_id"`
	Label     string    `json:"label"`
	Field     string    `json:"field"` // Index field the values are written to
	Readonly  bool      `json:"readonly"`
	CreatedAt time.Time `json:"created_at"`
}

// LabelKey returns the case-insensitive lookup key for a label.
func LabelKey(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
