package domain

import (
	"maps"
	"slices"
	"time"
)

// Sidecar mirrors a document's custom metadata outside the search index.
// It outlives reindexing and is only ever merged into, never replaced.
type Sidecar struct {
	DocumentID string              `json:"document_id"`
	ExhibitID  string              `json:"exhibit_id"`
	Data       map[string][]string `json:"data"`
	Private    bool                `json:"private"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// SidecarDelta is the set of values one ingestion contributes to a sidecar.
type SidecarDelta struct {
	DocumentID string
	ExhibitID  string
	Data       map[string][]string
	Private    bool
}

// Apply merges a delta into the sidecar. Keys in the delta overwrite the stored values;
// keys missing from the delta are kept. Private is sticky.
// Returns true if anything changed.
func (s *Sidecar) Apply(delta SidecarDelta) bool {
	if s.Data == nil {
		s.Data = make(map[string][]string, len(delta.Data))
	}

	changed := false
	for k, v := range delta.Data {
		if existing, ok := s.Data[k]; ok && slices.Equal(existing, v) {
			continue
		}
		s.Data[k] = slices.Clone(v)
		changed = true
	}

	if delta.Private && !s.Private {
		s.Private = true
		changed = true
	}

	return changed
}

// Clone returns a deep copy.
func (s *Sidecar) Clone() *Sidecar {
	c := *s
	c.Data = make(map[string][]string, len(s.Data))
	for k, v := range s.Data {
		c.Data[k] = slices.Clone(v)
	}
	return &c
}

// Equal compares data and privacy, ignoring timestamps.
func (s *Sidecar) Equal(other *Sidecar) bool {
	return s.DocumentID == other.DocumentID &&
		s.ExhibitID == other.ExhibitID &&
		s.Private == other.Private &&
		maps.EqualFunc(s.Data, other.Data, slices.Equal[[]string])
}
