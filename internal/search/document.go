// Package search provides the faceted document index using Bleve.
// Documents are flat multi-valued string fields; filtering and faceting work
// on exact values and free-text queries run against a composite text field.
package search

import (
	"slices"
	"sort"
	"strings"

	"github.com/listenupapp/exhibit-server/internal/domain"
)

// toBleve converts a document to the map shape indexed by Bleve.
func toBleve(doc *domain.IndexDocument) map[string]any {
	m := doc.ToMap()

	keys := make([]string, 0, len(doc.Fields))
	for k := range doc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var text []string
	for _, k := range keys {
		if k == domain.FieldID || strings.HasSuffix(k, "_ssm") {
			continue
		}
		text = append(text, doc.Fields[k]...)
	}
	if len(text) > 0 {
		m[fieldAllText] = strings.Join(text, "\n")
	}

	if doc.SubcollectionType.IsNull() {
		m[fieldNulls] = []string{domain.FieldSubcollectionType}
	}

	return m
}

// fromStored rebuilds a document from the stored fields of a hit.
func fromStored(id string, stored map[string]any) *domain.IndexDocument {
	doc := domain.NewIndexDocument(id)

	for name, raw := range stored {
		values := storedStrings(raw)
		switch name {
		case fieldNulls:
			if slices.Contains(values, domain.FieldSubcollectionType) && !doc.SubcollectionType.IsPresent() {
				doc.SubcollectionType = domain.Null()
			}
		case domain.FieldSubcollectionType:
			if len(values) > 0 {
				doc.SubcollectionType = domain.Some(values[0])
			}
		case domain.FieldID:
		default:
			doc.Set(name, values...)
		}
	}

	return doc
}

// storedStrings normalizes a stored field value. Bleve returns a single value
// as a scalar and repeated values as a slice.
func storedStrings(raw any) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	default:
		return nil
	}
}
