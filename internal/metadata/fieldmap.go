package metadata

import "slices"

// FieldMap maps display labels to values, remembering the order labels were first seen.
// Keys are kept verbatim, so "Creator" and "creator" are different labels.
type FieldMap struct {
	keys   []string
	values map[string][]string
}

// NewFieldMap returns an empty FieldMap.
func NewFieldMap() *FieldMap {
	return &FieldMap{values: make(map[string][]string)}
}

// Append adds values under label. Empty values are dropped.
func (m *FieldMap) Append(label string, values ...string) {
	values = compact(values)
	if label == "" || len(values) == 0 {
		return
	}
	if _, ok := m.values[label]; !ok {
		m.keys = append(m.keys, label)
	}
	m.values[label] = append(m.values[label], values...)
}

// Set replaces the values under label. Setting nothing removes the label.
func (m *FieldMap) Set(label string, values ...string) {
	values = compact(values)
	if len(values) == 0 {
		m.Delete(label)
		return
	}
	if _, ok := m.values[label]; !ok {
		m.keys = append(m.keys, label)
	}
	m.values[label] = values
}

// Delete removes label.
func (m *FieldMap) Delete(label string) {
	if _, ok := m.values[label]; !ok {
		return
	}
	delete(m.values, label)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == label })
}

// Get returns the values under label.
func (m *FieldMap) Get(label string) []string {
	return m.values[label]
}

// Has reports whether label has values.
func (m *FieldMap) Has(label string) bool {
	_, ok := m.values[label]
	return ok
}

// Keys returns labels in first-seen order.
func (m *FieldMap) Keys() []string {
	return slices.Clone(m.keys)
}

// Len returns the number of labels.
func (m *FieldMap) Len() int { return len(m.keys) }

// Map returns a copy of the contents as a plain map.
func (m *FieldMap) Map() map[string][]string {
	out := make(map[string][]string, len(m.values))
	for k, v := range m.values {
		out[k] = slices.Clone(v)
	}
	return out
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
