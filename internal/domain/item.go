package domain

import (
	"encoding/json"
	"strings"
)

// ContainerType is the type value that marks a record as a collection rather than an item.
const ContainerType = "Collection"

// Values is a list of strings that also accepts a bare JSON string.
// Repository exports are inconsistent about wrapping single values in arrays.
type Values []string

// UnmarshalJSON accepts either a string or an array of strings.
func (v *Values) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*v = nil
		} else {
			*v = Values{single}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*v = list
	return nil
}

// MetadataEntry is one label/value row from a repository object's metadata block.
// The same label may appear in several entries.
type MetadataEntry struct {
	Label string `json:"label"`
	Value Values `json:"value"`
}

// Institute is an organisation associated with an object.
type Institute struct {
	Name       string `json:"name"`
	Depositing bool   `json:"depositing"`
}

// DOIEntry is a DOI registered for an object.
type DOIEntry struct {
	URL string `json:"url"`
}

// FileAttachment maps surrogate postfixes (e.g. "iiif", "masterfile") to URLs.
type FileAttachment map[string]string

// RawItem is the repository's description of a single object as received at ingestion time.
// It is treated as immutable for the duration of an ingestion call.
type RawItem struct {
	ID           string            `json:"id" validate:"required,max=200"`
	Metadata     []MetadataEntry   `json:"metadata,omitempty"`
	Fields       map[string]Values `json:"fields,omitempty"`
	Institutes   []Institute       `json:"institute,omitempty"`
	DOI          []DOIEntry        `json:"doi,omitempty"`
	IsGovernedBy string            `json:"isGovernedBy,omitempty"`
	Files        []FileAttachment  `json:"files,omitempty"`
}

// Field returns the values of a semantic field, or nil when absent.
func (r *RawItem) Field(name string) []string {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[name]
}

// HasField reports whether a semantic field is present and non-empty.
func (r *RawItem) HasField(name string) bool {
	return len(r.Field(name)) > 0
}

// Subjects returns the subject tags in source order.
func (r *RawItem) Subjects() []string { return r.Field("subject") }

// Titles returns the object's titles.
func (r *RawItem) Titles() []string { return r.Field("title") }

// AncestorTitles returns the titles of enclosing collections, outermost last.
func (r *RawItem) AncestorTitles() []string { return r.Field("ancestor_title") }

// IsContainer reports whether the record describes a collection.
// Only an exact single-valued type of "Collection" counts.
func (r *RawItem) IsContainer() bool {
	types := r.Field("type")
	return len(types) == 1 && types[0] == ContainerType
}

// DepositingInstitute returns the name of the last institute flagged as depositing.
func (r *RawItem) DepositingInstitute() string {
	var name string
	for _, inst := range r.Institutes {
		if inst.Depositing && strings.TrimSpace(inst.Name) != "" {
			name = inst.Name
		}
	}
	return name
}
