package domain

import (
	"encoding/json"
	"maps"
	"slices"
)

// Index field names. Suffixes follow the Solr dynamic-field convention the exhibit
// views were built against: _ssim facetable strings, _tesim text, _ssm stored only.
const (
	FieldID                   = "id"
	FieldDRIID                = "readonly_dri_id_ssim"
	FieldTitle                = "full_title_tesim"
	FieldDepositingInstitute  = "readonly_depositing_institute_tesim"
	FieldCreator              = "readonly_creator_ssim"
	FieldSubject              = "readonly_subject_ssim"
	FieldTheme                = "readonly_theme_ssim"
	FieldSubtheme             = "readonly_subtheme_ssim"
	FieldType                 = "readonly_type_ssim"
	FieldOralHistory          = "readonly_oral_history_ssim"
	FieldCollection           = "readonly_collection_ssim"
	FieldGrantee              = "readonly_grantee_ssim"
	FieldGrant                = "readonly_grant_ssim"
	FieldTemporalCoverage     = "readonly_temporal_coverage_ssim"
	FieldGeographicalCoverage = "readonly_geographical_coverage_ssim"
	FieldCollectionID         = "collection_id_ssim"
	FieldSubcollectionType    = "readonly_subcollection_type_ssim"
	FieldTileSource           = "content_metadata_image_iiif_info_ssm"
)

// Custom field names written through the field registry.
const (
	FieldDescriptionText = "readonly_description_tesim"
	FieldSubjectText     = "readonly_subject_tesim"
	FieldTitleText       = "readonly_title_tesim"
	FieldCreatorText     = "readonly_creator_tesim"
	FieldDOIText         = "readonly_doi_tesim"
	FieldCollectionText  = "readonly_collection_tesim"
	FieldGranteeText     = "readonly_grantee_tesim"
	FieldGrantText       = "readonly_grant_tesim"
	FieldOralHistoryText = "readonly_oral_history_tesim"
)

// Subcollection types derived for container records.
const (
	SubcollectionGrantee      = "grantee"
	SubcollectionGrant        = "grant"
	SubcollectionOral         = "oral"
	SubcollectionPublications = "publications"
)

// Optional is a string that distinguishes "never set" from "explicitly null".
type Optional struct {
	value   string
	present bool
	null    bool
}

// Absent returns an Optional with no value.
func Absent() Optional { return Optional{} }

// Null returns an Optional explicitly set to null.
func Null() Optional { return Optional{present: true, null: true} }

// Some returns an Optional holding v.
func Some(v string) Optional { return Optional{value: v, present: true} }

// IsPresent reports whether the value was set, including to null.
func (o Optional) IsPresent() bool { return o.present }

// IsNull reports whether the value was explicitly set to null.
func (o Optional) IsNull() bool { return o.present && o.null }

// Get returns the value and whether a non-null value is held.
func (o Optional) Get() (string, bool) {
	if !o.present || o.null {
		return "", false
	}
	return o.value, true
}

// IndexDocument is a flat, facetable record ready for the search index.
type IndexDocument struct {
	ID     string
	Fields map[string][]string

	// SubcollectionType is kept apart from Fields so an explicit null survives.
	SubcollectionType Optional
}

// NewIndexDocument creates an empty document with the given identifier.
func NewIndexDocument(id string) *IndexDocument {
	return &IndexDocument{
		ID:     id,
		Fields: map[string][]string{FieldID: {id}},
	}
}

// Set replaces a field. Empty values remove the field so that nothing is stored as [].
func (d *IndexDocument) Set(field string, values ...string) {
	if len(values) == 0 {
		delete(d.Fields, field)
		return
	}
	d.Fields[field] = slices.Clone(values)
}

// Get returns the values stored under field.
func (d *IndexDocument) Get(field string) []string {
	return d.Fields[field]
}

// First returns the first value of field, or "".
func (d *IndexDocument) First(field string) string {
	if v := d.Fields[field]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// ToMap converts the document to the generic shape the index accepts.
// An explicit null subcollection type is not indexed; it only exists in the document.
func (d *IndexDocument) ToMap() map[string]any {
	m := make(map[string]any, len(d.Fields)+1)
	for k, v := range d.Fields {
		m[k] = slices.Clone(v)
	}
	if v, ok := d.SubcollectionType.Get(); ok {
		m[FieldSubcollectionType] = []string{v}
	}
	return m
}

// Equal reports whether two documents carry the same identifier and fields.
func (d *IndexDocument) Equal(other *IndexDocument) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.ID == other.ID &&
		d.SubcollectionType == other.SubcollectionType &&
		maps.EqualFunc(d.Fields, other.Fields, slices.Equal[[]string])
}

// Flat returns the fields as one map, with subcollection type as nil when
// explicitly null and left out when absent.
func (d *IndexDocument) Flat() map[string]any {
	m := make(map[string]any, len(d.Fields)+1)
	for k, v := range d.Fields {
		m[k] = v
	}
	switch {
	case d.SubcollectionType.IsNull():
		m[FieldSubcollectionType] = nil
	case d.SubcollectionType.IsPresent():
		v, _ := d.SubcollectionType.Get()
		m[FieldSubcollectionType] = []string{v}
	}
	return m
}

// MarshalJSON renders the document flat.
func (d *IndexDocument) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Flat())
}
