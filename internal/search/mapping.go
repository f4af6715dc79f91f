package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Reserved field names added to every indexed document.
const (
	// fieldAllText is the full-text field searched by free-text queries.
	// It concatenates the text of every other field and is not stored.
	fieldAllText = "all_text"

	// fieldNulls lists fields that were explicitly set to null on the document.
	fieldNulls = "null_fields"
)

// buildIndexMapping creates the Bleve index mapping for exhibit documents.
//
// Document fields are not known up front: custom metadata labels become new
// fields at ingestion time. Every dynamic field is therefore indexed with the
// keyword analyzer, which gives exact-match filtering and faceting on the full
// value. Free-text search goes through a single English-analyzed composite field.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = keyword.Name
	indexMapping.StoreDynamic = true
	indexMapping.IndexDynamic = true
	indexMapping.DocValuesDynamic = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.Dynamic = true

	// Composite text - searchable, not stored
	allTextFieldMapping := bleve.NewTextFieldMapping()
	allTextFieldMapping.Analyzer = en.AnalyzerName
	allTextFieldMapping.Store = false
	allTextFieldMapping.IncludeTermVectors = false
	allTextFieldMapping.DocValues = false
	docMapping.AddFieldMappingsAt(fieldAllText, allTextFieldMapping)

	// ID - exact, stored
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	idFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	indexMapping.DefaultMapping = docMapping

	return indexMapping
}
