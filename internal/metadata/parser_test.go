package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/exhibit-server/internal/domain"
	"github.com/listenupapp/exhibit-server/internal/facet"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	vocab, err := facet.DefaultVocabulary()
	require.NoError(t, err)
	return NewParser(&facet.Structured{Vocab: vocab})
}

func sampleItem() *domain.RawItem {
	return &domain.RawItem{
		ID: "a1b2c3",
		Metadata: []domain.MetadataEntry{
			{Label: "Title", Value: domain.Values{"Annual report 2009"}},
			{Label: "Creator", Value: domain.Values{"Smith, Jane"}},
			{Label: "Creator", Value: domain.Values{"Doe, John"}},
			{Label: "creator", Value: domain.Values{"lowercase label"}},
			{Label: "Empty", Value: nil},
		},
		Fields: map[string]domain.Values{
			"description":       {"<p>A report.</p>"},
			"creator":           {"Smith, Jane", "Doe, John"},
			"subject":           {"Curated collection--education--disability--Grant Documentation", "Grant 123", "AkiDwA"},
			"temporal_coverage": {"name=2009; start=2009-01-01; end=2009-12-31;", "1990s"},
			"type":              {"Text"},
		},
		Institutes: []domain.Institute{
			{Name: "Cornell University Library", Depositing: true},
			{Name: "The Atlantic Philanthropies"},
		},
		DOI: []domain.DOIEntry{{URL: "10.7486/DRI.abc"}, {URL: "10.7486/DRI.def"}},
	}
}

func TestParse(t *testing.T) {
	m := newParser(t).Parse(sampleItem())

	assert.Equal(t, []string{"Annual report 2009"}, m.Get("Title"))
	assert.Equal(t, []string{"Smith, Jane", "Doe, John"}, m.Get("Creator"))
	assert.Equal(t, []string{"lowercase label"}, m.Get("creator"), "labels are not case folded")
	assert.False(t, m.Has("Empty"))

	assert.Equal(t, []string{"<p>A report.</p>"}, m.Get("Description"))
	assert.Equal(t, []string{"10.7486/DRI.abc"}, m.Get("Doi"))
	assert.Equal(t, []string{"AkiDwA"}, m.Get("Grantee"))
	assert.Equal(t, []string{"Grant 123"}, m.Get("Grant"))
	assert.Equal(t, []string{"education"}, m.Get("Theme"))
	assert.Equal(t, []string{"disability"}, m.Get("Subtheme"))
	assert.Equal(t, []string{"Grant Documentation"}, m.Get("Collection"))
	assert.Equal(t, []string{"2009", "1990s"}, m.Get("Temporal_coverage"))
	assert.Equal(t, []string{"Cornell University Library", "The Atlantic Philanthropies"}, m.Get("Attribution"))

	assert.False(t, m.Has("Oral_history"))
	assert.False(t, m.Has("Geographical_coverage"))
	assert.False(t, m.Has("Rights"))

	for _, k := range m.Keys() {
		assert.NotEmpty(t, m.Get(k), "label %q must not be stored empty", k)
	}
}

func TestParse_KeyOrder(t *testing.T) {
	m := newParser(t).Parse(sampleItem())

	assert.Equal(t, []string{
		"Title", "Creator", "creator",
		"Description", "Doi", "Subject", "Grantee", "Grant", "Theme", "Subtheme",
		"Collection", "Temporal_coverage", "Type", "Attribution",
	}, m.Keys())
}

func TestParse_MissingSections(t *testing.T) {
	p := newParser(t)

	m := p.Parse(&domain.RawItem{ID: "x"})
	assert.Equal(t, 0, m.Len())

	m = p.Parse(nil)
	assert.Equal(t, 0, m.Len())

	m = p.Parse(&domain.RawItem{ID: "x", DOI: []domain.DOIEntry{{}}})
	assert.False(t, m.Has("Doi"))
}

func TestParse_FacetFieldsWithoutDerivationAreOmitted(t *testing.T) {
	item := &domain.RawItem{
		ID: "x",
		Metadata: []domain.MetadataEntry{
			{Label: "Grantee", Value: domain.Values{"Raw grantee"}},
			{Label: "Oral_history", Value: domain.Values{"Raw interviewee"}},
			{Label: "Rights", Value: domain.Values{"CC-BY"}},
		},
		Fields: map[string]domain.Values{"subject": {"Reports"}},
	}

	m := newParser(t).Parse(item)

	assert.False(t, m.Has("Grantee"))
	assert.False(t, m.Has("Oral_history"))
	assert.Equal(t, []string{"CC-BY"}, m.Get("Rights"), "non-facet fields keep the naive copy")
}

func TestParse_Positional(t *testing.T) {
	m := NewParser(facet.Positional{}).Parse(sampleItem())

	assert.Equal(t, []string{"Curated collection--education--disability--Grant Documentation"}, m.Get("Grantee"))
	assert.Equal(t, []string{"education"}, m.Get("Theme"))
	assert.Equal(t, []string{"disability"}, m.Get("Subtheme"))
}

func TestDCMIName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"name=Dublin; other=ignored", "Dublin"},
		{"NAME=Belfast;", "Belfast"},
		{"Dublin", "Dublin"},
		{"name=Dublin", "name=Dublin"},
		{"east=-6.2; name=Cork;", "east=-6.2; name=Cork;"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DCMIName(tt.in))
		})
	}
}

func TestFieldMap(t *testing.T) {
	m := NewFieldMap()
	m.Append("A", "1")
	m.Append("B", "", "")
	m.Append("A", "2")
	m.Set("C", "3")
	m.Set("A")

	assert.Equal(t, []string{"C"}, m.Keys())
	assert.Equal(t, map[string][]string{"C": {"3"}}, m.Map())
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Geographical_coverage", Label("geographical_coverage"))
	assert.Equal(t, "", Label(""))
}
