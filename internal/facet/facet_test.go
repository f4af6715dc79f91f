package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/exhibit-server/internal/domain"
)

func itemWith(fields map[string]domain.Values) *domain.RawItem {
	return &domain.RawItem{ID: "abc123", Fields: fields}
}

func defaultVocab(t *testing.T) *Vocabulary {
	t.Helper()
	v, err := DefaultVocabulary()
	require.NoError(t, err)
	return v
}

func TestCuratedCollections(t *testing.T) {
	got := CuratedCollections([]string{
		"Curated collection--education--disability",
		"Grant 123",
		"Curated collection--Oral histories",
		"Curated collection",
	})
	assert.Equal(t, []string{"education", "disability", "Oral histories"}, got)
}

func TestCuratedCollections_NoneMatching(t *testing.T) {
	assert.Empty(t, CuratedCollections([]string{"Education", "Grant 99"}))
}

func TestStructured_Derive(t *testing.T) {
	s := &Structured{Vocab: defaultVocab(t)}

	f := s.Derive(itemWith(map[string]domain.Values{
		"subject": {"Curated collection--education--disability--Grant Documentation", "Grant 123"},
	}))

	assert.Equal(t, []string{"education"}, f.Themes)
	assert.Equal(t, []string{"disability"}, f.Subthemes)
	assert.Equal(t, "Grant Documentation", f.Collection)
	assert.Equal(t, []string{"Grant 123"}, f.Grants)
	assert.Empty(t, f.OralHistory)
	assert.Empty(t, f.Grantee)
}

func TestStructured_Grantee(t *testing.T) {
	s := &Structured{Vocab: defaultVocab(t)}

	f := s.Derive(itemWith(map[string]domain.Values{
		"subject": {"Reports", "Irish Penal Reform Trust", "AkiDwA"},
	}))

	assert.Equal(t, "Irish Penal Reform Trust", f.Grantee)
}

func TestStructured_OralHistories(t *testing.T) {
	s := &Structured{Vocab: defaultVocab(t)}

	tests := []struct {
		name   string
		fields map[string]domain.Values
		want   []string
	}{
		{
			name: "container under oral histories",
			fields: map[string]domain.Values{
				"type":           {"Collection"},
				"subject":        {"Curated collection--human rights--John Murphy"},
				"ancestor_title": {"Interviews", "Atlantic Philanthropies Oral Histories"},
			},
			want: []string{"John Murphy"},
		},
		{
			name: "non-container under oral histories",
			fields: map[string]domain.Values{
				"type":           {"Sound"},
				"subject":        {"Curated collection--John Murphy"},
				"ancestor_title": {"Interviews", "Atlantic Philanthropies Oral Histories"},
			},
		},
		{
			name: "container tagged oral histories without ancestor",
			fields: map[string]domain.Values{
				"type":    {"Collection"},
				"subject": {"Curated collection--Oral histories--John Murphy"},
			},
		},
		{
			name: "container under another collection",
			fields: map[string]domain.Values{
				"type":           {"Collection"},
				"subject":        {"Curated collection--John Murphy"},
				"ancestor_title": {"Grant Documentation"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := s.Derive(itemWith(tt.fields))
			assert.Equal(t, tt.want, f.OralHistory)
		})
	}

	t.Run("collection and themes still derived", func(t *testing.T) {
		f := s.Derive(itemWith(map[string]domain.Values{
			"subject": {"Curated collection--Oral histories--human rights--Mary Smith"},
		}))
		assert.Equal(t, "Oral histories", f.Collection)
		assert.Equal(t, []string{"human rights"}, f.Themes)
		assert.Empty(t, f.OralHistory)
	})
}

func TestStructured_NoSubjects(t *testing.T) {
	s := &Structured{Vocab: defaultVocab(t)}
	assert.Equal(t, Facets{}, s.Derive(itemWith(nil)))
}

func TestPositional_Derive(t *testing.T) {
	f := Positional{}.Derive(itemWith(map[string]domain.Values{
		"subject": {
			"Glencree Centre for Reconciliation",
			"Curated collection--communities--reconciliation--Grant documentation",
			"Grant 42",
			"Grant 43",
		},
	}))

	assert.Equal(t, "Glencree Centre for Reconciliation", f.Grantee)
	assert.Equal(t, []string{"communities"}, f.Themes)
	assert.Equal(t, []string{"reconciliation"}, f.Subthemes)
	assert.Equal(t, "Grant documentation", f.Collection)
	assert.Empty(t, f.OralHistory)
	assert.Equal(t, []string{"Grant 42"}, f.Grants)
}

func TestPositional_ShortPayload(t *testing.T) {
	f := Positional{}.Derive(itemWith(map[string]domain.Values{
		"subject": {"Curated collection--education"},
	}))

	assert.Equal(t, []string{"education"}, f.Themes)
	assert.Empty(t, f.Subthemes)
	assert.Empty(t, f.Collection)
	assert.Empty(t, f.Grants)
}

func TestNew(t *testing.T) {
	vocab := defaultVocab(t)

	s, err := New("", vocab)
	require.NoError(t, err)
	assert.Equal(t, StrategyStructured, s.Name())

	s, err = New("Positional", nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyPositional, s.Name())

	_, err = New("structured", nil)
	assert.Error(t, err)

	_, err = New("alphabetical", vocab)
	assert.Error(t, err)
}

func TestSubcollectionType(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]domain.Values
		want   domain.Optional
	}{
		{
			name:   "non-container is null",
			fields: map[string]domain.Values{"type": {"Text"}},
			want:   domain.Null(),
		},
		{
			name:   "collection plus another type is not a container",
			fields: map[string]domain.Values{"type": {"Collection", "Text"}},
			want:   domain.Null(),
		},
		{
			name: "grant folder",
			fields: map[string]domain.Values{
				"type":           {"Collection"},
				"title":          {"Grant 19823: Capacity building"},
				"ancestor_title": {"Glen", "Grant documentation"},
			},
			want: domain.Some(domain.SubcollectionGrant),
		},
		{
			name: "grantee folder",
			fields: map[string]domain.Values{
				"type":           {"Collection"},
				"title":          {"GLEN (Organisation)"},
				"ancestor_title": {"Grant documentation"},
			},
			want: domain.Some(domain.SubcollectionGrantee),
		},
		{
			name: "grantee whose title starts with Grant",
			fields: map[string]domain.Values{
				"type":           {"Collection"},
				"title":          {"Grantee: Example Org"},
				"ancestor_title": {"Atlantic Philanthropies", "Grant Documentation"},
			},
			want: domain.Some(domain.SubcollectionGrantee),
		},
		{
			name: "oral history",
			fields: map[string]domain.Values{
				"type":           {"Collection"},
				"title":          {"Interview with Mary Smith"},
				"ancestor_title": {"Oral Histories"},
			},
			want: domain.Some(domain.SubcollectionOral),
		},
		{
			name: "publications",
			fields: map[string]domain.Values{
				"type":           {"Collection"},
				"ancestor_title": {"The Atlantic Philanthropies-Island of Ireland-Publications"},
			},
			want: domain.Some(domain.SubcollectionPublications),
		},
		{
			name:   "container without ancestors",
			fields: map[string]domain.Values{"type": {"Collection"}},
			want:   domain.Absent(),
		},
		{
			name: "container under unrelated root",
			fields: map[string]domain.Values{
				"type":           {"Collection"},
				"ancestor_title": {"Photographs"},
			},
			want: domain.Absent(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SubcollectionType(itemWith(tt.fields)))
		})
	}
}
