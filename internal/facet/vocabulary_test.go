package facet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultVocabulary(t *testing.T) {
	v, err := DefaultVocabulary()
	require.NoError(t, err)

	assert.True(t, v.IsTheme("Education"))
	assert.True(t, v.IsSubtheme("LGBTQ people"))
	assert.True(t, v.IsCollection("Oral Histories"))
	assert.True(t, v.IsGrantee("AkiDwA"))
	assert.False(t, v.IsKnown("AkiDwA"))

	desc, ok := v.CollectionDescription("Publications")
	assert.True(t, ok)
	assert.Contains(t, desc, "reports commissioned")

	_, ok = v.CollectionDescription("publications")
	assert.False(t, ok, "description lookup is exact")
}

func TestParseVocabulary_RejectsOverlap(t *testing.T) {
	_, err := ParseVocabulary([]byte(`
themes: [education]
subthemes: [Education]
collections: [oral histories]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appears in both themes and subthemes")
}

func TestParseVocabulary_RejectsBlank(t *testing.T) {
	_, err := ParseVocabulary([]byte("themes: ['  ']\ngrantees: ['']\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "themes: blank term")
	assert.Contains(t, err.Error(), "grantees: blank term")
}

func TestLoadVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("themes: [arts]\ncollections: [archive]\n"), 0o600))

	v, err := LoadVocabulary(path)
	require.NoError(t, err)
	assert.True(t, v.IsTheme("arts"))
	assert.False(t, v.IsTheme("education"))

	_, err = LoadVocabulary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	v, err = LoadVocabulary("")
	require.NoError(t, err)
	assert.True(t, v.IsTheme("education"))
}
