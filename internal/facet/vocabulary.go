package facet

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// Vocabulary holds the controlled term lists used to classify curated-collection tags.
type Vocabulary struct {
	Themes                 []string          `yaml:"themes"`
	Subthemes              []string          `yaml:"subthemes"`
	Grantees               []string          `yaml:"grantees"`
	Collections            []string          `yaml:"collections"`
	CollectionDescriptions map[string]string `yaml:"collection_descriptions"`

	themes      map[string]bool
	subthemes   map[string]bool
	grantees    map[string]bool
	collections map[string]bool
}

// DefaultVocabulary returns the embedded vocabulary.
func DefaultVocabulary() (*Vocabulary, error) {
	return ParseVocabulary(defaultVocabulary)
}

// LoadVocabulary reads a vocabulary file. An empty path yields the embedded default.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary()
	}
	data, err := os.ReadFile(path) //#nosec G304 -- operator-supplied vocabulary path
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary file: %w", err)
	}
	return ParseVocabulary(data)
}

// ParseVocabulary parses and validates vocabulary YAML.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing vocabulary YAML: %w", err)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	v.index()
	return &v, nil
}

// Validate rejects blank terms and terms that appear in more than one classifying list.
// A term in two lists would make the structured classification ambiguous.
func (v *Vocabulary) Validate() error {
	lists := []struct {
		name  string
		terms []string
	}{
		{"themes", v.Themes},
		{"subthemes", v.Subthemes},
		{"collections", v.Collections},
	}

	var errs []error
	seen := make(map[string]string)
	for _, l := range lists {
		for _, term := range l.terms {
			key := strings.ToLower(strings.TrimSpace(term))
			if key == "" {
				errs = append(errs, fmt.Errorf("%s: blank term", l.name))
				continue
			}
			if prev, ok := seen[key]; ok && prev != l.name {
				errs = append(errs, fmt.Errorf("term %q appears in both %s and %s", term, prev, l.name))
				continue
			}
			seen[key] = l.name
		}
	}
	for _, term := range v.Grantees {
		if strings.TrimSpace(term) == "" {
			errs = append(errs, errors.New("grantees: blank term"))
		}
	}

	return errors.Join(errs...)
}

func (v *Vocabulary) index() {
	v.themes = toSet(v.Themes)
	v.subthemes = toSet(v.Subthemes)
	v.grantees = toSet(v.Grantees)
	v.collections = toSet(v.Collections)
}

func toSet(terms []string) map[string]bool {
	set := make(map[string]bool, len(terms))
	for _, t := range terms {
		set[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return set
}

// IsTheme reports whether value is a theme term.
func (v *Vocabulary) IsTheme(value string) bool { return v.themes[strings.ToLower(value)] }

// IsSubtheme reports whether value is a subtheme term.
func (v *Vocabulary) IsSubtheme(value string) bool { return v.subthemes[strings.ToLower(value)] }

// IsGrantee reports whether value names a known grantee.
func (v *Vocabulary) IsGrantee(value string) bool { return v.grantees[strings.ToLower(value)] }

// IsCollection reports whether value is one of the top-level collection names.
func (v *Vocabulary) IsCollection(value string) bool { return v.collections[strings.ToLower(value)] }

// IsKnown reports whether value belongs to any classifying list.
func (v *Vocabulary) IsKnown(value string) bool {
	return v.IsTheme(value) || v.IsSubtheme(value) || v.IsCollection(value)
}

// CollectionDescription returns the static description for a collection name (exact match).
func (v *Vocabulary) CollectionDescription(name string) (string, bool) {
	d, ok := v.CollectionDescriptions[name]
	return d, ok
}
