// Package facet classifies subject tags into the exhibit's browse facets.
//
// Two rule sets have been used for the exhibit over time. They produce different
// document shapes, so a deployment picks exactly one at startup:
//
//   - Structured: curated-collection payloads are classified against controlled
//     vocabularies (themes, subthemes, collection names, grantees).
//   - Positional: payload positions 0/1/2 are taken as theme, subtheme and collection.
package facet

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/listenupapp/exhibit-server/internal/domain"
)

// Tag conventions used by the repository's subject field.
const (
	CuratedCollectionPrefix = "Curated collection"
	curatedDelimiter        = "--"
	grantPrefix             = "Grant"
)

// Strategy names accepted in configuration.
const (
	StrategyStructured = "structured"
	StrategyPositional = "positional"
)

// Facets is the set of values derived from an item's subject tags.
// Empty fields mean the facet is absent for the item.
type Facets struct {
	Curated     []string
	Themes      []string
	Subthemes   []string
	Collection  string
	OralHistory []string
	Grantee     string
	Grants      []string
}

// Strategy derives facets from an item.
type Strategy interface {
	Name() string
	Derive(item *domain.RawItem) Facets
}

// New returns the strategy registered under name.
func New(name string, vocab *Vocabulary) (Strategy, error) {
	switch strings.ToLower(name) {
	case "", StrategyStructured:
		if vocab == nil {
			return nil, fmt.Errorf("structured facet strategy requires a vocabulary")
		}
		return &Structured{Vocab: vocab}, nil
	case StrategyPositional:
		return Positional{}, nil
	default:
		return nil, fmt.Errorf("unknown facet strategy %q (must be %s or %s)", name, StrategyStructured, StrategyPositional)
	}
}

// CuratedCollections extracts the payload segments of every curated-collection tag,
// in tag order. "Curated collection--education--disability" yields
// ["education", "disability"].
func CuratedCollections(subjects []string) []string {
	var out []string
	for _, s := range subjects {
		if !strings.HasPrefix(s, CuratedCollectionPrefix) {
			continue
		}
		parts := strings.Split(s, curatedDelimiter)
		for _, p := range parts[1:] {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// grantTags returns subject tags that name a grant.
func grantTags(subjects []string) []string {
	var out []string
	for _, s := range subjects {
		if strings.HasPrefix(s, grantPrefix) {
			out = append(out, s)
		}
	}
	return out
}

// underOralHistories reports whether the item is a container record filed under
// the oral histories collection. Only those records name their interviewees.
func underOralHistories(item *domain.RawItem) bool {
	v, ok := SubcollectionType(item).Get()
	return ok && v == domain.SubcollectionOral
}

// isGrantTitle reports whether a title names a grant ("Grant 456: ...") rather than
// a grantee. "Grant" must be a whole word, so "Grantee: Example Org" does not count.
func isGrantTitle(title string) bool {
	rest, ok := strings.CutPrefix(title, grantPrefix)
	if !ok {
		return false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return rest == "" || !unicode.IsLetter(r)
}

// SubcollectionType classifies a container record by its outermost ancestor title.
// Non-container records get an explicit null; containers with no recognised ancestor
// get nothing at all.
func SubcollectionType(item *domain.RawItem) domain.Optional {
	if !item.IsContainer() {
		return domain.Null()
	}

	ancestors := item.AncestorTitles()
	if len(ancestors) == 0 {
		return domain.Absent()
	}
	root := strings.ToLower(ancestors[len(ancestors)-1])

	switch {
	case strings.Contains(root, "grant documentation"):
		titles := item.Titles()
		if len(titles) > 0 && isGrantTitle(titles[0]) {
			return domain.Some(domain.SubcollectionGrant)
		}
		return domain.Some(domain.SubcollectionGrantee)
	case strings.Contains(root, "oral histories"):
		return domain.Some(domain.SubcollectionOral)
	case strings.Contains(root, "publications"):
		return domain.Some(domain.SubcollectionPublications)
	default:
		return domain.Absent()
	}
}
