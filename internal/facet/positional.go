package facet

import "github.com/listenupapp/exhibit-server/internal/domain"

// Payload positions used by the positional rule set.
const (
	posTheme = iota
	posSubtheme
	posCollection
	posOralHistory
)

// Positional reads theme, subtheme and collection from fixed payload positions
// and takes the first subject tag as the grantee.
type Positional struct{}

// Name implements Strategy.
func (Positional) Name() string { return StrategyPositional }

// Derive implements Strategy.
func (Positional) Derive(item *domain.RawItem) Facets {
	subjects := item.Subjects()
	if len(subjects) == 0 {
		return Facets{}
	}

	f := Facets{
		Curated: CuratedCollections(subjects),
		Grantee: subjects[0],
	}

	if v, ok := at(f.Curated, posTheme); ok {
		f.Themes = []string{v}
	}
	if v, ok := at(f.Curated, posSubtheme); ok {
		f.Subthemes = []string{v}
	}
	if v, ok := at(f.Curated, posCollection); ok {
		f.Collection = v
	}
	if v, ok := at(f.Curated, posOralHistory); ok {
		f.OralHistory = []string{v}
	}

	if grants := grantTags(subjects); len(grants) > 0 {
		f.Grants = grants[:1]
	}

	return f
}

func at(values []string, i int) (string, bool) {
	if i < len(values) {
		return values[i], true
	}
	return "", false
}
