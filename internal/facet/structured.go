package facet

import "github.com/listenupapp/exhibit-server/internal/domain"

// Structured classifies curated-collection payloads against controlled vocabularies.
type Structured struct {
	Vocab *Vocabulary
}

// Name implements Strategy.
func (s *Structured) Name() string { return StrategyStructured }

// Derive implements Strategy.
func (s *Structured) Derive(item *domain.RawItem) Facets {
	subjects := item.Subjects()
	if len(subjects) == 0 {
		return Facets{}
	}

	f := Facets{
		Curated: CuratedCollections(subjects),
		Grants:  grantTags(subjects),
	}

	for _, c := range f.Curated {
		switch {
		case s.Vocab.IsTheme(c):
			f.Themes = append(f.Themes, c)
		case s.Vocab.IsSubtheme(c):
			f.Subthemes = append(f.Subthemes, c)
		case s.Vocab.IsCollection(c):
			if f.Collection == "" {
				f.Collection = c
			}
		}
	}

	if underOralHistories(item) {
		for _, c := range f.Curated {
			if !s.Vocab.IsKnown(c) {
				f.OralHistory = append(f.OralHistory, c)
			}
		}
	}

	for _, subject := range subjects {
		if s.Vocab.IsGrantee(subject) {
			f.Grantee = subject
			break
		}
	}

	return f
}
