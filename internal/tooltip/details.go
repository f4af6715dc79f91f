package tooltip

import (
	"context"
	"fmt"

	"github.com/listenupapp/exhibit-server/internal/domain"
	"github.com/listenupapp/exhibit-server/internal/search"
)

// Collection names that have show-page details.
const (
	CollectionGrantDocumentation = "Grant documentation"
	CollectionOralHistories      = "Oral histories"
)

// GrantDetails describes the grant and grantee a grant document belongs to.
type GrantDetails struct {
	GranteeName        string `json:"grantee_name,omitempty"`
	GranteeDescription string `json:"grantee_description,omitempty"`
	GrantNumber        string `json:"grant_number,omitempty"`
	GrantDescription   string `json:"grant_description,omitempty"`
}

// Details are the extra descriptions shown alongside a single document.
type Details struct {
	Grant       *GrantDetails `json:"grant,omitempty"`
	OralHistory string        `json:"oral_history,omitempty"`
}

// LoadDetails looks up the grantee, grant or oral history description for doc
// depending on which collection it belongs to. Returns nil when doc is in neither.
func LoadDetails(ctx context.Context, s Searcher, doc *domain.IndexDocument) (*Details, error) {
	switch doc.First(domain.FieldCollectionText) {
	case CollectionGrantDocumentation:
		g := &GrantDetails{}

		if grantee := doc.Get(domain.FieldGranteeText); len(grantee) > 0 {
			d, ok, err := describedBy(ctx, s, domain.SubcollectionGrantee, domain.FieldSubjectText, grantee)
			if err != nil {
				return nil, err
			}
			if ok {
				g.GranteeName = grantee[0]
				g.GranteeDescription = d
			}
		}

		if grant := doc.Get(domain.FieldGrantText); len(grant) > 0 {
			d, ok, err := describedBy(ctx, s, domain.SubcollectionGrant, domain.FieldTitleText, grant)
			if err != nil {
				return nil, err
			}
			if ok {
				g.GrantNumber = grant[0]
				g.GrantDescription = d
			}
		}

		return &Details{Grant: g}, nil

	case CollectionOralHistories:
		oral := doc.Get(domain.FieldOralHistoryText)
		if len(oral) == 0 {
			return &Details{}, nil
		}
		d, _, err := describedBy(ctx, s, domain.SubcollectionOral, domain.FieldTitleText, oral)
		if err != nil {
			return nil, err
		}
		return &Details{OralHistory: d}, nil

	default:
		return nil, nil
	}
}

// describedBy finds the first container of the given type whose field holds any of
// values and returns its description.
func describedBy(ctx context.Context, s Searcher, kind, field string, values []string) (string, bool, error) {
	res, err := s.Search(ctx, search.Query{
		Filters: []search.Filter{
			{Field: domain.FieldSubcollectionType, Values: []string{kind}},
			{Field: field, Values: values},
		},
		Rows: 1,
	})
	if err != nil {
		return "", false, fmt.Errorf("look up %s description: %w", kind, err)
	}
	if len(res.Docs) == 0 {
		return "", false, nil
	}
	return Description(res.Docs[0]), true, nil
}
