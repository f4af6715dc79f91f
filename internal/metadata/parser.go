// Package metadata turns a repository object's label/value metadata into the
// display fields stored alongside each index document.
package metadata

import (
	"regexp"
	"strings"

	"github.com/listenupapp/exhibit-server/internal/domain"
	"github.com/listenupapp/exhibit-server/internal/facet"
)

// Descriptive fields, in output order. Each has a derivation rule below.
var descriptiveFields = []string{
	"description",
	"doi",
	"creator",
	"subject",
	"grantee",
	"grant",
	"oral_history",
	"theme",
	"subtheme",
	"collection",
	"geographical_coverage",
	"temporal_coverage",
	"type",
	"attribution",
	"rights",
	"license",
}

// facetFields are owned by the facet strategy: a raw entry under the same label
// never survives when the strategy derives nothing.
var facetFields = map[string]bool{
	"grantee":      true,
	"grant":        true,
	"theme":        true,
	"subtheme":     true,
	"collection":   true,
	"oral_history": true,
}

// dcmiName extracts the name component of a DCMI encoded value ("name=Dublin; east=...").
var dcmiName = regexp.MustCompile(`(?i)^name=(.+?);`)

// Parser builds FieldMaps using a fixed facet strategy.
type Parser struct {
	strategy facet.Strategy
}

// NewParser creates a Parser. Facet-derived fields come from strategy.
func NewParser(strategy facet.Strategy) *Parser {
	return &Parser{strategy: strategy}
}

// Parse builds the FieldMap for item. It never fails; missing or malformed
// sections simply produce no output for the affected fields.
func (p *Parser) Parse(item *domain.RawItem) *FieldMap {
	out := NewFieldMap()
	if item == nil {
		return out
	}

	for _, entry := range item.Metadata {
		out.Append(entry.Label, entry.Value...)
	}

	facets := p.strategy.Derive(item)
	for _, name := range descriptiveFields {
		values, ok := p.derive(name, item, facets)
		if !ok {
			if facetFields[name] {
				out.Delete(Label(name))
			}
			continue
		}
		out.Set(Label(name), values...)
	}

	return out
}

// derive returns the values for a descriptive field. ok is false when the rule
// produced nothing.
func (p *Parser) derive(name string, item *domain.RawItem, f facet.Facets) ([]string, bool) {
	var values []string
	switch name {
	case "attribution":
		values = Attribution(item)
	case "doi":
		if doi := DOI(item); doi != "" {
			values = []string{doi}
		}
	case "temporal_coverage", "geographical_coverage":
		values = Coverage(item.Field(name))
	case "grantee":
		values = single(f.Grantee)
	case "grant":
		values = f.Grants
	case "theme":
		values = f.Themes
	case "subtheme":
		values = f.Subthemes
	case "collection":
		values = single(f.Collection)
	case "oral_history":
		values = f.OralHistory
	default:
		values = item.Field(name)
	}
	return values, len(values) > 0
}

// Label returns the display label for a field name: the name with its first letter upper-cased.
func Label(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Attribution returns the names of every institute, depositing or not.
func Attribution(item *domain.RawItem) []string {
	var names []string
	for _, inst := range item.Institutes {
		if inst.Name != "" {
			names = append(names, inst.Name)
		}
	}
	return names
}

// DOI returns the URL of the first DOI entry, or "".
func DOI(item *domain.RawItem) string {
	if len(item.DOI) == 0 {
		return ""
	}
	return item.DOI[0].URL
}

// Coverage extracts the name of each DCMI encoded coverage value.
// Values that are not DCMI encoded pass through unchanged.
func Coverage(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, DCMIName(v))
	}
	return out
}

// DCMIName returns the name= component of value, or value itself when absent.
func DCMIName(value string) string {
	if m := dcmiName.FindStringSubmatch(value); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	return value
}

func single(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}
