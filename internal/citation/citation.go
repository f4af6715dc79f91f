// Package citation formats index documents as repository citations.
package citation

import (
	"html"
	"slices"
	"strings"

	"github.com/listenupapp/exhibit-server/internal/domain"
)

// Distributor is named in every citation.
const Distributor = "Digital Repository of Ireland [Distributor]"

// DOIResolver prefixes document DOIs.
const DOIResolver = "https://doi.org/"

// Format returns the citation for doc as HTML-safe text:
//
//	Authors. Title, Distributor, Institute [Depositing Institution], https://doi.org/<doi>
//
// Parts with no data are left out, except the distributor.
func Format(doc *domain.IndexDocument) string {
	var b strings.Builder

	b.WriteString(joinAuthors(Authors(doc)))
	if b.Len() > 0 {
		if strings.HasSuffix(b.String(), ".") {
			b.WriteString(" ")
		} else {
			b.WriteString(". ")
		}
	}

	for _, t := range doc.Get(domain.FieldTitle) {
		b.WriteString(strings.TrimSpace(trimEndPunctuation(html.EscapeString(t))))
		b.WriteString(", ")
	}

	b.WriteString(Distributor)

	if inst := doc.First(domain.FieldDepositingInstitute); inst != "" {
		b.WriteString(", ")
		b.WriteString(inst)
		b.WriteString(" [Depositing Institution]")
	}

	if doi := doc.First(domain.FieldDOIText); doi != "" {
		b.WriteString(", ")
		b.WriteString(DOILink(doi))
	}

	return b.String()
}

// DOILink returns doi as a resolver URL. Values that are already URLs are kept.
func DOILink(doi string) string {
	if strings.HasPrefix(doi, "https://") || strings.HasPrefix(doi, "http://") {
		return doi
	}
	return DOIResolver + strings.TrimPrefix(doi, "doi:")
}

// Authors returns the escaped, de-duplicated creator names of doc in order.
func Authors(doc *domain.IndexDocument) []string {
	var authors []string
	for _, a := range doc.Get(domain.FieldCreatorText) {
		a = trimEndPunctuation(html.EscapeString(a))
		if strings.TrimSpace(a) == "" || slices.Contains(authors, a) {
			continue
		}
		authors = append(authors, a)
	}
	return authors
}

// joinAuthors renders "A, B, &amp; C".
func joinAuthors(authors []string) string {
	var b strings.Builder
	for i, a := range authors {
		switch {
		case i == 0:
		case i == len(authors)-1:
			b.WriteString(", &amp; ")
		default:
			b.WriteString(", ")
		}
		b.WriteString(strings.TrimSpace(a))
	}
	return b.String()
}

// trimEndPunctuation drops one trailing . , : ; or /.
func trimEndPunctuation(s string) string {
	if s == "" {
		return s
	}
	switch s[len(s)-1] {
	case '.', ',', ':', ';', '/':
		return s[:len(s)-1]
	}
	return s
}
