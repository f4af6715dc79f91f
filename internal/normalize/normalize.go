// Package normalize provides utilities for normalizing and sanitizing metadata values.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// Matches any run of non-alphanumeric characters.
var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a label to a lowercase identifier joined by sep.
// "Geographical Coverage" -> "geographical_coverage" (sep "_").
// "Príomhábhar" -> "priomhabhar".
func Slug(s, sep string) string {
	// Decompose accented characters, then drop what isn't ASCII.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, sep)
	return strings.Trim(s, sep)
}

// CustomField returns the index field name for a custom metadata label.
// "Date Created" -> "readonly_date_created_tesim".
// Returns "" when the label has no usable characters.
func CustomField(label string) string {
	slug := Slug(label, "_")
	if slug == "" {
		return ""
	}
	return "readonly_" + slug + "_tesim"
}

// Text trims whitespace and collapses internal runs of whitespace to single spaces.
func Text(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ContainsHTML reports whether s contains at least one known HTML element tag.
// Angle brackets in prose ("a < b", "<unknown>") do not count.
func ContainsHTML(s string) bool {
	if !strings.Contains(s, "<") {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) != 0 {
				return true
			}
		}
	}
}

// Description converts an HTML description to Markdown.
// Plain text is returned trimmed. If conversion fails the original string is returned.
func Description(s string) string {
	if s == "" || !ContainsHTML(s) {
		return strings.TrimSpace(s)
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}
