// Package models defines core data structures for documents, sections, queries, and search results.
package models

import "strings"

// Document represents one loaded corpus file and its parsed sections.
// Documents are created at load time and immutable thereafter; a corpus
// change replaces the whole set rather than patching individual documents.
type Document struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Path     string     `json:"path,omitempty"`
	Sections []*Section `json:"sections"`
}

// Section is one headed region of a document. Ord is the section's position
// within its document (0-based) and doubles as its identifier in postings.
// Depth is taken verbatim from the heading marker; the implicit root section
// (content before the first heading) has depth 0.
type Section struct {
	Doc   *Document `json:"-"`
	Ord   int       `json:"ord"`
	Title string    `json:"title"`
	Depth int       `json:"depth"`
	Lines []string  `json:"lines"`
}

// Text returns the section's content with its original line breaks.
// Heading lines are never part of a section's lines, so concatenating
// Text over all sections yields the document minus its heading markers.
func (s *Section) Text() string {
	return strings.Join(s.Lines, "\n")
}

// SectionByOrd returns the section with the given ordinal, or nil.
func (d *Document) SectionByOrd(ord int) *Section {
	if ord < 0 || ord >= len(d.Sections) {
		return nil
	}
	return d.Sections[ord]
}
