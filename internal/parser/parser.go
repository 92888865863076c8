// Package parser splits raw document text into headed sections.
package parser

import (
	"strings"

	"github.com/hyperjump/sakuin/internal/models"
)

// Parse splits raw text into ordered sections on ATX-style heading markers
// ("#", "##", ...). Depth is the marker length, taken verbatim; malformed
// hierarchies (e.g. "#" followed by "####") are accepted as-is. Lines before
// the first heading become an implicit root section titled with the document
// ID at depth 0; a document that opens with a heading has no root section.
// An empty document yields a single empty root section.
//
// Heading lines are consumed as section boundaries and never appear in any
// section's lines, so joining all sections' text reproduces the document
// with only the heading lines removed.
func Parse(doc *models.Document, raw string) []*models.Section {
	lines := strings.Split(raw, "\n")
	sections := make([]*models.Section, 0, 4)
	emit := func(s *models.Section) {
		s.Ord = len(sections)
		sections = append(sections, s)
	}

	cur := &models.Section{Doc: doc, Title: doc.ID, Depth: 0}
	root := true
	for _, line := range lines {
		depth, title, ok := heading(line)
		if !ok {
			cur.Lines = append(cur.Lines, line)
			continue
		}
		if !root || len(cur.Lines) > 0 {
			emit(cur)
		}
		cur = &models.Section{Doc: doc, Title: title, Depth: depth}
		root = false
	}
	emit(cur)
	return sections
}

// heading reports whether line is a heading marker line, returning its depth
// (number of leading '#') and title. A marker must be followed by a space,
// tab, or end of line; "#hashtag" is content, not a heading.
func heading(line string) (depth int, title string, ok bool) {
	i := 0
	for i < len(line) && line[i] == '#' {
		i++
	}
	if i == 0 {
		return 0, "", false
	}
	if i < len(line) && line[i] != ' ' && line[i] != '\t' {
		return 0, "", false
	}
	return i, strings.TrimSpace(line[i:]), true
}
