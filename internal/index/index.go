// Package index builds and queries the inverted section index.
//
// An Index is immutable after Build returns: readers share it without
// locking, and a corpus change produces a whole new Index that replaces the
// active one via Holder. Stale postings are never patched in place.
package index

import (
	"sort"

	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/internal/token"
)

// Posting links a term to one section and the term's frequency there.
// Uniqueness is per (term, doc, section); Section is the section's ordinal
// within its document.
type Posting struct {
	DocID   string
	Section int
	Freq    int
}

// TermEntry pairs a term with its postings, used for deterministic
// serialization and iteration.
type TermEntry struct {
	Term     string
	Postings []Posting
}

// Index is the inverted mapping from terms to postings. Postings for each
// term are kept sorted by (DocID, Section) so every enumeration of the index
// is deterministic.
type Index struct {
	terms        map[string][]Posting
	docCount     int
	sectionCount int
}

// Build tokenizes every section of every document with the given analyzer
// and accumulates postings. Rebuilding from identical input yields an index
// whose serialized form is byte-identical. An empty corpus yields an empty
// index, not an error.
func Build(docs []*models.Document, an *token.Analyzer) *Index {
	idx := &Index{terms: make(map[string][]Posting)}
	acc := make(map[string]map[postingKey]int)
	docSeen := make(map[string]struct{})

	for _, doc := range docs {
		docSeen[doc.ID] = struct{}{}
		for _, sec := range doc.Sections {
			idx.sectionCount++
			for _, term := range an.Terms(sec.Text()) {
				byLoc, ok := acc[term]
				if !ok {
					byLoc = make(map[postingKey]int)
					acc[term] = byLoc
				}
				byLoc[postingKey{doc.ID, sec.Ord}]++
			}
		}
	}
	idx.docCount = len(docSeen)

	for term, byLoc := range acc {
		postings := make([]Posting, 0, len(byLoc))
		for loc, freq := range byLoc {
			postings = append(postings, Posting{DocID: loc.docID, Section: loc.section, Freq: freq})
		}
		sortPostings(postings)
		idx.terms[term] = postings
	}
	return idx
}

type postingKey struct {
	docID   string
	section int
}

// Postings returns the postings for term, or nil when the term is absent.
// The returned slice is shared and must not be mutated.
func (idx *Index) Postings(term string) []Posting {
	return idx.terms[term]
}

// Terms returns every indexed term in lexical order.
func (idx *Index) Terms() []string {
	terms := make([]string, 0, len(idx.terms))
	for t := range idx.terms {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// TermDocFreq returns the number of sections containing term. Used by the
// spell suggester to prefer common terms.
func (idx *Index) TermDocFreq(term string) int {
	return len(idx.terms[term])
}

// Snapshot returns all entries sorted by term, each with postings sorted by
// (DocID, Section). This is the canonical enumeration order for
// serialization and equality checks.
func (idx *Index) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(idx.terms))
	for _, term := range idx.Terms() {
		entries = append(entries, TermEntry{Term: term, Postings: idx.terms[term]})
	}
	return entries
}

// TermCount returns the number of distinct terms.
func (idx *Index) TermCount() int { return len(idx.terms) }

// DocCount returns the number of documents the index was built from.
func (idx *Index) DocCount() int { return idx.docCount }

// SectionCount returns the number of sections the index was built from.
func (idx *Index) SectionCount() int { return idx.sectionCount }

func sortPostings(postings []Posting) {
	sort.Slice(postings, func(i, j int) bool {
		if postings[i].DocID != postings[j].DocID {
			return postings[i].DocID < postings[j].DocID
		}
		return postings[i].Section < postings[j].Section
	})
}
