// Package token provides text tokenization shared by index construction and
// query evaluation. Both sides must normalize identically or lookups miss.
package token

import (
	"strings"
	"unicode"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Analyzer turns raw text into normalized terms. Stopword filtering is
// optional and off by default; the zero value is ready to use.
type Analyzer struct {
	filterStopwords bool
}

// NewAnalyzer returns an analyzer. When filterStopwords is true, common
// English function words are dropped from the term stream.
func NewAnalyzer(filterStopwords bool) *Analyzer {
	return &Analyzer{filterStopwords: filterStopwords}
}

// Terms splits text on whitespace/punctuation boundaries and lowercases each
// word. Terms are never empty. No stemming is applied, so a term's posting
// frequency always equals its literal occurrence count.
func (a *Analyzer) Terms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if a == nil || !a.filterStopwords {
		return words
	}
	terms := words[:0]
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}

// Unique returns terms deduplicated, preserving first-occurrence order.
// Used for query evaluation where each distinct term is looked up once.
func Unique(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
