package suggest

import "sort"

// TermSource provides the term dictionary suggestions are drawn from.
// *index.Index satisfies it.
type TermSource interface {
	Terms() []string
	TermDocFreq(term string) int
}

// Suggester proposes replacement terms for query words that match nothing.
type Suggester struct {
	maxDistance    int
	maxSuggestions int
}

// Option configures a Suggester.
type Option func(*Suggester)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) Option {
	return func(s *Suggester) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMaxSuggestions caps how many suggestions are returned per term.
func WithMaxSuggestions(n int) Option {
	return func(s *Suggester) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// New returns a Suggester with edit distance 2 and up to 3 suggestions
// per term unless overridden.
func New(opts ...Option) *Suggester {
	s := &Suggester{maxDistance: 2, maxSuggestions: 3}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest returns indexed terms within the edit-distance budget of term,
// closest first, ties broken by higher section frequency then lexical order.
// Returns nil when the term itself is indexed or nothing is close enough.
func (s *Suggester) Suggest(term string, src TermSource) []string {
	if term == "" || src.TermDocFreq(term) > 0 {
		return nil
	}
	type candidate struct {
		term string
		dist int
		freq int
	}
	var candidates []candidate
	for _, t := range src.Terms() {
		// Length difference is a cheap lower bound on edit distance.
		if diff := len(t) - len(term); diff > s.maxDistance || -diff > s.maxDistance {
			continue
		}
		if d := Levenshtein(term, t); d <= s.maxDistance {
			candidates = append(candidates, candidate{term: t, dist: d, freq: src.TermDocFreq(t)})
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		if candidates[i].freq != candidates[j].freq {
			return candidates[i].freq > candidates[j].freq
		}
		return candidates[i].term < candidates[j].term
	})
	if len(candidates) > s.maxSuggestions {
		candidates = candidates[:s.maxSuggestions]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.term
	}
	return out
}
