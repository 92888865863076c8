// Package search evaluates free-text queries against the active index.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hyperjump/sakuin/internal/config"
	"github.com/hyperjump/sakuin/internal/index"
	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/internal/storage"
	"github.com/hyperjump/sakuin/internal/suggest"
	"github.com/hyperjump/sakuin/internal/token"
	"github.com/hyperjump/sakuin/pkg/utils"
)

// ErrEmptyQuery is returned when a query normalizes to no terms (empty,
// whitespace-only, or punctuation-only input).
var ErrEmptyQuery = errors.New("query is empty after normalization")

// ErrNoIndex is returned when no index has been built or loaded yet.
var ErrNoIndex = errors.New("no index loaded")

// snippetLen bounds the snippet attached to each result.
const snippetLen = 160

// Engine evaluates queries. It is stateless per call: all search state lives
// in the index snapshot loaded from the holder at the start of each call, so
// concurrent rebuilds never affect a query in flight.
type Engine struct {
	holder    *index.Holder
	analyzer  *token.Analyzer
	cfg       *config.SearchConfig
	store     storage.Storage // optional; enriches results with titles/snippets
	suggester *suggest.Suggester
}

// Option configures an Engine.
type Option func(*Engine)

// WithStorage attaches a document store used to enrich results with section
// titles and snippets. Without it, results carry locations and scores only.
func WithStorage(s storage.Storage) Option {
	return func(e *Engine) { e.store = s }
}

// WithSuggester enables "did you mean" suggestions for unmatched query terms.
func WithSuggester(s *suggest.Suggester) Option {
	return func(e *Engine) { e.suggester = s }
}

// NewEngine creates an engine reading from holder. The analyzer must be the
// same one the index was built with.
func NewEngine(holder *index.Holder, an *token.Analyzer, cfg *config.SearchConfig, opts ...Option) *Engine {
	e := &Engine{holder: holder, analyzer: an, cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search tokenizes the query with the index's normalization, sums matched
// term frequencies per section, and returns results in a deterministic total
// order: score descending, then document ID ascending, then section order.
// No matches is an empty result set, not an error.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	idx := e.holder.Load()
	if idx == nil {
		return nil, ErrNoIndex
	}
	terms := token.Unique(e.analyzer.Terms(query.Query))
	if len(terms) == 0 {
		return nil, fmt.Errorf("%q: %w", query.Query, ErrEmptyQuery)
	}
	query.Normalize(e.cfg.DefaultLimit, e.cfg.MaxLimit)

	type location struct {
		docID   string
		section int
	}
	scores := make(map[location]int)
	var unmatched []string
	for _, term := range terms {
		postings := idx.Postings(term)
		if len(postings) == 0 {
			unmatched = append(unmatched, term)
			continue
		}
		for _, p := range postings {
			scores[location{p.DocID, p.Section}] += p.Freq
		}
	}

	results := make([]*models.SearchResult, 0, len(scores))
	for loc, score := range scores {
		results = append(results, &models.SearchResult{
			DocID:      loc.docID,
			SectionOrd: loc.section,
			Score:      score,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].DocID != results[j].DocID {
			return results[i].DocID < results[j].DocID
		}
		return results[i].SectionOrd < results[j].SectionOrd
	})
	total := len(results)
	if len(results) > query.Limit {
		results = results[:query.Limit]
	}
	for i, r := range results {
		r.Rank = i + 1
	}
	e.enrich(ctx, results)

	resp := &models.SearchResponse{
		Results:   results,
		Total:     total,
		Query:     query.Query,
		QueryTime: time.Since(start).Milliseconds(),
	}
	if e.suggester != nil && (query.Suggest || e.cfg.SuggestionsEnabled) {
		for _, term := range unmatched {
			resp.Suggestions = append(resp.Suggestions, e.suggester.Suggest(term, idx)...)
		}
	}
	return resp, nil
}

// IndexStats reports the active index's term, document, and section counts.
// ok is false when no index has been published yet.
func (e *Engine) IndexStats() (terms, docs, sections int, ok bool) {
	idx := e.holder.Load()
	if idx == nil {
		return 0, 0, 0, false
	}
	return idx.TermCount(), idx.DocCount(), idx.SectionCount(), true
}

// enrich fills section titles and snippets from storage when available.
// Lookup failures leave the result bare rather than failing the search.
func (e *Engine) enrich(ctx context.Context, results []*models.SearchResult) {
	if e.store == nil {
		return
	}
	for _, r := range results {
		sec, err := e.store.GetSection(ctx, r.DocID, r.SectionOrd)
		if err != nil {
			continue
		}
		r.SectionTitle = sec.Title
		r.Snippet = utils.Truncate(sec.Text(), snippetLen)
	}
}
