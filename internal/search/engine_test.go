package search

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/sakuin/internal/config"
	"github.com/hyperjump/sakuin/internal/index"
	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/internal/parser"
	"github.com/hyperjump/sakuin/internal/suggest"
	"github.com/hyperjump/sakuin/internal/token"
)

func parsedDoc(id, raw string) *models.Document {
	d := &models.Document{ID: id, Title: id}
	d.Sections = parser.Parse(d, raw)
	return d
}

func newTestEngine(t *testing.T, docs []*models.Document, opts ...Option) *Engine {
	t.Helper()
	an := token.NewAnalyzer(false)
	holder := index.NewHolder(index.Build(docs, an))
	cfg := &config.SearchConfig{DefaultLimit: 10, MaxLimit: 100}
	return NewEngine(holder, an, cfg, opts...)
}

// The corpus from the contract: one document with sections "Intro"
// ("spring boot is fast") and "Setup" ("spring requires java").
func contractEngine(t *testing.T) *Engine {
	return newTestEngine(t, []*models.Document{
		parsedDoc("guide.md", "# Intro\nspring boot is fast\n# Setup\nspring requires java"),
	})
}

func TestSearchBothSectionsTieBrokenByOrder(t *testing.T) {
	resp, err := contractEngine(t).Search(context.Background(), &models.SearchQuery{Query: "spring"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	for i, r := range resp.Results {
		if r.Score != 1 {
			t.Errorf("result %d score = %d, want 1", i, r.Score)
		}
		if r.Rank != i+1 {
			t.Errorf("result %d rank = %d", i, r.Rank)
		}
	}
	if resp.Results[0].SectionOrd != 0 || resp.Results[1].SectionOrd != 1 {
		t.Errorf("tie not broken by section order: %d then %d",
			resp.Results[0].SectionOrd, resp.Results[1].SectionOrd)
	}
}

func TestSearchSingleSection(t *testing.T) {
	resp, err := contractEngine(t).Search(context.Background(), &models.SearchQuery{Query: "fast"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(resp.Results))
	}
	r := resp.Results[0]
	if r.DocID != "guide.md" || r.SectionOrd != 0 || r.Score != 1 {
		t.Errorf("result = %+v", r)
	}
}

func TestSearchEmptyQueryFails(t *testing.T) {
	e := contractEngine(t)
	for _, q := range []string{"", "   ", "...!!!"} {
		_, err := e.Search(context.Background(), &models.SearchQuery{Query: q})
		if !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("query %q: err = %v, want ErrEmptyQuery", q, err)
		}
	}
}

func TestSearchNoMatchesIsNotAnError(t *testing.T) {
	resp, err := contractEngine(t).Search(context.Background(), &models.SearchQuery{Query: "kubernetes"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 0 || resp.Total != 0 {
		t.Errorf("resp = %+v, want empty result set", resp)
	}
}

func TestSearchScoreIsTermFrequencySum(t *testing.T) {
	e := newTestEngine(t, []*models.Document{
		parsedDoc("a.md", "# S\nboot boot boot spring"),
	})
	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "boot spring"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Score != 4 {
		t.Fatalf("results = %+v, want one hit with score 4", resp.Results)
	}
}

func TestSearchDuplicateQueryTermsCountOnce(t *testing.T) {
	e := contractEngine(t)
	once, err := e.Search(context.Background(), &models.SearchQuery{Query: "spring"})
	if err != nil {
		t.Fatal(err)
	}
	twice, err := e.Search(context.Background(), &models.SearchQuery{Query: "spring spring"})
	if err != nil {
		t.Fatal(err)
	}
	if once.Results[0].Score != twice.Results[0].Score {
		t.Errorf("duplicate query term changed score: %d vs %d",
			once.Results[0].Score, twice.Results[0].Score)
	}
}

func TestSearchTieBrokenByDocumentID(t *testing.T) {
	e := newTestEngine(t, []*models.Document{
		parsedDoc("zeta.md", "# Z\ncommon"),
		parsedDoc("alpha.md", "# A\ncommon"),
	})
	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "common"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results", len(resp.Results))
	}
	if resp.Results[0].DocID != "alpha.md" {
		t.Errorf("tie not broken by doc ID: %q first", resp.Results[0].DocID)
	}
}

func TestSearchLimit(t *testing.T) {
	docs := []*models.Document{
		parsedDoc("m.md", "# A\nword\n# B\nword\n# C\nword\n# D\nword"),
	}
	e := newTestEngine(t, docs)
	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "word", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("got %d results, want limit 2", len(resp.Results))
	}
	if resp.Total != 4 {
		t.Errorf("total = %d, want 4", resp.Total)
	}
}

func TestSearchDefaultLimit(t *testing.T) {
	var raw string
	for i := 0; i < 15; i++ {
		raw += "# S\nword\n"
	}
	e := newTestEngine(t, []*models.Document{parsedDoc("m.md", raw)})
	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "word"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 10 {
		t.Errorf("got %d results, want default limit 10", len(resp.Results))
	}
}

func TestSearchDeterministicOrdering(t *testing.T) {
	docs := []*models.Document{
		parsedDoc("b.md", "# One\nterm\n# Two\nterm term"),
		parsedDoc("a.md", "# One\nterm term\n# Two\nterm"),
	}
	e := newTestEngine(t, docs)
	first, err := e.Search(context.Background(), &models.SearchQuery{Query: "term"})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.Search(context.Background(), &models.SearchQuery{Query: "term"})
		if err != nil {
			t.Fatal(err)
		}
		for j := range first.Results {
			a, b := first.Results[j], again.Results[j]
			if a.DocID != b.DocID || a.SectionOrd != b.SectionOrd || a.Score != b.Score {
				t.Fatalf("run %d: ordering changed at %d: %+v vs %+v", i, j, a, b)
			}
		}
	}
	// Highest frequency first; equal scores ordered by doc then section.
	want := []struct {
		doc string
		ord int
	}{
		{"a.md", 0}, {"b.md", 1}, {"a.md", 1}, {"b.md", 0},
	}
	for i, w := range want {
		r := first.Results[i]
		if r.DocID != w.doc || r.SectionOrd != w.ord {
			t.Errorf("position %d = %s#%d, want %s#%d", i, r.DocID, r.SectionOrd, w.doc, w.ord)
		}
	}
}

func TestSearchNoIndex(t *testing.T) {
	an := token.NewAnalyzer(false)
	e := NewEngine(index.NewHolder(nil), an, &config.SearchConfig{DefaultLimit: 10})
	_, err := e.Search(context.Background(), &models.SearchQuery{Query: "x"})
	if !errors.Is(err, ErrNoIndex) {
		t.Errorf("err = %v, want ErrNoIndex", err)
	}
}

func TestSearchSuggestions(t *testing.T) {
	e := newTestEngine(t, []*models.Document{
		parsedDoc("guide.md", "# Intro\nspring boot"),
	}, WithSuggester(suggest.New()))
	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "sprang", Suggest: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("results = %+v", resp.Results)
	}
	found := false
	for _, s := range resp.Suggestions {
		if s == "spring" {
			found = true
		}
	}
	if !found {
		t.Errorf("suggestions = %v, want to contain spring", resp.Suggestions)
	}
}
