package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/internal/parser"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func parsedDoc(id, raw string) *models.Document {
	d := &models.Document{ID: id, Title: id, Path: "/corpus/" + id}
	d.Sections = parser.Parse(d, raw)
	return d
}

func TestReplaceCorpusAndGet(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	docs := []*models.Document{
		parsedDoc("guide.md", "# Intro\nspring boot is fast\n# Setup\nspring requires java"),
	}
	if err := s.ReplaceCorpus(ctx, docs); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetDocument(ctx, "guide.md")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "guide.md" || len(got.Sections) != 2 {
		t.Fatalf("document = %+v", got)
	}
	if got.Sections[0].Title != "Intro" || got.Sections[1].Title != "Setup" {
		t.Errorf("section titles = %q, %q", got.Sections[0].Title, got.Sections[1].Title)
	}
	if got.Sections[0].Text() != "spring boot is fast" {
		t.Errorf("section text = %q", got.Sections[0].Text())
	}

	sec, err := s.GetSection(ctx, "guide.md", 1)
	if err != nil {
		t.Fatal(err)
	}
	if sec.Title != "Setup" || sec.Text() != "spring requires java" {
		t.Errorf("section = %+v", sec)
	}
}

func TestReplaceCorpusIsWholesale(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.ReplaceCorpus(ctx, []*models.Document{parsedDoc("old.md", "stale")}); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceCorpus(ctx, []*models.Document{parsedDoc("new.md", "fresh")}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetDocument(ctx, "old.md"); err == nil {
		t.Error("stale document survived the rebuild")
	}
	if _, err := s.GetDocument(ctx, "new.md"); err != nil {
		t.Errorf("new document missing: %v", err)
	}
	n, err := s.CountDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("CountDocuments = %d, want 1", n)
	}
}

func TestCounts(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	docs := []*models.Document{
		parsedDoc("a.md", "# One\nx\n# Two\ny"),
		parsedDoc("b.md", "plain"),
	}
	if err := s.ReplaceCorpus(ctx, docs); err != nil {
		t.Fatal(err)
	}
	nd, err := s.CountDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	ns, err := s.CountSections(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if nd != 2 || ns != 3 {
		t.Errorf("counts = %d docs %d sections, want 2 and 3", nd, ns)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	s := newTestStorage(t)
	if _, err := s.GetDocument(context.Background(), "nope"); err == nil {
		t.Error("expected error for missing document")
	}
}

func TestGetSectionNotFound(t *testing.T) {
	s := newTestStorage(t)
	if _, err := s.GetSection(context.Background(), "nope", 0); err == nil {
		t.Error("expected error for missing section")
	}
}

func TestEmptyCorpusReplace(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	if err := s.ReplaceCorpus(ctx, nil); err != nil {
		t.Fatal(err)
	}
	n, err := s.CountDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("CountDocuments = %d", n)
	}
}
