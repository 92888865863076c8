// Package indexer orchestrates corpus rebuilds: load, parse, index, persist.
package indexer

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/sakuin/internal/docid"
	"github.com/hyperjump/sakuin/internal/index"
	"github.com/hyperjump/sakuin/internal/loader"
	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/internal/parser"
	"github.com/hyperjump/sakuin/internal/storage"
	"github.com/hyperjump/sakuin/internal/token"
)

// Indexer rebuilds the corpus wholesale. There is no incremental update
// path: every rebuild loads the full corpus, builds a fresh immutable index,
// replaces the document store contents, writes the segment file, and swaps
// the new index into the holder. In-flight queries keep their snapshot.
type Indexer struct {
	loader      *loader.Loader
	analyzer    *token.Analyzer
	store       storage.Storage
	holder      *index.Holder
	segmentPath string
	logger      *zap.Logger // optional; when set, logs rebuild events

	// mu serializes rebuilds. The watcher callback, the server's startup
	// rebuild, and the reindex endpoint may all fire at once; overlapping
	// rebuilds must not race on the store, the segment file, or the holder.
	mu sync.Mutex
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets a logger for rebuild progress and warnings.
func WithLogger(l *zap.Logger) Option {
	return func(idx *Indexer) { idx.logger = l }
}

// WithSegmentPath enables segment persistence at the given path after each
// rebuild. Empty disables persistence.
func WithSegmentPath(path string) Option {
	return func(idx *Indexer) { idx.segmentPath = path }
}

// New creates an indexer. store may be nil to skip document persistence
// (index-only rebuilds, e.g. in tests).
func New(ld *loader.Loader, an *token.Analyzer, store storage.Storage, holder *index.Holder, opts ...Option) *Indexer {
	idx := &Indexer{
		loader:   ld,
		analyzer: an,
		store:    store,
		holder:   holder,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Stats summarizes one rebuild.
type Stats struct {
	Documents int
	Sections  int
	Terms     int
	Warnings  []loader.Warning
}

// Rebuild loads every corpus root, parses and indexes all documents, and
// atomically publishes the result. Concurrent calls run one at a time, in
// arrival order. Returns an error when any root is unreadable or persistence
// fails; per-file problems surface as warnings in the returned stats.
func (idx *Indexer) Rebuild(ctx context.Context, roots []string) (*Stats, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var (
		docs     []*models.Document
		warnings []loader.Warning
		seen     = make(map[string]string)
	)
	for _, root := range roots {
		res, err := idx.loader.Load(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("load corpus root %s: %w", root, err)
		}
		warnings = append(warnings, res.Warnings...)
		for _, f := range res.Files {
			if prev, dup := seen[f.ID]; dup {
				warnings = append(warnings, loader.Warning{
					Path:   f.Path,
					Reason: fmt.Sprintf("document ID %q already loaded from %s", f.ID, prev),
				})
				continue
			}
			seen[f.ID] = f.Path
			doc := &models.Document{ID: f.ID, Title: docid.Title(f.ID), Path: f.Path}
			doc.Sections = parser.Parse(doc, f.Content)
			docs = append(docs, doc)
		}
	}

	built := index.Build(docs, idx.analyzer)

	if idx.store != nil {
		if err := idx.store.ReplaceCorpus(ctx, docs); err != nil {
			return nil, fmt.Errorf("persist corpus: %w", err)
		}
	}
	if idx.segmentPath != "" {
		if err := index.WriteSegment(idx.segmentPath, built); err != nil {
			return nil, fmt.Errorf("write segment: %w", err)
		}
	}
	idx.holder.Swap(built)

	stats := &Stats{
		Documents: built.DocCount(),
		Sections:  built.SectionCount(),
		Terms:     built.TermCount(),
		Warnings:  warnings,
	}
	if idx.logger != nil {
		idx.logger.Info("corpus rebuilt",
			zap.Int("documents", stats.Documents),
			zap.Int("sections", stats.Sections),
			zap.Int("terms", stats.Terms),
			zap.Int("warnings", len(stats.Warnings)),
		)
	}
	return stats, nil
}
