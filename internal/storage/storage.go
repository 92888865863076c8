// Package storage persists documents and sections for result display.
package storage

import (
	"context"

	"github.com/hyperjump/sakuin/internal/models"
)

// Storage is the document store. The corpus is replaced wholesale on every
// rebuild, mirroring the index's no-incremental-update contract.
type Storage interface {
	// ReplaceCorpus atomically swaps the stored corpus for docs.
	ReplaceCorpus(ctx context.Context, docs []*models.Document) error
	// GetDocument returns a document with its sections.
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	// GetSection returns one section of a document by ordinal.
	GetSection(ctx context.Context, docID string, ord int) (*models.Section, error)
	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int64, error)
	// CountSections returns the number of stored sections.
	CountSections(ctx context.Context) (int64, error)
	Close() error
}
