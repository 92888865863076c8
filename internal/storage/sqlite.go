// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/sakuin/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if missing.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		path TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sections (
		doc_id TEXT NOT NULL,
		ord INTEGER NOT NULL,
		title TEXT NOT NULL,
		depth INTEGER NOT NULL,
		content TEXT NOT NULL,
		PRIMARY KEY (doc_id, ord),
		FOREIGN KEY (doc_id) REFERENCES documents(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplaceCorpus swaps the stored corpus for docs in one transaction, so
// readers see either the old corpus or the new one, never a mix.
func (s *SQLiteStorage) ReplaceCorpus(ctx context.Context, docs []*models.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("clear corpus: %w", err)
	}
	docStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO documents (id, title, path) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare document insert: %w", err)
	}
	defer docStmt.Close()
	secStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO sections (doc_id, ord, title, depth, content) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare section insert: %w", err)
	}
	defer secStmt.Close()

	for _, doc := range docs {
		if _, err := docStmt.ExecContext(ctx, doc.ID, doc.Title, doc.Path); err != nil {
			return fmt.Errorf("insert document %s: %w", doc.ID, err)
		}
		for _, sec := range doc.Sections {
			if _, err := secStmt.ExecContext(ctx, doc.ID, sec.Ord, sec.Title, sec.Depth, sec.Text()); err != nil {
				return fmt.Errorf("insert section %s#%d: %w", doc.ID, sec.Ord, err)
			}
		}
	}
	return tx.Commit()
}

// GetDocument returns a document with its sections in ordinal order.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, path FROM documents WHERE id = ?", id,
	).Scan(&doc.ID, &doc.Title, &doc.Path)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT ord, title, depth, content FROM sections WHERE doc_id = ? ORDER BY ord", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			sec     models.Section
			content string
		)
		if err := rows.Scan(&sec.Ord, &sec.Title, &sec.Depth, &content); err != nil {
			return nil, err
		}
		sec.Doc = &doc
		sec.Lines = splitContent(content)
		doc.Sections = append(doc.Sections, &sec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetSection returns one section of a document.
func (s *SQLiteStorage) GetSection(ctx context.Context, docID string, ord int) (*models.Section, error) {
	var (
		sec     models.Section
		content string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT ord, title, depth, content FROM sections WHERE doc_id = ? AND ord = ?",
		docID, ord,
	).Scan(&sec.Ord, &sec.Title, &sec.Depth, &content)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("section not found: %s#%d", docID, ord)
	}
	if err != nil {
		return nil, err
	}
	sec.Lines = splitContent(content)
	return &sec, nil
}

// CountDocuments returns the number of stored documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

// CountSections returns the number of stored sections.
func (s *SQLiteStorage) CountSections(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sections").Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// splitContent restores section lines from stored content. An empty content
// string means the section had a single empty line or none; either way its
// Text() round-trips.
func splitContent(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}
