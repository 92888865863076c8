// Package loader reads a corpus directory into raw document records.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/sakuin/internal/docid"
	"github.com/hyperjump/sakuin/internal/extract"
)

// defaultConcurrency bounds parallel file reads during a load.
const defaultConcurrency = 8

// RawFile is one successfully read corpus file.
type RawFile struct {
	ID      string // corpus-relative document ID
	Path    string // absolute source path
	Content string
}

// Warning records a file that was skipped during a load. Skips are always
// observable: they appear in the load result and in the log, never silently.
type Warning struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Result is the outcome of loading one corpus root.
type Result struct {
	Files    []RawFile
	Warnings []Warning
}

// Loader walks corpus directories and reads matching files. Per-file read or
// decode failures become warnings; only an unreadable root is fatal.
type Loader struct {
	extensions  []string
	extractor   *extract.Extractor
	concurrency int
	logger      *zap.Logger // optional; when set, logs skips and progress
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a logger for warnings and debug output.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithConcurrency sets the number of parallel file reads.
func WithConcurrency(n int) Option {
	return func(ld *Loader) {
		if n > 0 {
			ld.concurrency = n
		}
	}
}

// New creates a loader. extensions filters which files are read (empty = all);
// extractor may be nil, in which case files are read as plain text.
func New(extensions []string, extractor *extract.Extractor, opts ...Option) *Loader {
	ld := &Loader{
		extensions:  extensions,
		extractor:   extractor,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Load reads every matching regular file under root. Returns an error only
// when root itself is unreadable; everything else degrades to warnings.
// Files are read concurrently but the result is deterministic: files sorted
// by ID, warnings by path.
func (ld *Loader) Load(ctx context.Context, root string) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root is not a directory: %s", absRoot)
	}

	res := &Result{}
	var mu sync.Mutex
	warn := func(path, reason string) {
		mu.Lock()
		res.Warnings = append(res.Warnings, Warning{Path: path, Reason: reason})
		mu.Unlock()
		if ld.logger != nil {
			ld.logger.Warn("file skipped", zap.String("path", path), zap.String("reason", reason))
		}
	}

	var paths []string
	walkErr := filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			warn(path, err.Error())
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !ld.extensionAllowed(filepath.Ext(path)) {
			return nil
		}
		// Resolve symlinks so only regular files are read.
		finfo, statErr := os.Stat(path)
		if statErr != nil {
			warn(path, statErr.Error())
			return nil
		}
		if !finfo.Mode().IsRegular() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk corpus: %w", walkErr)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ld.concurrency)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			id := docid.FromPath(absRoot, path)
			// Tabs and newlines in file names would corrupt the
			// line-delimited segment format the ID is serialized into.
			if strings.ContainsAny(id, "\t\n") {
				warn(path, "file name contains tab or newline")
				return nil
			}
			content, err := ld.read(path)
			if err != nil {
				warn(path, err.Error())
				return nil
			}
			mu.Lock()
			res.Files = append(res.Files, RawFile{
				ID:      id,
				Path:    path,
				Content: content,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].ID < res.Files[j].ID })
	sort.Slice(res.Warnings, func(i, j int) bool { return res.Warnings[i].Path < res.Warnings[j].Path })
	if ld.logger != nil {
		ld.logger.Debug("corpus loaded",
			zap.String("root", absRoot),
			zap.Int("files", len(res.Files)),
			zap.Int("warnings", len(res.Warnings)),
		)
	}
	return res, nil
}

func (ld *Loader) read(path string) (string, error) {
	if ld.extractor != nil {
		return ld.extractor.Extract(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (ld *Loader) extensionAllowed(ext string) bool {
	if len(ld.extensions) == 0 {
		return true
	}
	norm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range ld.extensions {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == norm {
			return true
		}
	}
	return false
}
