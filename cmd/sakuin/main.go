// Package main is the sakuin CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/sakuin/internal/cli"
	"github.com/hyperjump/sakuin/internal/config"
	"github.com/hyperjump/sakuin/internal/extract"
	"github.com/hyperjump/sakuin/internal/index"
	"github.com/hyperjump/sakuin/internal/indexer"
	"github.com/hyperjump/sakuin/internal/loader"
	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/internal/search"
	"github.com/hyperjump/sakuin/internal/server"
	"github.com/hyperjump/sakuin/internal/storage"
	"github.com/hyperjump/sakuin/internal/suggest"
	"github.com/hyperjump/sakuin/internal/token"
	"github.com/hyperjump/sakuin/internal/watcher"
	"github.com/hyperjump/sakuin/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/sakuin/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "sakuin server" from the project dir uses the project's
// config (including debug).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// defaultConfig returns the built-in defaults, used when no config file exists.
func defaultConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

// loadConfigOrDefault loads config from path, falling back to defaults when
// the caller did not name a config file and none is present.
func loadConfigOrDefault(path string) (*config.Config, error) {
	cfg, _, err := loadConfig(path)
	if err != nil {
		if path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "index":
		runIndex()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("sakuin version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file watch events, rebuilds, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// Initial rebuild so the server answers queries from the current corpus.
	stats, err := components.Indexer.Rebuild(context.Background(), cfg.Corpus.Directories)
	if err != nil {
		logger.Fatal("Initial index rebuild failed", zap.Error(err))
	}
	for _, w := range stats.Warnings {
		logger.Warn("corpus file skipped", zap.String("path", w.Path), zap.String("reason", w.Reason))
	}

	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.New(
		cfg.Corpus.Directories,
		cfg.Corpus.Extensions,
		cfg.Corpus.RecursiveOrDefault(),
		func() {
			rstats, rerr := components.Indexer.Rebuild(context.Background(), cfg.Corpus.Directories)
			if rerr != nil {
				logger.Warn("watch rebuild failed", zap.Error(rerr))
				return
			}
			for _, w := range rstats.Warnings {
				logger.Warn("corpus file skipped", zap.String("path", w.Path), zap.String("reason", w.Reason))
			}
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer watchSvc.Stop()

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Storage,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so `sakuin search "query"
// --limit 20` would otherwise leave --limit unparsed.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: sakuin search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  sakuin search spring boot
  sakuin search "spring boot"              # same as above
  sakuin search --limit 20 spring
  sakuin search --output compact spring    # one "document#section: score" per line
  sakuin search --suggest sprng            # spelling suggestions for misses
`)
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = search the local segment directly)")
	limit := fs.Int("limit", 0, "number of results (0 = config default)")
	suggestFlag := fs.Bool("suggest", false, "suggest spellings for query terms that match nothing")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format := cli.ParseOutputFormat(*outputFormat)

	searchQuery := &models.SearchQuery{
		Query:   queryStr,
		Limit:   *limit,
		Suggest: *suggestFlag,
	}

	if *serverURL != "" {
		response, err := searchViaHTTP(*serverURL, searchQuery)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfigOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Direct mode reads the persisted segment; it never rebuilds, so a stale
	// or missing segment means "run sakuin index first".
	idx, err := index.ReadSegment(cfg.Storage.SegmentPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load index segment (run \"sakuin index\" first): %v\n", err)
		os.Exit(1)
	}
	holder := index.NewHolder(idx)
	an := token.NewAnalyzer(cfg.Search.StopwordsEnabled)

	engineOpts := []search.Option{}
	if store, storeErr := storage.NewSQLiteStorage(cfg.Storage.DatabasePath); storeErr == nil {
		defer store.Close()
		engineOpts = append(engineOpts, search.WithStorage(store))
	}
	if cfg.Search.SuggestionsEnabled || searchQuery.Suggest {
		engineOpts = append(engineOpts, search.WithSuggester(suggest.New(
			suggest.WithMaxDistance(cfg.Search.MaxEditDistance),
		)))
	}
	engine := search.NewEngine(holder, an, &cfg.Search, engineOpts...)

	response, err := engine.Search(context.Background(), searchQuery)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfigOrDefault(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	roots := fs.Args()
	if len(roots) == 0 {
		roots = cfg.Corpus.Directories
	}
	if len(roots) == 0 {
		fmt.Println("Usage: sakuin index [flags] <directory> [directory...]")
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	stats, err := components.Indexer.Rebuild(context.Background(), roots)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
		os.Exit(1)
	}
	cli.WriteWarnings(os.Stderr, stats.Warnings)
	fmt.Printf("Indexed %d document(s), %d section(s), %d term(s)\n",
		stats.Documents, stats.Sections, stats.Terms)
	fmt.Printf("Segment written to %s\n", cfg.Storage.SegmentPath)
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Documents      int64                  `json:"documents"`
	Sections       int64                  `json:"sections"`
	IndexTerms     *int                   `json:"index_terms,omitempty"`
	DiskUsageBytes *int64                 `json:"disk_usage_bytes,omitempty"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = read local storage directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, err := loadConfigOrDefault(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		ctx := context.Background()
		docCount, err := store.CountDocuments(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count documents failed: %v\n", err)
			os.Exit(1)
		}
		sectionCount, err := store.CountSections(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count sections failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{Documents: docCount, Sections: sectionCount}
		if idx, err := index.ReadSegment(cfg.Storage.SegmentPath); err == nil {
			terms := idx.TermCount()
			status.IndexTerms = &terms
		}
		if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.SegmentPath); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:         %d   # count of indexed documents\n", status.Documents)
		fmt.Printf("sections:          %d   # count of indexed sections\n", status.Sections)
		if status.IndexTerms != nil {
			fmt.Printf("index_terms:       %d   # distinct terms in the index\n", *status.IndexTerms)
		}
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:  %d   # database + segment on disk\n", *status.DiskUsageBytes)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Storage storage.Storage
	Holder  *index.Holder
	Engine  *search.Engine
	Indexer *indexer.Indexer
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	an := token.NewAnalyzer(cfg.Search.StopwordsEnabled)
	holder := index.NewHolder(nil)
	// Warm-start from the persisted segment; a fresh rebuild replaces it.
	if idx, loadErr := index.ReadSegment(cfg.Storage.SegmentPath); loadErr == nil {
		holder.Swap(idx)
	}

	ld := loader.New(cfg.Corpus.Extensions, extract.NewExtractor(), loader.WithLogger(logger))

	idxOpts := []indexer.Option{indexer.WithSegmentPath(cfg.Storage.SegmentPath)}
	if debug && logger != nil {
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
	}
	idx := indexer.New(ld, an, store, holder, idxOpts...)

	engineOpts := []search.Option{search.WithStorage(store)}
	if cfg.Search.SuggestionsEnabled {
		engineOpts = append(engineOpts, search.WithSuggester(suggest.New(
			suggest.WithMaxDistance(cfg.Search.MaxEditDistance),
		)))
	}
	engine := search.NewEngine(holder, an, &cfg.Search, engineOpts...)

	return &Components{
		Storage: store,
		Holder:  holder,
		Engine:  engine,
		Indexer: idx,
	}, nil
}

func printUsage() {
	fmt.Println(`sakuin - Section-level document corpus search

Usage:
  sakuin server [flags]            Start the HTTP server
  sakuin search [flags] <query>    Search indexed sections
  sakuin index [flags] [dir...]    Rebuild the index from corpus directories
  sakuin status [flags]            Show storage/index status
  sakuin version                   Show version
  sakuin help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/sakuin/config.yaml)
  --debug            Enable debug logging (file watch events, rebuilds, etc.)

Search Flags:
  --config string    Config file path (for direct segment mode)
  --server string    Server URL (empty = search the local segment directly)
  --limit int        Number of results (0 = config default)
  --suggest          Suggest spellings for query terms that match nothing
  --output string    Output format: text, compact, or json

Index Flags:
  --config string    Config file path. Directories default to the config's corpus list.

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json

Examples:
  sakuin index ./docs
  sakuin search spring boot
  sakuin search --output compact spring   # document#section: score per line
  sakuin server
  sakuin status --output json`)
}
