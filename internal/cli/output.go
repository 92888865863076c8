// Package cli provides CLI output utilities for sakuin.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/sakuin/internal/loader"
	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact is one result per line: document#section: score.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// ParseOutputFormat maps a flag value to a format, defaulting to text.
func ParseOutputFormat(s string) SearchOutputFormat {
	switch SearchOutputFormat(s) {
	case OutputCompact:
		return OutputCompact
	case OutputJSON:
		return OutputJSON
	default:
		return OutputText
	}
}

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		for _, result := range response.Results {
			fmt.Fprintf(w, "%s#%d: %d\n", result.DocID, result.SectionOrd, result.Score)
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", response.Total, response.QueryTime)
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
	if len(response.Suggestions) > 0 {
		fmt.Fprintf(w, "Did you mean: %s?\n", strings.Join(response.Suggestions, ", "))
	}
}

func writeOneResult(w io.Writer, result *models.SearchResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %d\n", result.Rank, result.Score)
	fmt.Fprintf(w, "Location: %s#%d\n", result.DocID, result.SectionOrd)
	if result.SectionTitle != "" {
		fmt.Fprintf(w, "Section: %s\n", result.SectionTitle)
	}
	if result.Snippet != "" {
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(result.Snippet, 200))
	}
	fmt.Fprintln(w)
}

// WriteWarnings prints loader warnings one per line. Silent on empty input.
func WriteWarnings(w io.Writer, warnings []loader.Warning) {
	for _, warn := range warnings {
		fmt.Fprintf(w, "warning: %s: %s\n", warn.Path, warn.Reason)
	}
}
