package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/pfrederiksen/sports-calendar/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	Path string `json:"path"`
	*pipeline.Document
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	fmt.Fprintf(w, "Calendar written to %s (%d events)\n", result.Path, result.Events)

	if !verbose {
		return nil
	}

	if result.Placeholder {
		fmt.Fprintf(w, "  Scraped schedule unavailable: %s\n", result.Failure)
	}

	// Sorted category names
	categories := make([]string, 0, len(result.ByCategory))
	for category := range result.ByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		fmt.Fprintf(w, "  %s: %d\n", category, result.ByCategory[category])
	}

	if !result.Placeholder {
		fmt.Fprintf(w, "  Candidates: %d seen, %d kept\n", result.Stats.Seen, result.Stats.Kept)
		reasons := make([]string, 0, len(result.Stats.Dropped))
		for reason := range result.Stats.Dropped {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(w, "  Dropped (%s): %d\n", reason, result.Stats.Dropped[reason])
		}
	}

	return nil
}
