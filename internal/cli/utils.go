// Package cli provides output helpers for the Shiori command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/shiori/internal/lifecycle"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/server"
	"github.com/hyperjump/shiori/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one bookmark per line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

const descriptionPreview = 200

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		writeCompact(w, response.Results)
		return nil
	default:
		fmt.Fprintf(w, "\nFound %d bookmarks for %q in %dms\n\n", response.Total, response.Query, response.QueryTime)
		for i, b := range response.Results {
			writeOneBookmark(w, i+1, b)
		}
		return nil
	}
}

// WriteBookmarks writes a bookmark listing to w in the given format.
func WriteBookmarks(w io.Writer, list []*models.Bookmark, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if list == nil {
			list = []*models.Bookmark{}
		}
		return writeJSON(w, list)
	case OutputCompact:
		writeCompact(w, list)
		return nil
	default:
		if len(list) == 0 {
			fmt.Fprintln(w, "No bookmarks.")
			return nil
		}
		for i, b := range list {
			writeOneBookmark(w, i+1, b)
		}
		return nil
	}
}

func writeOneBookmark(w io.Writer, rank int, b *models.Bookmark) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	star := ""
	if b.IsFavorite {
		star = " ★"
	}
	fmt.Fprintf(w, "%d. %s%s\n", rank, b.Title, star)
	fmt.Fprintf(w, "ID: %s\n", b.ID)
	fmt.Fprintf(w, "URL: %s\n", b.URL)
	if len(b.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(b.Tags, ", "))
	}
	if b.Description != "" {
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(b.Description, descriptionPreview))
	}
	fmt.Fprintln(w)
}

func writeCompact(w io.Writer, list []*models.Bookmark) {
	for _, b := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", b.ID, utils.Truncate(b.Title, 60), b.URL)
	}
}

// WriteTags writes a tag listing to w. Text and compact output print one tag per line.
func WriteTags(w io.Writer, tags []*models.Tag, format OutputFormat) error {
	if format == OutputJSON {
		if tags == nil {
			tags = []*models.Tag{}
		}
		return writeJSON(w, tags)
	}
	if len(tags) == 0 && format == OutputText {
		fmt.Fprintln(w, "No tags.")
		return nil
	}
	for _, t := range tags {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", t.ID, t.Name, t.Color, t.Count)
	}
	return nil
}

// WriteCollections writes a collection listing to w. Text and compact output print one
// collection per line.
func WriteCollections(w io.Writer, collections []*models.Collection, format OutputFormat) error {
	if format == OutputJSON {
		if collections == nil {
			collections = []*models.Collection{}
		}
		return writeJSON(w, collections)
	}
	if len(collections) == 0 && format == OutputText {
		fmt.Fprintln(w, "No collections.")
		return nil
	}
	for _, c := range collections {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", c.ID, c.Name, c.Icon, c.Color, c.Count)
	}
	return nil
}

// WriteStatus writes a status report to w in the given format.
func WriteStatus(w io.Writer, status *server.StatusResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "Bookmarks:          %d\n", status.Bookmarks)
	fmt.Fprintf(w, "Embeddings:         %d\n", status.Embeddings)
	fmt.Fprintf(w, "Embedding backend:  %s\n", status.EmbeddingBackend)
	fmt.Fprintf(w, "Provider:           %s (%s, %d dims)\n", status.Provider, status.Model, status.Dimensions)
	fmt.Fprintf(w, "Database:           %s\n", status.DatabasePath)
	if status.DiskUsage != "" {
		fmt.Fprintf(w, "Disk usage:         %s\n", status.DiskUsage)
	}
	if missing := status.Bookmarks - int64(status.Embeddings); missing > 0 {
		fmt.Fprintf(w, "\n%d bookmarks have no embedding; run \"shiori reindex\".\n", missing)
	}
	return nil
}

// WriteReindexStats summarizes a reindex run.
func WriteReindexStats(w io.Writer, stats lifecycle.ReconcileStats) {
	fmt.Fprintf(w, "Embedded %d, unchanged %d, failed %d, removed %d orphaned.\n",
		stats.Embedded, stats.Unchanged, stats.Failed, stats.Removed)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
