// Package cli formats kotae results for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/kotae/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per item.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format named by s, or an error listing the valid names.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, compact, json)", s)
	}
}

// WriteAskResponse writes the answer to a question in the given format.
func WriteAskResponse(w io.Writer, response *models.AskResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, r := range response.Answer {
			fmt.Fprintf(w, "%d\t%.4f\t%s\n", r.ID, r.Score, Truncate(r.Text, 120))
		}
		return nil
	default:
		writeAskResponseText(w, response)
		return nil
	}
}

func writeAskResponseText(w io.Writer, response *models.AskResponse) {
	fmt.Fprintf(w, "\nFound %d answers in %dms (corpus %s)\n\n", len(response.Answer), response.QueryTime, response.Key)
	for i, r := range response.Answer {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Paragraph: %d | Score: %.4f\n", i+1, r.ID, r.Score)
		fmt.Fprintf(w, "\n%s\n", Truncate(r.Text, 400))
		fmt.Fprintln(w)
	}
}

// WriteCorpusList writes corpus descriptions in the given format.
func WriteCorpusList(w io.Writer, infos []*models.CorpusInfo, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if infos == nil {
			infos = []*models.CorpusInfo{}
		}
		return writeJSON(w, infos)
	case OutputCompact:
		for _, info := range infos {
			fmt.Fprintln(w, info.Key)
		}
		return nil
	default:
		if len(infos) == 0 {
			fmt.Fprintln(w, "No corpora stored.")
			return nil
		}
		fmt.Fprintf(w, "%-40s %8s %6s %10s  %s\n", "KEY", "RECORDS", "DIMS", "SIZE", "CREATED")
		for _, info := range infos {
			fmt.Fprintf(w, "%-40s %8d %6d %10d  %s\n",
				info.Key, info.RecordCount, info.Dimensions, info.SizeBytes, info.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	}
}

// WriteIngestResults writes the corpora created by an ingest run.
func WriteIngestResults(w io.Writer, results []*models.IngestResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if results == nil {
			results = []*models.IngestResult{}
		}
		return writeJSON(w, results)
	case OutputCompact:
		for _, r := range results {
			fmt.Fprintln(w, r.Key)
		}
		return nil
	default:
		for _, r := range results {
			if r.Source != "" {
				fmt.Fprintf(w, "Ingested %s -> %s (%d paragraphs)\n", r.Source, r.Key, r.Records)
			} else {
				fmt.Fprintf(w, "Ingested %s (%d paragraphs)\n", r.Key, r.Records)
			}
		}
		return nil
	}
}

// PrintAskResponse prints the answer to stdout in text format.
func PrintAskResponse(response *models.AskResponse) {
	_ = WriteAskResponse(os.Stdout, response, OutputText)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Truncate shortens s to at most maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
