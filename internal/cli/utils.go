// Package cli provides output formatting for the querylab commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/querylab/internal/jsonv"
	"github.com/hyperjump/querylab/internal/keyword"
	"github.com/hyperjump/querylab/internal/models"
	"github.com/hyperjump/querylab/internal/querydsl"
	"github.com/hyperjump/querylab/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat converts a -format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

const separator = "─────────────────────────────────────────────────────────"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Introspection is what the introspect command reports about a query.
type Introspection struct {
	Type        querydsl.Type `json:"type,omitempty"`
	Field       string        `json:"field,omitempty"`
	Classified  bool          `json:"classified"`
	HasField    bool          `json:"has_field"`
	KnownType   bool          `json:"known_type"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// NewIntrospection builds the report for an inspected query.
func NewIntrospection(r querydsl.Report, suggestions []string) *Introspection {
	return &Introspection{
		Type:        r.Type,
		Field:       r.Field,
		Classified:  r.Classified(),
		HasField:    r.HasField(),
		KnownType:   r.Type.Known(),
		Suggestions: suggestions,
	}
}

// WriteIntrospection writes an introspection report to w.
func WriteIntrospection(w io.Writer, in *Introspection, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, in)
	}
	if !in.Classified {
		fmt.Fprintln(w, "type:   (unclassified)")
		return nil
	}
	known := ""
	if !in.KnownType {
		known = "   # generic clause"
	}
	fmt.Fprintf(w, "type:   %s%s\n", in.Type, known)
	if in.HasField {
		fmt.Fprintf(w, "field:  %s\n", in.Field)
	} else {
		fmt.Fprintln(w, "field:  (none)")
	}
	if len(in.Suggestions) > 0 {
		fmt.Fprintf(w, "did you mean: %s\n", strings.Join(in.Suggestions, ", "))
	}
	return nil
}

// Rewrite is the outcome of a swap or retarget command.
type Rewrite struct {
	Query       jsonv.Value   `json:"query"`
	Changed     bool          `json:"changed"`
	Type        querydsl.Type `json:"type,omitempty"`
	OldField    string        `json:"old_field,omitempty"`
	NewField    string        `json:"new_field,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// WriteRewrite writes a rewritten query. Text output is the indented query
// alone so it can be piped into another command.
func WriteRewrite(w io.Writer, rw *Rewrite, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, rw)
	}
	_, err := fmt.Fprintf(w, "%s\n", jsonv.MarshalIndent(rw.Query, "", "  "))
	return err
}

// WriteLabs writes the lab listing to w, marking the active lab.
func WriteLabs(w io.Writer, labs []models.LabSummary, active string, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{"labs": labs, "active": active})
	}
	for _, lab := range labs {
		marker := " "
		if lab.ID == active {
			marker = "*"
		}
		challenge := ""
		if lab.HasChallenge {
			challenge = "  [challenge]"
		}
		fmt.Fprintf(w, "%s %-14s %-22s %-9s %d example(s)%s\n",
			marker, lab.ID, lab.DisplayName, lab.QueryLanguage, lab.Examples, challenge)
	}
	return nil
}

// CatalogResult is a catalog search and its spelling suggestion.
type CatalogResult struct {
	Query      string                `json:"query"`
	Hits       []*keyword.CatalogHit `json:"hits"`
	DidYouMean string                `json:"did_you_mean,omitempty"`
}

// WriteCatalog writes catalog search results to w.
func WriteCatalog(w io.Writer, res *CatalogResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "\nFound %d example(s) for %q\n", len(res.Hits), res.Query)
	if res.DidYouMean != "" {
		fmt.Fprintf(w, "Did you mean: %s\n", res.DidYouMean)
	}
	fmt.Fprintln(w)
	for i, hit := range res.Hits {
		fmt.Fprintf(w, "%2d. %-14s %-10s %.4f  %s\n", i+1, hit.LabID, hit.ExampleID, hit.Score, TruncateWords(hit.Title, 10))
	}
	return nil
}

// WriteRunResult writes the result of running a lab query to w.
func WriteRunResult(w io.Writer, res *models.RunResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "\nRan %s on %s in %dms", res.LabID, res.Dataset, res.QueryTime)
	if res.Retargeted {
		fmt.Fprint(w, " (retargeted)")
	}
	fmt.Fprintln(w)
	if res.Type != "" {
		fmt.Fprintf(w, "Type: %s | Field: %s\n", res.Type, res.Field)
	}
	switch {
	case res.Response != nil:
		writeHits(w, res.Response)
	case res.ESQL != nil:
		writeESQL(w, res.ESQL)
	}
	return nil
}

func writeHits(w io.Writer, resp *models.SearchResponse) {
	fmt.Fprintf(w, "Found %d hit(s), showing %d\n\n", resp.Hits.Total.Value, len(resp.Hits.Hits))
	for i, hit := range resp.Hits.Hits {
		fmt.Fprintln(w, separator)
		score := "-"
		if hit.Score != nil {
			score = fmt.Sprintf("%.4f", *hit.Score)
		}
		fmt.Fprintf(w, "Rank: %d | ID: %s | Score: %s\n", i+1, hit.ID, score)
		if len(hit.Source) > 0 {
			fmt.Fprintf(w, "%s\n", utils.Truncate(utils.SingleLine(string(hit.Source)), 200))
		}
	}
}

func writeESQL(w io.Writer, resp *models.ESQLResponse) {
	names := make([]string, len(resp.Columns))
	for i, c := range resp.Columns {
		names[i] = c.Name
	}
	fmt.Fprintf(w, "%d row(s)\n\n%s\n", len(resp.Values), strings.Join(names, " | "))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = utils.Truncate(string(v), 40)
		}
		fmt.Fprintln(w, strings.Join(cells, " | "))
	}
}

// WriteExampleReport writes an example validation summary to w.
func WriteExampleReport(w io.Writer, report *models.ExampleReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	for _, c := range report.Results {
		status := "ok  "
		detail := fmt.Sprintf("%d hit(s)", c.Count)
		if !c.Valid {
			status = "FAIL"
			detail = c.Error
		}
		fmt.Fprintf(w, "%s %s/%s on %s: %s\n", status, c.LabID, c.ExampleID, c.Dataset, detail)
	}
	fmt.Fprintf(w, "\n%d example(s): %d valid, %d invalid\n", report.Total, report.Valid, report.Invalid)
	return nil
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
