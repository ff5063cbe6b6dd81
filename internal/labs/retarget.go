package labs

import (
	"fmt"
	"sort"

	"github.com/hyperjump/querylab/internal/jsonv"
	"github.com/hyperjump/querylab/internal/keyword"
	"github.com/hyperjump/querylab/internal/models"
	"github.com/hyperjump/querylab/internal/querydsl"
)

// RetargetResult describes a dataset switch applied to a query.
type RetargetResult struct {
	Query    jsonv.Value   `json:"query"`
	Changed  bool          `json:"changed"`
	Type     querydsl.Type `json:"type,omitempty"`
	OldField string        `json:"old_field,omitempty"`
	NewField string        `json:"new_field,omitempty"`
	// Suggestions are known fields close to an unknown OldField.
	Suggestions []string `json:"suggestions,omitempty"`
}

// fieldDistance is how many edits away a known field may be to be suggested.
const fieldDistance = 2

// SuggestFields returns the lab's search fields that are a likely misspelling
// fix for field, nearest first.
func SuggestFields(lab *models.LabConfig, field string) []string {
	if isKnownField(lab, field) {
		return nil
	}
	return keyword.ClosestTerms(field, KnownFields(lab), fieldDistance)
}

// KnownFields returns the search fields of every dataset of lab, sorted.
func KnownFields(lab *models.LabConfig) []string {
	set := make(map[string]struct{})
	for _, fields := range lab.SearchFields {
		for _, f := range fields {
			set[f] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func isKnownField(lab *models.LabConfig, field string) bool {
	for _, fields := range lab.SearchFields {
		for _, f := range fields {
			if f == field {
				return true
			}
		}
	}
	return false
}

// Retarget rewrites q to search the preferred field of dataset to, with that
// dataset's sample text. Queries whose field cannot be found, or whose field
// is not one of the lab's search fields, are returned unchanged. q is never
// modified.
func Retarget(lab *models.LabConfig, q jsonv.Value, to models.Dataset) RetargetResult {
	res := RetargetResult{Query: q}
	t, ok := querydsl.Classify(q)
	if !ok {
		return res
	}
	res.Type = t
	field, ok := querydsl.ExtractField(q, t)
	if !ok {
		return res
	}
	res.OldField = field
	if !isKnownField(lab, field) {
		res.Suggestions = SuggestFields(lab, field)
		return res
	}
	target := lab.SearchFields[to].First()
	sample := lab.SampleQueries[to]
	if target == "" || sample == "" || target == field {
		return res
	}
	res.Query = querydsl.SwapField(q, field, target, jsonv.String(sample), t)
	res.NewField = target
	res.Changed = true
	return res
}

// RetargetText parses text and retargets it. An unchanged query keeps its
// original text; a rewritten one is re-indented. Text that is not JSON is the
// only error.
func RetargetText(lab *models.LabConfig, text string, to models.Dataset) (string, RetargetResult, error) {
	q, err := jsonv.ParseString(text)
	if err != nil {
		return text, RetargetResult{}, fmt.Errorf("failed to parse query: %w", err)
	}
	res := Retarget(lab, q, to)
	if !res.Changed {
		return text, res, nil
	}
	return string(jsonv.MarshalIndent(res.Query, "", "  ")), res, nil
}

// ExampleQuery returns the query text of example for dataset. Per-dataset
// templates are looked up directly. A shared Query DSL template requested
// for a dataset other than the example's own is retargeted.
func ExampleQuery(lab *models.LabConfig, example *models.QueryExample, dataset models.Dataset) (string, error) {
	if dataset == "" {
		dataset = example.Index
	}
	text, ok := example.Template.For(dataset)
	if !ok {
		return "", fmt.Errorf("example %s has no template for %s: %w", example.ID, dataset, ErrNotFound)
	}
	if !example.Template.Shared() || lab.IsESQL() || dataset == example.Index {
		return text, nil
	}
	out, _, err := RetargetText(lab, text, dataset)
	if err != nil {
		return text, nil
	}
	return out, nil
}
