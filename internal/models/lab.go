// Package models defines core data structures for labs, queries, and Elasticsearch responses.
package models

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Dataset names one of the sample indices a lab can run against.
type Dataset string

const (
	Products       Dataset = "products"
	ProductReviews Dataset = "product_reviews"
	ProductUsers   Dataset = "product_users"
)

// Datasets lists every dataset in display order.
var Datasets = []Dataset{Products, ProductReviews, ProductUsers}

// Valid reports whether d is a known dataset.
func (d Dataset) Valid() bool {
	switch d {
	case Products, ProductReviews, ProductUsers:
		return true
	}
	return false
}

// ParseDataset converts s into a Dataset, rejecting unknown names.
func ParseDataset(s string) (Dataset, error) {
	d := Dataset(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown dataset %q", s)
	}
	return d, nil
}

// QueryLanguage is the language an example template is written in.
type QueryLanguage string

const (
	QueryDSL QueryLanguage = "query_dsl"
	ESQL     QueryLanguage = "esql"
)

// FieldList is one field or an ordered list of fields. Lab files may write
// either form; the first entry is the preferred search field.
type FieldList []string

// UnmarshalYAML accepts a scalar or a sequence.
func (f *FieldList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*f = FieldList{node.Value}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*f = list
	return nil
}

// UnmarshalJSON accepts a string or an array of strings.
func (f *FieldList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*f = FieldList{one}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("search fields must be a string or a list of strings: %w", err)
	}
	*f = list
	return nil
}

// First returns the preferred field, or "" when the list is empty.
func (f FieldList) First() string {
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// Template is an example's query text: either one text shared by every
// dataset or a text per dataset.
type Template struct {
	Text       string
	PerDataset map[Dataset]string
}

// For returns the text to use on d. Per-dataset texts win; a shared text is
// returned for any dataset.
func (t Template) For(d Dataset) (string, bool) {
	if len(t.PerDataset) > 0 {
		s, ok := t.PerDataset[d]
		return s, ok
	}
	return t.Text, t.Text != ""
}

// Shared reports whether the template has a single text for all datasets.
func (t Template) Shared() bool { return len(t.PerDataset) == 0 }

// UnmarshalYAML accepts a scalar or a dataset mapping.
func (t *Template) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		t.Text = node.Value
		return nil
	}
	return node.Decode(&t.PerDataset)
}

// MarshalJSON writes the shared text as a string and per-dataset texts as an object.
func (t Template) MarshalJSON() ([]byte, error) {
	if t.Shared() {
		return json.Marshal(t.Text)
	}
	return json.Marshal(t.PerDataset)
}

// UnmarshalJSON accepts a string or a dataset object.
func (t *Template) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &t.Text); err == nil {
		return nil
	}
	return json.Unmarshal(data, &t.PerDataset)
}

// QueryExample is one runnable example of a lab.
type QueryExample struct {
	ID          string            `yaml:"id" json:"id"`
	Title       string            `yaml:"title" json:"title"`
	Description string            `yaml:"description" json:"description"`
	Index       Dataset           `yaml:"index" json:"index"`
	Template    Template          `yaml:"template" json:"template"`
	TryThis     []string          `yaml:"try_this,omitempty" json:"try_this,omitempty"`
	Tooltips    map[string]string `yaml:"tooltips,omitempty" json:"tooltips,omitempty"`
}

// ChallengeValidation holds the checks applied to the second challenge.
type ChallengeValidation struct {
	MustInclude       []string `yaml:"must_include" json:"must_include"`
	ExpectedResultIDs []string `yaml:"expected_result_ids,omitempty" json:"expected_result_ids,omitempty"`
}

// Challenge is a lab's exercise.
type Challenge struct {
	Description string              `yaml:"description" json:"description"`
	Validation  ChallengeValidation `yaml:"validation" json:"validation"`
}

// QueryStructure hints the editor where the searched field lives.
type QueryStructure struct {
	Type      string `yaml:"type" json:"type"`
	FieldPath string `yaml:"field_path" json:"field_path"`
}

// LabConfig is one query type's lab: how to present it, which fields it
// searches per dataset, and its examples.
type LabConfig struct {
	ID               string                `yaml:"id" json:"id"`
	QueryLanguage    QueryLanguage         `yaml:"query_language" json:"query_language"`
	QueryType        string                `yaml:"query_type" json:"query_type"`
	DisplayName      string                `yaml:"display_name" json:"display_name"`
	Description      string                `yaml:"description" json:"description"`
	DocURL           string                `yaml:"doc_url" json:"doc_url"`
	KeyDisplayFields map[Dataset]string    `yaml:"key_display_fields" json:"key_display_fields"`
	SearchFields     map[Dataset]FieldList `yaml:"search_fields" json:"search_fields"`
	SampleQueries    map[Dataset]string    `yaml:"sample_queries" json:"sample_queries"`
	QueryStructure   QueryStructure        `yaml:"query_structure" json:"query_structure"`
	Examples         []QueryExample        `yaml:"examples" json:"examples"`
	Challenge        *Challenge            `yaml:"challenge,omitempty" json:"challenge,omitempty"`

	// Source is the file the lab was loaded from, empty for built-in labs.
	Source string `yaml:"-" json:"-"`
}

// IsESQL reports whether the lab's examples are ES|QL rather than Query DSL.
func (l *LabConfig) IsESQL() bool { return l.QueryLanguage == ESQL }

// Example returns the example with the given id.
func (l *LabConfig) Example(id string) (*QueryExample, bool) {
	for i := range l.Examples {
		if l.Examples[i].ID == id {
			return &l.Examples[i], true
		}
	}
	return nil, false
}

// LabSummary is the short form of a lab used in listings.
type LabSummary struct {
	ID            string        `json:"id"`
	DisplayName   string        `json:"display_name"`
	QueryLanguage QueryLanguage `json:"query_language"`
	QueryType     string        `json:"query_type"`
	Examples      int           `json:"examples"`
	HasChallenge  bool          `json:"has_challenge"`
	Datasets      []Dataset     `json:"datasets"`
}

// Summary returns the listing form of l.
func (l *LabConfig) Summary() LabSummary {
	datasets := make([]Dataset, 0, len(l.SearchFields))
	for d := range l.SearchFields {
		datasets = append(datasets, d)
	}
	sort.Slice(datasets, func(i, j int) bool { return datasets[i] < datasets[j] })
	return LabSummary{
		ID:            l.ID,
		DisplayName:   l.DisplayName,
		QueryLanguage: l.QueryLanguage,
		QueryType:     l.QueryType,
		Examples:      len(l.Examples),
		HasChallenge:  l.Challenge != nil,
		Datasets:      datasets,
	}
}
