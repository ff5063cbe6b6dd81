package querydsl

import "github.com/hyperjump/querylab/internal/jsonv"

// Report is the result of inspecting a query: its type and searched field,
// either of which may be missing.
type Report struct {
	Type  Type   `json:"type,omitempty"`
	Field string `json:"field,omitempty"`
}

// Classified reports whether a type was found.
func (r Report) Classified() bool { return r.Type != "" }

// HasField reports whether a field was found.
func (r Report) HasField() bool { return r.Field != "" }

// Inspect classifies q and extracts its field in one pass. A non-empty t
// overrides classification, as for ExtractField.
func Inspect(q jsonv.Value, t Type) Report {
	var r Report
	if t == "" {
		t, _ = Classify(q)
	}
	r.Type = t
	if t == "" {
		return r
	}
	r.Field, _ = ExtractField(q, t)
	return r
}
