package models

import (
	"encoding/json"
	"time"
)

// SearchResponse is the subset of an Elasticsearch search response the labs use.
type SearchResponse struct {
	Took     int        `json:"took"`
	TimedOut bool       `json:"timed_out"`
	Hits     SearchHits `json:"hits"`
}

// SearchHits holds the hit list and total.
type SearchHits struct {
	Total    TotalHits   `json:"total"`
	MaxScore *float64    `json:"max_score"`
	Hits     []SearchHit `json:"hits"`
}

// TotalHits is the hit count; Relation is "eq" or "gte".
type TotalHits struct {
	Value    int    `json:"value"`
	Relation string `json:"relation,omitempty"`
}

// SearchHit is a single matching document.
type SearchHit struct {
	Index     string              `json:"_index"`
	ID        string              `json:"_id"`
	Score     *float64            `json:"_score"`
	Source    json.RawMessage     `json:"_source,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// IDs returns the document ids of the hits in rank order.
func (r *SearchResponse) IDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, len(r.Hits.Hits))
	for i, h := range r.Hits.Hits {
		ids[i] = h.ID
	}
	return ids
}

// AnalyzeResponse is the token stream returned by the _analyze API.
type AnalyzeResponse struct {
	Tokens []AnalyzeToken `json:"tokens"`
}

// AnalyzeToken is one analyzed token.
type AnalyzeToken struct {
	Token       string `json:"token"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Type        string `json:"type"`
	Position    int    `json:"position"`
}

// ExplainResponse is the scoring explanation for one document.
type ExplainResponse struct {
	Index       string      `json:"_index"`
	ID          string      `json:"_id"`
	Matched     bool        `json:"matched"`
	Explanation Explanation `json:"explanation"`
}

// Explanation is a node of the scoring tree.
type Explanation struct {
	Value       float64       `json:"value"`
	Description string        `json:"description"`
	Details     []Explanation `json:"details,omitempty"`
}

// ESQLResponse is a tabular ES|QL result.
type ESQLResponse struct {
	Took    int                 `json:"took,omitempty"`
	Columns []ESQLColumn        `json:"columns"`
	Values  [][]json.RawMessage `json:"values"`
}

// ESQLColumn describes one result column.
type ESQLColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// RunResult is the outcome of running a lab query.
type RunResult struct {
	LabID   string  `json:"lab_id"`
	Dataset Dataset `json:"dataset"`
	// Query is the text that was sent, after any retargeting.
	Query      string          `json:"query"`
	Type       string          `json:"type,omitempty"`
	Field      string          `json:"field,omitempty"`
	Retargeted bool            `json:"retargeted"`
	Response   *SearchResponse `json:"response,omitempty"`
	ESQL       *ESQLResponse   `json:"esql,omitempty"`
	QueryTime  int64           `json:"query_time_ms"`
}

// Count returns the number of hits or rows in the result.
func (r *RunResult) Count() int {
	switch {
	case r.Response != nil:
		return len(r.Response.Hits.Hits)
	case r.ESQL != nil:
		return len(r.ESQL.Values)
	}
	return 0
}

// ExampleCheck is the outcome of running one example on one dataset.
type ExampleCheck struct {
	LabID     string  `json:"lab_id"`
	ExampleID string  `json:"example_id"`
	Dataset   Dataset `json:"dataset"`
	Valid     bool    `json:"valid"`
	Count     int     `json:"count"`
	Error     string  `json:"error,omitempty"`
}

// ExampleReport summarizes example validation for a lab.
type ExampleReport struct {
	Total   int            `json:"total"`
	Valid   int            `json:"valid"`
	Invalid int            `json:"invalid"`
	Results []ExampleCheck `json:"results"`
}

// ChallengeStatus is the verdict on a challenge attempt.
type ChallengeStatus struct {
	IsValid bool     `json:"is_valid"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// EditorState is the query text a session left in an example's editor.
type EditorState struct {
	SessionID string    `json:"session_id" db:"session_id"`
	LabID     string    `json:"lab_id" db:"lab_id"`
	ExampleID string    `json:"example_id" db:"example_id"`
	Dataset   Dataset   `json:"dataset" db:"dataset"`
	QueryText string    `json:"query_text" db:"query_text"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
