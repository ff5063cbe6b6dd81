package models

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned when a request carries no query text.
var ErrEmptyQuery = errors.New("query cannot be empty")

// RunRequest asks to run query text from a lab against a dataset.
type RunRequest struct {
	LabID     string  `json:"lab_id"`
	ExampleID string  `json:"example_id,omitempty"`
	Dataset   Dataset `json:"dataset,omitempty"`
	Query     string  `json:"query"`
	// Retarget rewrites a Query DSL query for Dataset before running it.
	Retarget bool `json:"retarget,omitempty"`
	Size     int  `json:"size,omitempty"`
}

// Validate checks the request and normalizes the result size.
func (r *RunRequest) Validate() error {
	if r.Query == "" {
		return ErrEmptyQuery
	}
	if r.Dataset != "" && !r.Dataset.Valid() {
		return fmt.Errorf("unknown dataset %q", r.Dataset)
	}
	if r.Size < 0 {
		r.Size = 0
	}
	if r.Size > 100 {
		r.Size = 100
	}
	return nil
}

// ChallengeRequest runs a query and checks it against challenge Number (1 or 2).
type ChallengeRequest struct {
	RunRequest
	Number int `json:"number"`
}

// Validate checks the embedded run request and the challenge number.
func (r *ChallengeRequest) Validate() error {
	if r.Number != 1 && r.Number != 2 {
		return fmt.Errorf("challenge number must be 1 or 2, got %d", r.Number)
	}
	return r.RunRequest.Validate()
}
