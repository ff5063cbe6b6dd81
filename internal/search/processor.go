package search

import (
	"fmt"

	"github.com/hyperjump/querylab/internal/jsonv"
	"github.com/hyperjump/querylab/internal/models"
	"github.com/hyperjump/querylab/internal/validation"
)

// ProcessRequest validates the run request and applies defaults.
func ProcessRequest(req *models.RunRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return nil
}

// ParseQuery checks that Query DSL text has a query to run, then parses it.
func ParseQuery(text string) (jsonv.Value, error) {
	if err := validation.ValidateQuery(text); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	q, err := jsonv.ParseString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return q, nil
}
