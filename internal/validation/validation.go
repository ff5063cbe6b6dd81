// Package validation checks lab queries and grades challenge attempts.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hyperjump/querylab/internal/jsonv"
	"github.com/hyperjump/querylab/internal/models"
)

// ErrMissingQuery is returned for a request body without a usable "query" member.
var ErrMissingQuery = errors.New(`query must be an object with a "query" property`)

// ValidateQuery checks that text is JSON with a truthy top-level "query"
// member, without building a value tree.
func ValidateQuery(text string) error {
	if !gjson.Valid(text) {
		return jsonv.ErrInvalidJSON
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		return ErrMissingQuery
	}
	if q := root.Get("query"); !q.Exists() || !truthy(q) {
		return ErrMissingQuery
	}
	return nil
}

func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	}
	return true
}

// ValidateChallenge grades a challenge attempt. Challenge 1 only requires the
// query to have run. Challenge 2 checks the required substrings, the expected
// document ids and that something matched.
func ValidateChallenge(queryText string, resp *models.SearchResponse, number int, lab *models.LabConfig) models.ChallengeStatus {
	if number == 1 {
		if resp == nil {
			return models.ChallengeStatus{Message: "Please run your query first"}
		}
		return models.ChallengeStatus{IsValid: true, Message: "Great! Your query executed successfully."}
	}

	if lab == nil || lab.Challenge == nil {
		return models.ChallengeStatus{Message: "This lab has no challenge"}
	}
	rules := lab.Challenge.Validation

	q, err := jsonv.ParseString(queryText)
	if err != nil {
		return models.ChallengeStatus{
			Message: "Invalid JSON query",
			Details: []string{err.Error()},
		}
	}

	compact := strings.ToLower(string(jsonv.Marshal(q)))
	var missing []string
	for _, required := range rules.MustInclude {
		if !strings.Contains(compact, strings.ToLower(required)) {
			missing = append(missing, fmt.Sprintf("Query must include %q", required))
		}
	}
	if len(missing) > 0 {
		return models.ChallengeStatus{
			Message: "Query is missing required elements",
			Details: missing,
		}
	}

	if len(rules.ExpectedResultIDs) > 0 && resp != nil {
		found := make(map[string]bool, len(resp.Hits.Hits))
		for _, id := range resp.IDs() {
			found[id] = true
		}
		var missingIDs []string
		for _, id := range rules.ExpectedResultIDs {
			if !found[id] {
				missingIDs = append(missingIDs, id)
			}
		}
		if len(missingIDs) > 0 {
			return models.ChallengeStatus{
				Message: "Query found some results, but not all expected documents",
				Details: []string{"Missing document IDs: " + strings.Join(missingIDs, ", ")},
			}
		}
	}

	if resp != nil && len(resp.Hits.Hits) > 0 {
		return models.ChallengeStatus{
			IsValid: true,
			Message: fmt.Sprintf("Perfect! Found %d matching document(s).", len(resp.Hits.Hits)),
		}
	}
	return models.ChallengeStatus{Message: "Query executed but returned no results. Check your query syntax."}
}
