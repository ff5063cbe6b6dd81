// Package querydsl inspects and rewrites Elasticsearch Query DSL request
// bodies of the shape {"query": {<type>: <body>}}.
//
// It answers three questions about a query a user is editing: which query
// type it is (Classify), which document field it searches (ExtractField), and
// what the same query looks like aimed at another field (SwapField). All three
// are pure: they never mutate their input, never panic on malformed shapes, and
// report "nothing to do" instead of failing.
package querydsl

import "github.com/hyperjump/querylab/internal/jsonv"

// Type names a query clause, e.g. "match" or "bool". Types outside the
// recognized set are still valid: they are handled by the generic inline
// heuristic.
type Type string

const (
	Match       Type = "match"
	MatchPhrase Type = "match_phrase"
	Term        Type = "term"
	Terms       Type = "terms"
	QueryString Type = "query_string"
	MultiMatch  Type = "multi_match"
	Bool        Type = "bool"
	Range       Type = "range"
)

// classifyOrder is the order in which Classify looks for known keys. When a
// clause mapping carries more than one of them, the earliest wins.
var classifyOrder = []Type{Match, QueryString, Bool, MatchPhrase, MultiMatch, Term, Terms, Range}

// boolGroups are searched in this order by ExtractField.
var boolGroups = []string{"must", "should", "must_not", "filter"}

// Known reports whether t has dedicated handling rather than the generic
// inline fallback.
func (t Type) Known() bool {
	switch t {
	case Match, MatchPhrase, Term, Terms, QueryString, MultiMatch, Bool:
		return true
	}
	return false
}

func (t Type) String() string { return string(t) }

// clause is the closed union of decoded clause shapes. Every variant keeps the
// raw body it was decoded from so options it does not understand survive a
// rewrite untouched.
type clause interface {
	field() (string, bool)
	// swap rewrites the body in place. Callers hand it a private deep copy.
	swap(oldField, newField string, newValue jsonv.Value)
}

// inlineClause covers {"match": {"<field>": "text" | {"query": ...}}} and its
// siblings match_phrase, term and terms.
type inlineClause struct {
	typ  Type
	body jsonv.Value
}

// queryStringClause is {"query_string": {"default_field" | "fields": ...}}.
type queryStringClause struct {
	body jsonv.Value
}

// multiMatchClause is {"multi_match": {"fields": [...], "query": ...}}.
type multiMatchClause struct {
	body jsonv.Value
}

// boolClause is {"bool": {"must" | "should" | "must_not" | "filter": ...}}.
type boolClause struct {
	body jsonv.Value
}

// unknownClause is any other type; it is treated with the inline heuristic.
type unknownClause struct {
	tag  Type
	body jsonv.Value
}

// decodeClause picks the variant for t out of a clause mapping (the value
// stored under "query"). A missing body decodes to a variant holding nil,
// which finds nothing and rewrites nothing.
func decodeClause(mapping jsonv.Value, t Type) clause {
	var body jsonv.Value
	if obj, ok := jsonv.AsObject(mapping); ok {
		body, _ = obj.Get(string(t))
	}
	switch t {
	case Match, MatchPhrase, Term, Terms:
		return inlineClause{typ: t, body: body}
	case QueryString:
		return queryStringClause{body: body}
	case MultiMatch:
		return multiMatchClause{body: body}
	case Bool:
		return boolClause{body: body}
	default:
		return unknownClause{tag: t, body: body}
	}
}

// queryMapping returns the value under "query" when q is an object holding a
// truthy "query" member.
func queryMapping(q jsonv.Value) (jsonv.Value, bool) {
	mapping, ok := jsonv.Lookup(q, "query")
	if !ok || !jsonv.Truthy(mapping) {
		return nil, false
	}
	return mapping, true
}
