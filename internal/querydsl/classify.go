package querydsl

import "github.com/hyperjump/querylab/internal/jsonv"

// Classify returns the query type of a {"query": {...}} object. Known types
// are checked in a fixed priority order (a type counts as present when its
// body is truthy); otherwise the first key of the clause mapping is returned.
// ok is false when q has no truthy "query" member or the mapping is not a
// non-empty object.
func Classify(q jsonv.Value) (t Type, ok bool) {
	mapping, ok := queryMapping(q)
	if !ok {
		return "", false
	}
	return classifyMapping(mapping)
}

// classifyMapping is Classify for the value stored under "query". Nested bool
// members are classified with it directly.
func classifyMapping(mapping jsonv.Value) (Type, bool) {
	if !jsonv.Truthy(mapping) {
		return "", false
	}
	obj, ok := jsonv.AsObject(mapping)
	if !ok {
		return "", false
	}
	for _, t := range classifyOrder {
		if body, ok := obj.Get(string(t)); ok && jsonv.Truthy(body) {
			return t, true
		}
	}
	keys := obj.Keys()
	if len(keys) == 0 {
		return "", false
	}
	return Type(keys[0]), true
}
