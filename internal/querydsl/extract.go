package querydsl

import "github.com/hyperjump/querylab/internal/jsonv"

// ExtractField returns the document field q searches. When t is empty the
// type is classified first. ok is false when no field can be located, which
// callers treat as "leave the query alone".
func ExtractField(q jsonv.Value, t Type) (field string, ok bool) {
	mapping, ok := queryMapping(q)
	if !ok {
		return "", false
	}
	return extractMapping(mapping, t)
}

func extractMapping(mapping jsonv.Value, t Type) (string, bool) {
	if t == "" {
		var ok bool
		if t, ok = classifyMapping(mapping); !ok {
			return "", false
		}
	}
	return decodeClause(mapping, t).field()
}

// firstInlineField is the shared heuristic for inline clauses: the first key
// whose value is a string or an object carrying a "query" member.
func firstInlineField(body jsonv.Value) (string, bool) {
	obj, ok := jsonv.AsObject(body)
	if !ok {
		return "", false
	}
	for _, key := range obj.Keys() {
		if v, _ := obj.Get(key); isInlineValue(v) {
			return key, true
		}
	}
	return "", false
}

func isInlineValue(v jsonv.Value) bool {
	if _, isString := v.(jsonv.String); isString {
		return true
	}
	opts, isObject := jsonv.AsObject(v)
	return isObject && opts.Has("query")
}

func (c inlineClause) field() (string, bool) {
	return firstInlineField(c.body)
}

func (c unknownClause) field() (string, bool) {
	return firstInlineField(c.body)
}

func (c queryStringClause) field() (string, bool) {
	obj, ok := jsonv.AsObject(c.body)
	if !ok {
		return "", false
	}
	if df, ok := obj.Get("default_field"); ok && jsonv.Truthy(df) {
		return jsonv.AsString(df)
	}
	return firstListedField(obj)
}

func (c multiMatchClause) field() (string, bool) {
	obj, ok := jsonv.AsObject(c.body)
	if !ok {
		return "", false
	}
	return firstListedField(obj)
}

// firstListedField returns fields[0] without its boost suffix.
func firstListedField(obj *jsonv.Object) (string, bool) {
	v, _ := obj.Get("fields")
	fields, ok := jsonv.AsArray(v)
	if !ok || len(fields) == 0 {
		return "", false
	}
	entry, ok := jsonv.AsString(fields[0])
	if !ok {
		return "", false
	}
	name, _ := splitBoost(entry)
	return name, true
}

func (c boolClause) field() (string, bool) {
	obj, ok := jsonv.AsObject(c.body)
	if !ok {
		return "", false
	}
	for _, group := range boolGroups {
		members, _ := obj.Get(group)
		if list, isList := jsonv.AsArray(members); isList {
			for _, member := range list {
				if f, ok := extractMapping(member, ""); ok {
					return f, true
				}
			}
			continue
		}
		if jsonv.Truthy(members) {
			if f, ok := extractMapping(members, ""); ok {
				return f, true
			}
		}
	}
	return "", false
}
