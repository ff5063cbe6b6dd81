package querydsl

import "github.com/hyperjump/querylab/internal/jsonv"

// SwapField returns a deep copy of q in which oldField is replaced by
// newField and the searched text by newValue. Every other option of the
// clause is kept. When t is empty the type is classified first. If nothing
// matches, the copy is returned unchanged; q itself is never modified.
//
// multi_match replaces fields[0] whatever its name, while query_string only
// replaces the entry named oldField. Callers depend on both behaviors.
func SwapField(q jsonv.Value, oldField, newField string, newValue jsonv.Value, t Type) jsonv.Value {
	out := jsonv.Clone(q)
	mapping, ok := queryMapping(out)
	if !ok {
		return out
	}
	swapMapping(mapping, t, oldField, newField, newValue)
	return out
}

// swapMapping rewrites a clause mapping in place. It must only be called on
// values owned by the caller.
func swapMapping(mapping jsonv.Value, t Type, oldField, newField string, newValue jsonv.Value) {
	if t == "" {
		var ok bool
		if t, ok = classifyMapping(mapping); !ok {
			return
		}
	}
	decodeClause(mapping, t).swap(oldField, newField, newValue)
}

func (c inlineClause) swap(oldField, newField string, newValue jsonv.Value) {
	swapInline(c.body, oldField, newField, newValue)
}

func (c unknownClause) swap(oldField, newField string, newValue jsonv.Value) {
	swapInline(c.body, oldField, newField, newValue)
}

// swapInline moves the value under oldField to newField. A string value is
// replaced by newValue; an options object keeps its options and gets newValue
// as "query"; anything else moves as is. The renamed member ends up last.
func swapInline(body jsonv.Value, oldField, newField string, newValue jsonv.Value) {
	obj, ok := jsonv.AsObject(body)
	if !ok {
		return
	}
	old, ok := obj.Get(oldField)
	if !ok || !jsonv.Truthy(old) {
		return
	}
	obj.Delete(oldField)
	switch v := old.(type) {
	case jsonv.String:
		obj.Set(newField, jsonv.Clone(newValue))
	case *jsonv.Object:
		v.Set("query", jsonv.Clone(newValue))
		obj.Set(newField, v)
	default:
		obj.Set(newField, old)
	}
}

func (c queryStringClause) swap(oldField, newField string, newValue jsonv.Value) {
	obj, ok := jsonv.AsObject(c.body)
	if !ok {
		return
	}
	if df, ok := obj.Get("default_field"); ok {
		if name, isString := jsonv.AsString(df); isString && name == oldField {
			obj.Set("default_field", jsonv.String(newField))
			obj.Set("query", jsonv.Clone(newValue))
			return
		}
	}
	v, _ := obj.Get("fields")
	fields, ok := jsonv.AsArray(v)
	if !ok {
		return
	}
	for i, f := range fields {
		entry, isString := jsonv.AsString(f)
		if !isString {
			continue
		}
		if name, boost := splitBoost(entry); name == oldField {
			fields[i] = jsonv.String(joinBoost(newField, boost))
			obj.Set("fields", fields)
			obj.Set("query", jsonv.Clone(newValue))
			return
		}
	}
}

// swap replaces fields[0] by position whatever oldField is, unlike
// query_string which looks the entry up by name.
// TODO: match oldField by name once Retarget callers stop relying on the
// positional replacement.
func (c multiMatchClause) swap(_, newField string, newValue jsonv.Value) {
	obj, ok := jsonv.AsObject(c.body)
	if !ok {
		return
	}
	v, _ := obj.Get("fields")
	fields, ok := jsonv.AsArray(v)
	if !ok || len(fields) == 0 {
		return
	}
	entry, ok := jsonv.AsString(fields[0])
	if !ok {
		return
	}
	_, boost := splitBoost(entry)
	fields[0] = jsonv.String(joinBoost(newField, boost))
	obj.Set("fields", fields)
	obj.Set("query", jsonv.Clone(newValue))
}

// swap recurses into every member of every group, so all clauses searching
// oldField are retargeted, not just the first one ExtractField reports.
func (c boolClause) swap(oldField, newField string, newValue jsonv.Value) {
	obj, ok := jsonv.AsObject(c.body)
	if !ok {
		return
	}
	for _, group := range boolGroups {
		members, _ := obj.Get(group)
		if list, isList := jsonv.AsArray(members); isList {
			for _, member := range list {
				swapMapping(member, "", oldField, newField, newValue)
			}
			continue
		}
		if jsonv.Truthy(members) {
			swapMapping(members, "", oldField, newField, newValue)
		}
	}
}
