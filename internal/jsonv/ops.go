package jsonv

import "math"

// Clone returns a deep copy of v. Scalars are values already; arrays and
// objects are copied recursively.
func Clone(v Value) Value {
	switch t := v.(type) {
	case Array:
		out := make(Array, len(t))
		for i, item := range t {
			out[i] = Clone(item)
		}
		return out
	case *Object:
		if t == nil {
			return NewObject()
		}
		out := &Object{
			keys: make([]string, len(t.keys)),
			vals: make(map[string]Value, len(t.vals)),
		}
		copy(out.keys, t.keys)
		for k, item := range t.vals {
			out.vals[k] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// Equal reports deep equality. Object key order is ignored and numbers are
// compared by value when both parse.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Null:
		return true
	case Bool:
		return x == b.(Bool)
	case String:
		return x == b.(String)
	case Number:
		y := b.(Number)
		if x == y {
			return true
		}
		fx, errX := x.Float()
		fy, errY := y.Float()
		return errX == nil && errY == nil && fx == fy
	case Array:
		y := b.(Array)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Object:
		y := b.(*Object)
		if x.Len() != y.Len() {
			return false
		}
		equal := true
		x.Range(func(k string, v Value) bool {
			other, ok := y.Get(k)
			if !ok || !Equal(v, other) {
				equal = false
			}
			return equal
		})
		return equal
	}
	return false
}

// Truthy applies JavaScript truthiness: absent, null, false, 0, NaN and ""
// are falsy; every array and object is truthy.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case nil, Null:
		return false
	case Bool:
		return bool(t)
	case Number:
		f, err := t.Float()
		if err != nil {
			return true
		}
		return f != 0 && !math.IsNaN(f)
	case String:
		return t != ""
	case *Object:
		return t != nil
	default:
		return true
	}
}

// AsObject returns v as an object when it is one.
func AsObject(v Value) (*Object, bool) {
	o, ok := v.(*Object)
	return o, ok && o != nil
}

// AsArray returns v as an array when it is one.
func AsArray(v Value) (Array, bool) {
	a, ok := v.(Array)
	return a, ok
}

// AsString returns v as a Go string when it is a JSON string.
func AsString(v Value) (string, bool) {
	s, ok := v.(String)
	return string(s), ok
}

// Lookup walks a chain of object keys and returns the value at the end.
func Lookup(v Value, path ...string) (Value, bool) {
	cur := v
	for _, key := range path {
		obj, ok := AsObject(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = obj.Get(key); !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}
