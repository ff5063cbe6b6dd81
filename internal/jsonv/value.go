// Package jsonv models JSON documents as a sealed tagged union whose objects
// remember key insertion order.
//
// Elasticsearch query bodies are edited by people, and several rewrite rules
// depend on "the first field" of a clause, so object member order must survive
// a parse/modify/serialize round trip. Go maps cannot provide that.
package jsonv

import (
	"bytes"
	"encoding/json"
)

// Kind identifies the variant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Value is a sealed interface. Only Null, Bool, Number, String, Array and
// *Object implement it. A nil Value means "absent" (an undefined property).
type Value interface {
	Kind() Kind
	json.Marshaler
	sealed()
}

// Null is the JSON null literal.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) sealed()    {}

// MarshalJSON implements json.Marshaler.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Bool is a JSON boolean.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) sealed()    {}

// MarshalJSON implements json.Marshaler.
func (b Bool) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

// Number holds the literal text of a JSON number so that values such as
// 1.0 or large integer ids are written back exactly as they were read.
type Number string

func (Number) Kind() Kind { return KindNumber }
func (Number) sealed()    {}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("0"), nil
	}
	return []byte(n), nil
}

// Float returns the numeric value of n.
func (n Number) Float() (float64, error) {
	return json.Number(n).Float64()
}

// String is a JSON string.
type String string

func (String) Kind() Kind { return KindString }
func (String) sealed()    {}

// MarshalJSON implements json.Marshaler. HTML characters are not escaped.
func (s String) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(string(s)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Array is a JSON array.
type Array []Value

func (Array) Kind() Kind { return KindArray }
func (Array) sealed()    {}

// MarshalJSON implements json.Marshaler.
func (a Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(&buf, v); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Object is a JSON object that keeps its keys in insertion order.
// The zero value is an empty object ready to use.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Member is one key/value pair, used to build objects literally.
type Member struct {
	Key   string
	Value Value
}

// M is shorthand for a Member.
func M(key string, value Value) Member {
	return Member{Key: key, Value: value}
}

// ObjectOf builds an object from members in order.
func ObjectOf(members ...Member) *Object {
	o := NewObject()
	for _, m := range members {
		o.Set(m.Key, m.Value)
	}
	return o
}

func (*Object) Kind() Kind { return KindObject }
func (*Object) sealed()    {}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns a copy of the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil || o.vals == nil {
		return nil, false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores value under key. A new key is appended; an existing key keeps
// its position.
func (o *Object) Set(key string, value Value) {
	if o.vals == nil {
		o.vals = make(map[string]Value)
	}
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	if value == nil {
		value = Null{}
	}
	o.vals[key] = value
}

// Delete removes key if present.
func (o *Object) Delete(key string) {
	if o == nil || o.vals == nil {
		return
	}
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Range calls fn for each member in order until fn returns false.
func (o *Object) Range(fn func(key string, value Value) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.vals[k]) {
			return
		}
	}
}

// MarshalJSON implements json.Marshaler.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if o != nil {
		for i, k := range o.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := String(k).MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeValue(&buf, o.vals[k]); err != nil {
				return nil, err
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	if v == nil {
		buf.WriteString("null")
		return nil
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
