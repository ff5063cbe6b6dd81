package jsonv

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned by Parse when the input is not a single valid
// JSON document.
var ErrInvalidJSON = errors.New("invalid JSON")

// Parse decodes data into a Value. gjson walks objects in document order,
// which is what lets Object keep insertion order. For duplicate keys the
// first position and the last value win, like JSON.parse.
func Parse(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 || !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return fromResult(gjson.ParseBytes(data))
}

// ParseString is Parse for text input.
func ParseString(s string) (Value, error) {
	return Parse([]byte(s))
}

// MustParse is Parse that panics on error. Meant for literals in tests and
// embedded data.
func MustParse(s string) Value {
	v, err := ParseString(s)
	if err != nil {
		panic(fmt.Sprintf("jsonv: %v: %s", err, s))
	}
	return v
}

func fromResult(r gjson.Result) (Value, error) {
	switch r.Type {
	case gjson.Null:
		return Null{}, nil
	case gjson.False:
		return Bool(false), nil
	case gjson.True:
		return Bool(true), nil
	case gjson.Number:
		return Number(strings.TrimSpace(r.Raw)), nil
	case gjson.String:
		return String(r.Str), nil
	case gjson.JSON:
		switch {
		case r.IsArray():
			arr := Array{}
			var err error
			r.ForEach(func(_, item gjson.Result) bool {
				var v Value
				v, err = fromResult(item)
				if err != nil {
					return false
				}
				arr = append(arr, v)
				return true
			})
			if err != nil {
				return nil, err
			}
			return arr, nil
		case r.IsObject():
			obj := NewObject()
			var err error
			r.ForEach(func(key, item gjson.Result) bool {
				var v Value
				v, err = fromResult(item)
				if err != nil {
					return false
				}
				obj.Set(key.Str, v)
				return true
			})
			if err != nil {
				return nil, err
			}
			return obj, nil
		}
	}
	return nil, fmt.Errorf("%w: unexpected token %q", ErrInvalidJSON, r.Raw)
}

// Marshal returns the compact JSON encoding of v. A nil v encodes as null.
func Marshal(v Value) []byte {
	var buf bytes.Buffer
	// Every variant's MarshalJSON is infallible except String, which only
	// fails on encoder errors that cannot happen for a bytes.Buffer.
	_ = writeValue(&buf, v)
	return buf.Bytes()
}

// MarshalIndent is Marshal with json.Indent applied.
func MarshalIndent(v Value, prefix, indent string) []byte {
	var out bytes.Buffer
	if err := json.Indent(&out, Marshal(v), prefix, indent); err != nil {
		return Marshal(v)
	}
	return out.Bytes()
}
