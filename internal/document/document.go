// Package document provides decoding of and safe access to dynamic JSON
// values. Upstream payment-page payloads have no schema contract, so every
// lookup is optional-chaining style: a missing key, a wrong type, or a nil
// value resolves to the zero value instead of failing.
//
// A decoded document is one of: map[string]any, []any, string, float64,
// bool, or nil.
package document

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Decode parses raw JSON into the dynamic value model.
func Decode(data []byte) (any, error) {
	d := jx.DecodeBytes(data)
	v, err := decodeValue(d)
	if err != nil {
		return nil, errors.Wrap(err, "decode document")
	}
	return v, nil
}

func decodeValue(d *jx.Decoder) (any, error) {
	switch d.Next() {
	case jx.Object:
		obj := make(map[string]any)
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			v, err := decodeValue(d)
			if err != nil {
				return err
			}
			obj[key] = v
			return nil
		}); err != nil {
			return nil, err
		}
		return obj, nil
	case jx.Array:
		var arr []any
		if err := d.Arr(func(d *jx.Decoder) error {
			v, err := decodeValue(d)
			if err != nil {
				return err
			}
			arr = append(arr, v)
			return nil
		}); err != nil {
			return nil, err
		}
		return arr, nil
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return nil, err
		}
		return n.Float64()
	case jx.Bool:
		return d.Bool()
	case jx.Null:
		return nil, d.Null()
	default:
		return nil, errors.Errorf("unexpected token %q", d.Next())
	}
}

// Path is one ordered sequence of key accesses into nested objects.
type Path []string

// Get navigates nested objects key by key. Any miss, non-object intermediate
// value, or nil input resolves to nil.
func Get(v any, keys ...string) any {
	for _, key := range keys {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = obj[key]
	}
	return v
}

// String returns v as a string, or "" when v is not a string.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// List returns v as a list, or nil when v is not a list.
func List(v any) []any {
	l, _ := v.([]any)
	return l
}

// Object returns v as an object, or nil when v is not an object.
func Object(v any) map[string]any {
	o, _ := v.(map[string]any)
	return o
}

// FirstList resolves each path in order and returns the first non-empty list
// found, or nil. Callers keep their fallback orders as literal path lists,
// which pins the lookup precedence the upstream schema drift depends on.
func FirstList(v any, paths ...Path) []any {
	for _, p := range paths {
		if l := List(Get(v, p...)); len(l) > 0 {
			return l
		}
	}
	return nil
}

// FirstString resolves each path in order and returns the first non-empty
// string found, or "". Non-string values never satisfy a path: an object
// sitting where a string is expected falls through to the next path.
func FirstString(v any, paths ...Path) string {
	for _, p := range paths {
		if s := String(Get(v, p...)); s != "" {
			return s
		}
	}
	return ""
}
