// Package internal converts Go values to and from the byte buffers that
// cross the WASM boundary. Byte slices and strings pass through unchanged;
// any other value is JSON.
package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

var bytesType = reflect.TypeFor[[]byte]()

// Supported reports whether values of t can cross the plugin boundary.
func Supported(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return false
	default:
		return true
	}
}

// Encode converts a Go value into plugin input.
func Encode(v reflect.Value) ([]byte, error) {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	switch {
	case !v.IsValid():
		return nil, nil
	case v.Type() == bytesType:
		return v.Bytes(), nil
	case v.Kind() == reflect.String:
		return []byte(v.String()), nil
	}

	data, err := json.Marshal(v.Interface())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plugin input: %w", err)
	}
	return data, nil
}

// Decode converts plugin output into a value of type t. Interface targets
// get the raw output as a string when it is not JSON, and JSON numbers keep
// integer form when they have one.
func Decode(data []byte, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()

	switch {
	case t == bytesType:
		out.SetBytes(data)
		return out, nil
	case t.Kind() == reflect.String:
		out.SetString(string(data))
		return out, nil
	}

	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	target := reflect.New(t)
	if err := d.Decode(target.Interface()); err != nil {
		if t.Kind() == reflect.Interface && reflect.TypeFor[string]().Implements(t) {
			out.Set(reflect.ValueOf(string(data)))
			return out, nil
		}
		return reflect.Value{}, fmt.Errorf("failed to unmarshal plugin output into %s: %w", t, err)
	}
	out.Set(target.Elem())
	if t.Kind() == reflect.Interface && !out.IsNil() {
		out.Set(reflect.ValueOf(fixNumbers(out.Interface())))
	}
	return out, nil
}

// fixNumbers replaces json.Number values with int64 or float64.
func fixNumbers(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any:
		for k, val := range v {
			v[k] = fixNumbers(val)
		}
		return v
	case []any:
		for i, val := range v {
			v[i] = fixNumbers(val)
		}
		return v
	default:
		return v
	}
}
