package internal

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	starlarkLib "go.starlark.net/starlark"
)

var (
	ErrUnsupportedType = errors.New("unsupported type")
	ErrTypeMismatch    = errors.New("starlark value does not match Go type")
	ErrOverflow        = errors.New("starlark value overflows Go type")

	starlarkValueType = reflect.TypeFor[starlarkLib.Value]()
)

// ToInterface converts a Starlark value to a plain Go value. Ints become
// int64, lists and tuples []any, and dicts map[string]any.
func ToInterface(v starlarkLib.Value) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch v := v.(type) {
	case starlarkLib.NoneType:
		return nil, nil
	case starlarkLib.Bool:
		return bool(v), nil
	case starlarkLib.Int:
		i, ok := v.Int64()
		if !ok {
			return nil, fmt.Errorf("%w: %s does not fit in int64", ErrOverflow, v)
		}
		return i, nil
	case starlarkLib.Float:
		return float64(v), nil
	case starlarkLib.String:
		return string(v), nil
	case starlarkLib.Bytes:
		return []byte(v), nil
	case starlarkLib.Tuple:
		return indexableToSlice(v)
	case *starlarkLib.List:
		return indexableToSlice(v)
	case *starlarkLib.Dict:
		// String keys for JSON compatibility
		dict := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			key, ok := item[0].(starlarkLib.String)
			if !ok {
				key = starlarkLib.String(item[0].String())
			}
			val, err := ToInterface(item[1])
			if err != nil {
				return nil, fmt.Errorf("failed to convert dict value: %w", err)
			}
			dict[string(key)] = val
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("%w: starlark %s", ErrUnsupportedType, v.Type())
	}
}

func indexableToSlice(v starlarkLib.Indexable) ([]any, error) {
	list := make([]any, 0, v.Len())
	for i := range v.Len() {
		elem, err := ToInterface(v.Index(i))
		if err != nil {
			return nil, fmt.Errorf("failed to convert list element: %w", err)
		}
		list = append(list, elem)
	}
	return list, nil
}

// ToValue converts a Go value to a Starlark value.
func ToValue(v any) (starlarkLib.Value, error) {
	return ToStarlark(reflect.ValueOf(v))
}

// ToStarlark converts a reflected Go value to a Starlark value. Values that
// already are Starlark values pass through unchanged.
func ToStarlark(rv reflect.Value) (starlarkLib.Value, error) {
	if !rv.IsValid() {
		return starlarkLib.None, nil
	}
	if rv.Type().Implements(starlarkValueType) && !isNilable(rv) {
		return rv.Interface().(starlarkLib.Value), nil
	}

	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return starlarkLib.None, nil
		}
		return ToStarlark(rv.Elem())
	case reflect.Bool:
		return starlarkLib.Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return starlarkLib.MakeInt64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return starlarkLib.MakeUint64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return starlarkLib.Float(rv.Float()), nil
	case reflect.String:
		return starlarkLib.String(rv.String()), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return starlarkLib.Bytes(rv.Bytes()), nil
		}
		return sequenceToList(rv)
	case reflect.Array:
		return sequenceToList(rv)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key %s", ErrUnsupportedType, rv.Type().Key())
		}
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(a.String(), b.String())
		})
		dict := starlarkLib.NewDict(len(keys))
		for _, k := range keys {
			val, err := ToStarlark(rv.MapIndex(k))
			if err != nil {
				return nil, fmt.Errorf("failed to convert dict value for key %q: %w", k.String(), err)
			}
			if err := dict.SetKey(starlarkLib.String(k.String()), val); err != nil {
				return nil, fmt.Errorf("failed to set dict key %q: %w", k.String(), err)
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
	}
}

// isNilable reports whether rv is a nil pointer-like value.
func isNilable(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func sequenceToList(rv reflect.Value) (starlarkLib.Value, error) {
	elems := make([]starlarkLib.Value, rv.Len())
	for i := range rv.Len() {
		elem, err := ToStarlark(rv.Index(i))
		if err != nil {
			return nil, fmt.Errorf("failed to convert list element: %w", err)
		}
		elems[i] = elem
	}
	return starlarkLib.NewList(elems), nil
}

// FromStarlark converts a Starlark value into a Go value of type t.
func FromStarlark(v starlarkLib.Value, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()

	switch t.Kind() {
	case reflect.Interface:
		if t.Implements(starlarkValueType) {
			if !reflect.TypeOf(v).Implements(t) {
				return reflect.Value{}, mismatch(v, t)
			}
			out.Set(reflect.ValueOf(v))
			return out, nil
		}
		goVal, err := ToInterface(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if goVal == nil {
			return out, nil
		}
		rv := reflect.ValueOf(goVal)
		if !rv.Type().Implements(t) {
			return reflect.Value{}, mismatch(v, t)
		}
		out.Set(rv)
		return out, nil

	case reflect.Bool:
		b, ok := v.(starlarkLib.Bool)
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		out.SetBool(bool(b))
		return out, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := v.(starlarkLib.Int)
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		n, ok := i.Int64()
		if !ok || out.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("%w: %s into %s", ErrOverflow, i, t)
		}
		out.SetInt(n)
		return out, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, ok := v.(starlarkLib.Int)
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		n, ok := i.Uint64()
		if !ok || out.OverflowUint(n) {
			return reflect.Value{}, fmt.Errorf("%w: %s into %s", ErrOverflow, i, t)
		}
		out.SetUint(n)
		return out, nil

	case reflect.Float32, reflect.Float64:
		var f float64
		switch x := v.(type) {
		case starlarkLib.Float:
			f = float64(x)
		case starlarkLib.Int:
			f = float64(x.Float())
		default:
			return reflect.Value{}, mismatch(v, t)
		}
		if out.OverflowFloat(f) {
			return reflect.Value{}, fmt.Errorf("%w: %v into %s", ErrOverflow, f, t)
		}
		out.SetFloat(f)
		return out, nil

	case reflect.String:
		s, ok := v.(starlarkLib.String)
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		out.SetString(string(s))
		return out, nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			switch x := v.(type) {
			case starlarkLib.Bytes:
				out.SetBytes([]byte(x))
				return out, nil
			case starlarkLib.String:
				out.SetBytes([]byte(x))
				return out, nil
			}
		}
		seq, ok := v.(starlarkLib.Indexable)
		if !ok {
			return reflect.Value{}, mismatch(v, t)
		}
		out = reflect.MakeSlice(t, seq.Len(), seq.Len())
		for i := range seq.Len() {
			elem, err := FromStarlark(seq.Index(i), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("failed to convert list element %d: %w", i, err)
			}
			out.Index(i).Set(elem)
		}
		return out, nil

	case reflect.Map:
		dict, ok := v.(*starlarkLib.Dict)
		if !ok || t.Key().Kind() != reflect.String {
			return reflect.Value{}, mismatch(v, t)
		}
		out = reflect.MakeMapWithSize(t, dict.Len())
		for _, item := range dict.Items() {
			key, ok := item[0].(starlarkLib.String)
			if !ok {
				return reflect.Value{}, fmt.Errorf("%w: dict key %s", ErrTypeMismatch, item[0].Type())
			}
			val, err := FromStarlark(item[1], t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("failed to convert dict value for key %q: %w", key, err)
			}
			out.SetMapIndex(reflect.ValueOf(string(key)).Convert(t.Key()), val)
		}
		return out, nil

	default:
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

func mismatch(v starlarkLib.Value, t reflect.Type) error {
	return fmt.Errorf("%w: got starlark %s, want %s", ErrTypeMismatch, v.Type(), t)
}

// CanConvertToStarlark reports whether values of t can be passed to a script.
func CanConvertToStarlark(t reflect.Type) bool {
	return canConvert(t, true, make(map[reflect.Type]bool))
}

// CanConvertFromStarlark reports whether script results can be stored in t.
func CanConvertFromStarlark(t reflect.Type) bool {
	return canConvert(t, false, make(map[reflect.Type]bool))
}

func canConvert(t reflect.Type, toStarlark bool, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return true
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Bool, reflect.String, reflect.Interface,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return canConvert(t.Elem(), toStarlark, seen)
	case reflect.Map:
		return t.Key().Kind() == reflect.String && canConvert(t.Elem(), toStarlark, seen)
	case reflect.Array, reflect.Pointer:
		return toStarlark && canConvert(t.Elem(), toStarlark, seen)
	default:
		return toStarlark && t.Implements(starlarkValueType)
	}
}
