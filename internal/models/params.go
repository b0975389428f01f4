package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindArray
	KindMap
)

// Value is a tagged union of string | number | bool | array | map.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	arr  []Value
	obj  map[string]Value
}

func StringValue(s string) Value   { return Value{kind: KindString, str: s} }
func NumberValue(n float64) Value  { return Value{kind: KindNumber, num: n} }
func BoolValue(b bool) Value       { return Value{kind: KindBool, b: b} }
func ArrayValue(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }
func MapValue(m map[string]Value) Value {
	return Value{kind: KindMap, obj: m}
}

// StringsValue builds an array value of strings
func StringsValue(ss ...string) Value {
	vs := make([]Value, len(ss))
	for i, s := range ss {
		vs[i] = StringValue(s)
	}
	return ArrayValue(vs...)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsNumber accepts numbers and numeric strings
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) AsMap() (Params, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return Params(v.obj), true
}

// UnmarshalJSON decodes any JSON value into the union
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = fromInterface(raw)
	return nil
}

// MarshalJSON encodes the union back to plain JSON
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toInterface())
}

func fromInterface(raw interface{}) Value {
	switch t := raw.(type) {
	case string:
		return StringValue(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}
		}
		return NumberValue(n)
	case float64:
		return NumberValue(t)
	case bool:
		return BoolValue(t)
	case []interface{}:
		vs := make([]Value, 0, len(t))
		for _, item := range t {
			vs = append(vs, fromInterface(item))
		}
		return ArrayValue(vs...)
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			m[k] = fromInterface(item)
		}
		return MapValue(m)
	default:
		return Value{}
	}
}

func (v Value) toInterface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.toInterface()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.toInterface()
		}
		return out
	default:
		return nil
	}
}

// Params is the heterogeneous parameter bag attached to an achievement.
// All accessors are total: a missing key or a type mismatch yields (zero, false).
type Params map[string]Value

// ParseParams decodes a JSON object into a parameter bag
func ParseParams(data []byte) (Params, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse params: %w", err)
	}
	m, ok := v.AsMap()
	if !ok {
		return nil, fmt.Errorf("params must be a JSON object")
	}
	return m, nil
}

func (p Params) Get(key string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	v, ok := p[key]
	return v, ok
}

func (p Params) String(key string) (string, bool) {
	v, ok := p.Get(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

func (p Params) Number(key string) (float64, bool) {
	v, ok := p.Get(key)
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

// Int truncates a numeric parameter toward zero
func (p Params) Int(key string) (int, bool) {
	n, ok := p.Number(key)
	if !ok {
		return 0, false
	}
	return int(n), true
}

func (p Params) Bool(key string) (bool, bool) {
	v, ok := p.Get(key)
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// Strings returns the string elements of an array parameter, skipping
// non-string elements. A single string is returned as a one-element slice.
func (p Params) Strings(key string) ([]string, bool) {
	v, ok := p.Get(key)
	if !ok {
		return nil, false
	}
	if s, ok := v.AsString(); ok {
		return []string{s}, true
	}
	arr, ok := v.AsArray()
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.AsString(); ok {
			out = append(out, s)
		}
	}
	return out, true
}

func (p Params) Map(key string) (Params, bool) {
	v, ok := p.Get(key)
	if !ok {
		return nil, false
	}
	return v.AsMap()
}
