package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindDouble
	KindFloat
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a property value restricted to the primitives the ingestion
// endpoint understands. The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
}

func Null() Value              { return Value{} }
func Int(v int64) Value        { return Value{kind: KindInt, i: v} }
func Double(v float64) Value   { return Value{kind: KindDouble, f: v} }
func Float(v float32) Value    { return Value{kind: KindFloat, f: float64(v)} }
func Bool(v bool) Value        { return Value{kind: KindBool, b: v} }
func String(v string) Value    { return Value{kind: KindString, s: v} }
func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) Int() int64     { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Bool() bool     { return v.b }
func (v Value) Str() string    { return v.s }

// Interface returns the value as a plain Go value.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindDouble:
		return v.f
	case KindFloat:
		return float32(v.f)
	case KindBool:
		return v.b
	case KindString:
		return v.s
	default:
		return nil
	}
}

// ValueOf converts a Go value into a Value. The second result is false for
// unsupported types and for NaN or infinite floats.
func ValueOf(x any) (Value, bool) {
	switch v := x.(type) {
	case nil:
		return Null(), true
	case Value:
		return v, true
	case int:
		return Int(int64(v)), true
	case int8:
		return Int(int64(v)), true
	case int16:
		return Int(int64(v)), true
	case int32:
		return Int(int64(v)), true
	case int64:
		return Int(v), true
	case uint8:
		return Int(int64(v)), true
	case uint16:
		return Int(int64(v)), true
	case uint32:
		return Int(int64(v)), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Value{}, false
		}
		return Double(v), true
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return Value{}, false
		}
		return Float(v), true
	case bool:
		return Bool(v), true
	case string:
		return String(v), true
	default:
		return Value{}, false
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return json.Marshal(v.i)
	case KindDouble:
		return json.Marshal(v.f)
	case KindFloat:
		return json.Marshal(float32(v.f))
	case KindBool:
		return json.Marshal(v.b)
	case KindString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("value: empty input")
	}

	switch data[0] {
	case 'n':
		*v = Null()
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("value: %w", err)
		}
		*v = Bool(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("value: %w", err)
		}
		*v = String(s)
		return nil
	case '{', '[':
		return fmt.Errorf("value: unsupported JSON type %q", data[0])
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if !bytes.ContainsAny(data, ".eE") {
		if i, err := n.Int64(); err == nil {
			*v = Int(i)
			return nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("value: %w", err)
	}
	*v = Double(f)
	return nil
}

// Props are the custom properties attached to an event.
type Props map[string]Value

func (p Props) clone() Props {
	if len(p) == 0 {
		return Props{}
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// FilterProps keeps every property ValueOf accepts and returns the sorted
// keys of the ones it dropped.
func FilterProps(raw map[string]any) (Props, []string) {
	props := make(Props, len(raw))
	var dropped []string
	for k, x := range raw {
		v, ok := ValueOf(x)
		if !ok {
			dropped = append(dropped, k)
			continue
		}
		props[k] = v
	}
	sort.Strings(dropped)
	return props, dropped
}
