package jsontree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant of the tree a Value holds.
type Kind uint8

const (
	// Missing is the zero Kind: the value does not exist in the tree.
	Missing Kind = iota
	Null
	String
	Number
	Bool
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "missing"
	}
}

// Value is a read-only node of a decoded JSON document.
// The zero Value is Missing, so lookups that fall off the tree never need a nil check.
type Value struct {
	kind Kind
	str  string // String payload, or the literal text of a Number
	b    bool
	arr  []Value
	obj  map[string]Value
}

// Parse decodes a JSON document into a Value tree. Numbers keep their literal text.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("decode json: %w", err)
	}
	return FromAny(raw), nil
}

// FromAny converts the output of encoding/json (or an equivalent literal) into a Value.
// Unsupported Go types become Missing.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{kind: Null}
	case Value:
		return t
	case string:
		return Value{kind: String, str: t}
	case json.Number:
		return Value{kind: Number, str: t.String()}
	case float64:
		return Value{kind: Number, str: strconv.FormatFloat(t, 'f', -1, 64)}
	case float32:
		return Value{kind: Number, str: strconv.FormatFloat(float64(t), 'f', -1, 32)}
	case int:
		return Value{kind: Number, str: strconv.Itoa(t)}
	case int64:
		return Value{kind: Number, str: strconv.FormatInt(t, 10)}
	case bool:
		return Value{kind: Bool, b: t}
	case []any:
		arr := make([]Value, len(t))
		for i, e := range t {
			arr[i] = FromAny(e)
		}
		return Value{kind: Array, arr: arr}
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, e := range t {
			obj[k] = FromAny(e)
		}
		return Value{kind: Object, obj: obj}
	default:
		return Value{}
	}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the value is missing or JSON null.
func (v Value) IsAbsent() bool { return v.kind == Missing || v.kind == Null }

// Field returns the member named key, or Missing when v is not an object.
func (v Value) Field(key string) Value {
	if v.kind != Object {
		return Value{}
	}
	return v.obj[key]
}

// Get walks a dotted path ("a.b.c") through nested objects.
// Any missing segment, or a segment that is not an object, yields Missing.
func (v Value) Get(path string) Value {
	if path == "" {
		return v
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		cur = cur.Field(seg)
		if cur.kind == Missing {
			return cur
		}
	}
	return cur
}

// Items returns the elements of an array value, or nil for any other kind.
func (v Value) Items() []Value {
	if v.kind != Array {
		return nil
	}
	return v.arr
}

// Str returns the string payload and whether v is a String.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == String
}

// Interface converts the tree back to plain encoding/json values.
func (v Value) Interface() any {
	switch v.kind {
	case String:
		return v.str
	case Number:
		return json.Number(v.str)
	case Bool:
		return v.b
	case Array:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	case Object:
		out := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON renders the tree; Missing and Null both encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON lets Value be decoded directly as part of a larger structure.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
