// Package tabular models tabular cell values in a normalized,
// JSON-primitive form. Loaders produce Values, the conformance engine
// inspects them, and reports serialize them without further coercion.
package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Value is a sealed interface over the normalized cell kinds.
// Only Null, Bool, Int, Float, String, Array, and Object implement it.
type Value interface {
	tabularValue() // sealed
}

// Null represents a missing or null cell.
type Null struct{}

func (Null) tabularValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Bool represents a boolean cell.
type Bool bool

func (Bool) tabularValue() {}

// Int represents an integral numeric cell. Always int64; integers are
// never promoted to float during normalization.
type Int int64

func (Int) tabularValue() {}

// Float represents a fractional numeric cell.
type Float float64

func (Float) tabularValue() {}

// String represents a textual cell.
type String string

func (String) tabularValue() {}

// Array represents a list cell (element-wise normalized).
type Array []Value

func (Array) tabularValue() {}

// Object represents a nested mapping cell (value-wise normalized).
type Object map[string]Value

func (Object) tabularValue() {}

// ================== NORMALIZATION ==================

// Normalize converts an arbitrary cell value into its Value form.
// It is total (never fails) and idempotent: Normalize(Normalize(x))
// yields Normalize(x). Missing-value sentinels (nil, NaN) map to Null,
// integral numerics to Int, fractional ones to Float, temporal values
// to their canonical string form, containers recurse element-wise, and
// any unrecognized type falls back to its string representation.
// Inputs are assumed acyclic.
func Normalize(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null{}
	case Value:
		return Clean(x)
	case bool:
		return Bool(x)
	case int:
		return Int(x)
	case int8:
		return Int(x)
	case int16:
		return Int(x)
	case int32:
		return Int(x)
	case int64:
		return Int(x)
	case uint:
		return normalizeUint(uint64(x))
	case uint8:
		return Int(x)
	case uint16:
		return Int(x)
	case uint32:
		return Int(x)
	case uint64:
		return normalizeUint(x)
	case float32:
		return normalizeFloat(float64(x))
	case float64:
		return normalizeFloat(x)
	case string:
		return String(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i)
		}
		if f, err := x.Float64(); err == nil {
			return normalizeFloat(f)
		}
		return String(x.String())
	case time.Time:
		return String(x.Format(time.RFC3339))
	case time.Duration:
		return String(x.String())
	case []any:
		arr := make(Array, len(x))
		for i, elem := range x {
			arr[i] = Normalize(elem)
		}
		return arr
	case map[string]any:
		obj := make(Object, len(x))
		for k, elem := range x {
			obj[k] = Normalize(elem)
		}
		return obj
	case fmt.Stringer:
		return String(x.String())
	case error:
		return String(x.Error())
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

// normalizeFloat maps NaN to Null. IEEE infinities cannot be carried
// by JSON, so they take the string fallback.
func normalizeFloat(f float64) Value {
	switch {
	case math.IsNaN(f):
		return Null{}
	case math.IsInf(f, 1):
		return String("Infinity")
	case math.IsInf(f, -1):
		return String("-Infinity")
	default:
		return Float(f)
	}
}

func normalizeUint(u uint64) Value {
	if u > math.MaxInt64 {
		return String(strconv.FormatUint(u, 10))
	}
	return Int(u)
}

// Clean re-applies the normalization rules to an existing Value tree.
// Values produced by Normalize come back unchanged; hand-built trees
// holding unmarshalable floats (NaN, infinities) are repaired. The
// final report pass runs this over every leaf so external consumers
// always receive JSON-primitive values.
func Clean(v Value) Value {
	switch x := v.(type) {
	case nil:
		return Null{}
	case Float:
		return normalizeFloat(float64(x))
	case Array:
		out := make(Array, len(x))
		for i, elem := range x {
			out[i] = Clean(elem)
		}
		return out
	case Object:
		out := make(Object, len(x))
		for k, elem := range x {
			out[k] = Clean(elem)
		}
		return out
	default:
		return x
	}
}

// ================== INSPECTION HELPERS ==================

// IsNull reports whether v is the Null value.
func IsNull(v Value) bool {
	_, ok := v.(Null)
	return ok || v == nil
}

// AsNumber extracts a float64 from an Int or Float value.
func AsNumber(v Value) (float64, bool) {
	switch x := v.(type) {
	case Int:
		return float64(x), true
	case Float:
		return float64(x), true
	default:
		return 0, false
	}
}

// Key returns a canonical comparison key for a value. Numerically
// equal Int and Float values share a key, so an observed 5 covers a
// declared 5.0 the way dynamically typed set membership would.
func Key(v Value) string {
	switch x := v.(type) {
	case nil, Null:
		return "z"
	case Bool:
		if x {
			return "b1"
		}
		return "b0"
	case Int:
		return "n" + strconv.FormatInt(int64(x), 10)
	case Float:
		f := float64(x)
		if f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return "n" + strconv.FormatInt(int64(f), 10)
		}
		return "n" + strconv.FormatFloat(f, 'g', -1, 64)
	case String:
		return "s" + string(x)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("x%v", v)
		}
		return "j" + string(b)
	}
}

// Display renders a value the way it reads in a warning or report
// line: bare scalars without quotes, containers as compact JSON.
func Display(v Value) string {
	switch x := v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		return strconv.FormatBool(bool(x))
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Float:
		return strconv.FormatFloat(float64(x), 'f', -1, 64)
	case String:
		return string(x)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// DisplayList renders values comma-joined, for consolidated warnings.
func DisplayList(vals []Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = Display(v)
	}
	return strings.Join(parts, ", ")
}

// ================== JSON MARSHALING ==================

// DecodeJSON decodes a single JSON value into its normalized Value
// form. Numbers decode as Int when integral, so values survive a
// marshal/decode round trip without being promoted to Float.
func DecodeJSON(data []byte) (Value, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

// sortedKeys returns an Object's keys in lexical order so marshaled
// reports are byte-stable across runs.
func (o Object) sortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON implements json.Marshaler for Object with sorted keys.
func (o Object) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range o.sortedKeys() {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		b.Write(kb)
		b.WriteByte(':')
		vb, err := json.Marshal(o[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
