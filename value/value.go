package value

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type identifies the dynamic type of a Value. The numeric values double as
// the codec's wire type tags.
type Type uint32

const (
	TypeNil Type = iota
	TypeBool
	TypeInteger
	TypeFloat
	TypeString
	TypeBlob
	TypeDatetime
	TypeArray
	TypeMap
)

func (t Type) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeBool:
		return "bool"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBlob:
		return "blob"
	case TypeDatetime:
		return "datetime"
	case TypeArray:
		return "array"
	case TypeMap:
		return "map"
	default:
		return "type(" + strconv.FormatUint(uint64(t), 10) + ")"
	}
}

// Pair is one map entry. Map values preserve insertion order for encoding,
// but compare as unordered sets.
type Pair struct {
	Key   Value
	Value Value
}

// Value is a self-describing dynamic value.
//
// The zero Value is nil. Values are immutable once constructed; sharing is
// safe across goroutines.
type Value struct {
	typ   Type
	b     bool
	i     int64
	f     float64
	s     string
	blob  Blob
	t     time.Time
	arr   []Value
	pairs []Pair
}

// Nil returns the nil value.
func Nil() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{typ: TypeBool, b: b} }

// Int wraps a 64-bit signed integer.
func Int(i int64) Value { return Value{typ: TypeInteger, i: i} }

// Float wraps a 64-bit float.
func Float(f float64) Value { return Value{typ: TypeFloat, f: f} }

// String wraps a UTF-8 string.
func String(s string) Value { return Value{typ: TypeString, s: s} }

// BlobValue wraps a blob.
func BlobValue(b Blob) Value { return Value{typ: TypeBlob, blob: b} }

// Datetime wraps a point in time, truncated to millisecond precision in UTC.
func Datetime(t time.Time) Value {
	return Value{typ: TypeDatetime, t: t.UTC().Truncate(time.Millisecond)}
}

// Array wraps an ordered sequence of values.
func Array(items ...Value) Value {
	return Value{typ: TypeArray, arr: items}
}

// Map builds a map value from the given pairs, preserving their order.
// Returns ErrDuplicateKey if two keys compare equal.
func Map(pairs ...Pair) (Value, error) {
	for i := range pairs {
		for j := i + 1; j < len(pairs); j++ {
			if Equal(pairs[i].Key, pairs[j].Key) {
				return Value{}, fmt.Errorf("%w: %s", ErrDuplicateKey, pairs[i].Key.String())
			}
		}
	}
	return Value{typ: TypeMap, pairs: pairs}, nil
}

// MustMap is Map that panics on duplicate keys. Intended for literals in
// tests and examples.
func MustMap(pairs ...Pair) Value {
	v, err := Map(pairs...)
	if err != nil {
		panic(err)
	}
	return v
}

// Kind returns the value's dynamic type.
func (v Value) Kind() Type { return v.typ }

// IsNil reports whether the value is nil.
func (v Value) IsNil() bool { return v.typ == TypeNil }

// Bool returns the boolean payload.
func (v Value) Bool() (bool, error) {
	if v.typ != TypeBool {
		return false, typeErr(TypeBool, v.typ)
	}
	return v.b, nil
}

// Int returns the integer payload.
func (v Value) Int() (int64, error) {
	if v.typ != TypeInteger {
		return 0, typeErr(TypeInteger, v.typ)
	}
	return v.i, nil
}

// Float returns the float payload.
func (v Value) Float() (float64, error) {
	if v.typ != TypeFloat {
		return 0, typeErr(TypeFloat, v.typ)
	}
	return v.f, nil
}

// Str returns the string payload.
func (v Value) Str() (string, error) {
	if v.typ != TypeString {
		return "", typeErr(TypeString, v.typ)
	}
	return v.s, nil
}

// Blob returns the blob payload.
func (v Value) Blob() (Blob, error) {
	if v.typ != TypeBlob {
		return Blob{}, typeErr(TypeBlob, v.typ)
	}
	return v.blob, nil
}

// Time returns the datetime payload.
func (v Value) Time() (time.Time, error) {
	if v.typ != TypeDatetime {
		return time.Time{}, typeErr(TypeDatetime, v.typ)
	}
	return v.t, nil
}

// Items returns the array payload. The returned slice must not be mutated.
func (v Value) Items() ([]Value, error) {
	if v.typ != TypeArray {
		return nil, typeErr(TypeArray, v.typ)
	}
	return v.arr, nil
}

// Pairs returns the map payload in insertion order. The returned slice must
// not be mutated.
func (v Value) Pairs() ([]Pair, error) {
	if v.typ != TypeMap {
		return nil, typeErr(TypeMap, v.typ)
	}
	return v.pairs, nil
}

// Lookup finds the value for a structurally equal key in a map value.
func (v Value) Lookup(key Value) (Value, bool) {
	if v.typ != TypeMap {
		return Value{}, false
	}
	for _, p := range v.pairs {
		if Equal(p.Key, key) {
			return p.Value, true
		}
	}
	return Value{}, false
}

func typeErr(want, got Type) error {
	return fmt.Errorf("%w: want %s, got %s", ErrTypeMismatch, want, got)
}

// Equal reports structural equality. Maps compare as unordered sets of
// key/value pairs; all other containers compare in order.
func Equal(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeNil:
		return true
	case TypeBool:
		return a.b == b.b
	case TypeInteger:
		return a.i == b.i
	case TypeFloat:
		return a.f == b.f
	case TypeString:
		return a.s == b.s
	case TypeBlob:
		return a.blob.Equal(b.blob)
	case TypeDatetime:
		return a.t.Equal(b.t)
	case TypeArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case TypeMap:
		if len(a.pairs) != len(b.pairs) {
			return false
		}
		for _, p := range a.pairs {
			other, ok := b.Lookup(p.Key)
			if !ok || !Equal(p.Value, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// DeepSize returns an approximation of the bytes held by the value,
// used for cache record accounting.
func (v Value) DeepSize() int64 {
	const header = 16
	switch v.typ {
	case TypeString:
		return header + int64(len(v.s))
	case TypeBlob:
		return header + v.blob.Size()
	case TypeArray:
		size := int64(header)
		for _, item := range v.arr {
			size += item.DeepSize()
		}
		return size
	case TypeMap:
		size := int64(header)
		for _, p := range v.pairs {
			size += p.Key.DeepSize() + p.Value.DeepSize()
		}
		return size
	default:
		return header
	}
}

// String renders the value for diagnostics. Blobs render as a length, not
// their contents.
func (v Value) String() string {
	switch v.typ {
	case TypeNil:
		return "nil"
	case TypeBool:
		return strconv.FormatBool(v.b)
	case TypeInteger:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeString:
		return strconv.Quote(v.s)
	case TypeBlob:
		return fmt.Sprintf("blob(%d bytes)", v.blob.Size())
	case TypeDatetime:
		return v.t.Format(time.RFC3339Nano)
	case TypeArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeMap:
		parts := make([]string, len(v.pairs))
		for i, p := range v.pairs {
			parts[i] = p.Key.String() + ": " + p.Value.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "invalid"
	}
}
