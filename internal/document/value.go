// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"fmt"
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// =============================================================================
// KINDS
// =============================================================================

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindInvalid  Kind = iota // Zero Value, carries nothing
	KindNull                 // JSON null
	KindBool                 // true / false
	KindNumber               // integer or float
	KindString               // UTF-8 text
	KindSequence             // ordered list of values
	KindMapping              // string keyed values, insertion ordered
)

// String returns the lowercase kind name.
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
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "invalid"
	}
}

// =============================================================================
// VALUE
// =============================================================================

// Value is an immutable document value.
//
// The zero Value is invalid and is used by callers to mean "no value".
// Values share their backing storage when copied; nothing in this package
// mutates that storage after construction.
type Value struct {
	kind    Kind
	b       bool
	isFloat bool
	i       int64
	f       float64
	s       string
	seq     []Value
	m       *orderedmap.OrderedMap[string, Value]
}

// Member is a single mapping entry.
type Member struct {
	Key   string
	Value Value
}

// Pair is shorthand for Member{Key: key, Value: v}.
func Pair(key string, v Value) Member {
	return Member{Key: key, Value: v}
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer number.
func Int(i int64) Value { return Value{kind: KindNumber, i: i} }

// Float returns a floating point number. Non-finite floats serialize as null.
func Float(f float64) Value { return Value{kind: KindNumber, isFloat: true, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Sequence returns a sequence holding a copy of elems.
func Sequence(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindSequence, seq: cp}
}

// Strings returns a sequence of string values.
func Strings(items []string) Value {
	seq := make([]Value, len(items))
	for i, s := range items {
		seq[i] = String(s)
	}
	return Value{kind: KindSequence, seq: seq}
}

// Mapping returns a mapping of members in the given order.
// A repeated key replaces the earlier value but keeps its position.
func Mapping(members ...Member) Value {
	m := orderedmap.New[string, Value]()
	for _, mem := range members {
		m.Set(mem.Key, mem.Value)
	}
	return Value{kind: KindMapping, m: m}
}

// With returns a copy of the mapping v with key set to child.
// A new key is appended; an existing key keeps its position.
func With(v Value, key string, child Value) (Value, error) {
	if v.kind != KindMapping {
		return Value{}, fmt.Errorf("cannot set %q on %s", key, v.kind)
	}
	m := orderedmap.New[string, Value]()
	for p := v.m.Oldest(); p != nil; p = p.Next() {
		m.Set(p.Key, p.Value)
	}
	m.Set(key, child)
	return Value{kind: KindMapping, m: m}, nil
}

// Without returns a copy of the mapping v with key removed.
func Without(v Value, key string) (Value, error) {
	if v.kind != KindMapping {
		return Value{}, fmt.Errorf("cannot remove %q from %s", key, v.kind)
	}
	m := orderedmap.New[string, Value]()
	for p := v.m.Oldest(); p != nil; p = p.Next() {
		if p.Key != key {
			m.Set(p.Key, p.Value)
		}
	}
	return Value{kind: KindMapping, m: m}, nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds any variant at all.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsInteger reports whether v is a number without fraction or exponent.
func (v Value) IsInteger() bool { return v.kind == KindNumber && !v.isFloat }

// IsFloat reports whether v is a floating point number.
func (v Value) IsFloat() bool { return v.kind == KindNumber && v.isFloat }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns the integer held by v. Floats with an exact integer value convert.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if !v.isFloat {
		return v.i, true
	}
	if v.f == math.Trunc(v.f) && v.f >= math.MinInt64 && v.f < math.MaxInt64 {
		return int64(v.f), true
	}
	return 0, false
}

// AsFloat returns the number held by v as a float.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if v.isFloat {
		return v.f, true
	}
	return float64(v.i), true
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// Len returns the number of elements of a sequence or members of a mapping.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq)
	case KindMapping:
		return v.m.Len()
	default:
		return 0
	}
}

// Index returns element i of a sequence.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindSequence || i < 0 || i >= len(v.seq) {
		return Value{}, false
	}
	return v.seq[i], true
}

// Elements returns a copy of the elements of a sequence.
func (v Value) Elements() []Value {
	if v.kind != KindSequence {
		return nil
	}
	cp := make([]Value, len(v.seq))
	copy(cp, v.seq)
	return cp
}

// Get returns the member of a mapping stored under key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	return v.m.Get(key)
}

// Keys returns the mapping keys in insertion order.
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	keys := make([]string, 0, v.m.Len())
	for p := v.m.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// String returns the compact serialization of v.
func (v Value) String() string {
	if !v.IsValid() {
		return ""
	}
	return Serialize(v)
}

// =============================================================================
// EQUALITY
// =============================================================================

// Equal reports structural equality. Mappings compare key by key ignoring
// order; an integer never equals a float.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInvalid, KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		if a.isFloat != b.isFloat {
			return false
		}
		if a.isFloat {
			return a.f == b.f || (math.IsNaN(a.f) && math.IsNaN(b.f))
		}
		return a.i == b.i
	case KindString:
		return a.s == b.s
	case KindSequence:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if a.m.Len() != b.m.Len() {
			return false
		}
		for p := a.m.Oldest(); p != nil; p = p.Next() {
			other, ok := b.m.Get(p.Key)
			if !ok || !Equal(p.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}
