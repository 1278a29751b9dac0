package value

import (
	"fmt"
	"math"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the lower-case name of the kind.
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
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a dynamic value: null, bool, number, string, array or object.
//
// The zero Value is null. Scalars have value semantics; arrays and objects
// are references to a shared *Array or *Object so that they can be built
// incrementally.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  *Array
	obj  *Object
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int returns a numeric value holding an integer.
func Int(i int64) Value { return Value{kind: KindNumber, n: float64(i)} }

// String returns a string value. Embedded NUL bytes are preserved.
func String(s string) Value { return Value{kind: KindString, s: s} }

// ArrayOf returns an array value holding the given items.
func ArrayOf(items ...Value) Value {
	a := NewArray()
	a.Append(items...)
	return FromArray(a)
}

// FromArray wraps an *Array. A nil array becomes an empty one.
func FromArray(a *Array) Value {
	if a == nil {
		a = NewArray()
	}
	return Value{kind: KindArray, arr: a}
}

// FromObject wraps an *Object. A nil object becomes an empty one.
func FromObject(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean and whether v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number and whether v is a number.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsInt returns the number as an int64 when it is integral.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber || !isIntegral(v.n) {
		return 0, false
	}
	return int64(v.n), true
}

// AsString returns the string and whether v is a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Array returns the underlying array, or nil when v is not an array.
func (v Value) Array() *Array {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Object returns the underlying object, or nil when v is not an object.
func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// GoString renders v for debugging and test failure messages.
func (v Value) GoString() string {
	b, err := Encode(v)
	if err != nil {
		return fmt.Sprintf("value.Value(<%v>)", err)
	}
	return "value.Value(" + string(b) + ")"
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

// Array is an ordered sequence of values.
type Array struct {
	items []Value
}

// NewArray returns an empty array.
func NewArray() *Array { return &Array{} }

// Append adds items to the end of the array.
func (a *Array) Append(items ...Value) { a.items = append(a.items, items...) }

// Len returns the number of items.
func (a *Array) Len() int { return len(a.items) }

// At returns the item at index i. It panics when i is out of range.
func (a *Array) At(i int) Value { return a.items[i] }

// Set replaces the item at index i. It panics when i is out of range.
func (a *Array) Set(i int, v Value) { a.items[i] = v }

// Items returns a copy of the items.
func (a *Array) Items() []Value {
	out := make([]Value, len(a.items))
	copy(out, a.items)
	return out
}

// Object is a map with unique string keys that remembers insertion order.
type Object struct {
	keys  []string
	vals  []Value
	index map[string]int
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

// Set stores v under key. An existing key keeps its position and takes the new value.
func (o *Object) Set(key string, v Value) {
	if i, ok := o.index[key]; ok {
		o.vals[i] = v
		return
	}
	o.index[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, v)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	i, ok := o.index[key]
	if !ok {
		return Value{}, false
	}
	return o.vals[i], true
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.index[key]
	return ok
}

// Delete removes key, preserving the order of the remaining keys.
func (o *Object) Delete(key string) {
	i, ok := o.index[key]
	if !ok {
		return
	}
	o.keys = append(o.keys[:i], o.keys[i+1:]...)
	o.vals = append(o.vals[:i], o.vals[i+1:]...)
	delete(o.index, key)
	for j := i; j < len(o.keys); j++ {
		o.index[o.keys[j]] = j
	}
}

// Len returns the number of keys.
func (o *Object) Len() int { return len(o.keys) }

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Range calls fn for each entry in insertion order until fn returns false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	for i, k := range o.keys {
		if !fn(k, o.vals[i]) {
			return
		}
	}
}

// Equal reports whether a and b hold the same data. Object key order is
// significant because it is part of the encoded form. Inputs must be acyclic.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		if a.arr.Len() != b.arr.Len() {
			return false
		}
		for i := range a.arr.items {
			if !Equal(a.arr.items[i], b.arr.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for i, k := range a.obj.keys {
			if b.obj.keys[i] != k || !Equal(a.obj.vals[i], b.obj.vals[i]) {
				return false
			}
		}
		return true
	}
	return false
}
