package nestform

import "math"

// Kind enumerates the node kinds a Value can carry. The set is closed; the
// encoder handles every member.
type Kind uint8

const (
	KindUnit Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindChar
	KindString
	KindBytes
	KindOptional
	KindSeq
	KindMap
	KindStruct
	KindUnitVariant
	KindNewtypeVariant
	KindStructVariant
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindOptional:
		return "optional"
	case KindSeq:
		return "seq"
	case KindMap:
		return "map"
	case KindStruct:
		return "struct"
	case KindUnitVariant:
		return "unit_variant"
	case KindNewtypeVariant:
		return "newtype_variant"
	case KindStructVariant:
		return "struct_variant"
	default:
		return "unknown"
	}
}

// IsScalar reports whether k is a leaf kind with no children.
func (k Kind) IsScalar() bool {
	switch k {
	case KindBool, KindInt, KindUint, KindFloat, KindChar, KindString, KindBytes:
		return true
	}
	return false
}

// Value is one node of a structured value tree. The zero Value is Unit.
//
// Values are immutable once built: constructors copy nothing, so callers
// must not mutate slices they passed in while the Value is in use.
type Value struct {
	kind Kind

	// Scalar payloads (only one valid based on kind)
	b   bool
	i   int64
	u   uint64
	f   float64
	f32 bool // float was produced from a float32
	s   string // string, char (as text), variant name
	raw []byte

	// Container payloads
	inner   *Value // optional (nil means absent) and newtype variant
	elems   []Value
	entries []Entry
	fields  []Field
}

// Field is a named struct member. Field order is significant.
type Field struct {
	Name  string
	Value Value
}

// Entry is a map member. Keys are Values and are reduced to text when
// encoded; entry order is significant.
type Entry struct {
	Key   Value
	Value Value
}

// F builds a Field.
func F(name string, v Value) Field { return Field{Name: name, Value: v} }

// E builds an Entry with a string key.
func E(key string, v Value) Entry { return Entry{Key: String(key), Value: v} }

// Unit returns the unit value. It encodes to nothing.
func Unit() Value { return Value{} }

func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func Int(i int64) Value       { return Value{kind: KindInt, i: i} }
func Uint(u uint64) Value     { return Value{kind: KindUint, u: u} }
func Float(f float64) Value   { return Value{kind: KindFloat, f: f} }
func Float32(f float32) Value { return Value{kind: KindFloat, f: float64(f), f32: true} }
func Char(r rune) Value       { return Value{kind: KindChar, s: string(r)} }
func String(s string) Value   { return Value{kind: KindString, s: s} }
func Bytes(b []byte) Value    { return Value{kind: KindBytes, raw: b} }

// None returns an absent optional.
func None() Value { return Value{kind: KindOptional} }

// Some wraps v as a present optional.
func Some(v Value) Value { return Value{kind: KindOptional, inner: &v} }

// Optional returns Some(*v) for a non-nil v and None otherwise.
func Optional(v *Value) Value {
	if v == nil {
		return None()
	}
	return Some(*v)
}

// Seq builds an ordered sequence.
func Seq(elems ...Value) Value { return Value{kind: KindSeq, elems: elems} }

// Map builds a map whose entries are visited in the given order.
func Map(entries ...Entry) Value { return Value{kind: KindMap, entries: entries} }

// Struct builds a struct whose fields are visited in the given order.
func Struct(fields ...Field) Value { return Value{kind: KindStruct, fields: fields} }

// UnitVariant builds an enum variant identified by name only.
func UnitVariant(name string) Value { return Value{kind: KindUnitVariant, s: name} }

// NewtypeVariant builds an enum variant wrapping exactly one value.
func NewtypeVariant(name string, v Value) Value {
	return Value{kind: KindNewtypeVariant, s: name, inner: &v}
}

// StructVariant builds an enum variant carrying named fields.
func StructVariant(name string, fields ...Field) Value {
	return Value{kind: KindStructVariant, s: name, fields: fields}
}

// Kind returns the node kind.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether v is an absent optional.
func (v Value) IsNone() bool { return v.kind == KindOptional && v.inner == nil }

// Elem returns the wrapped value of a present optional or newtype variant.
func (v Value) Elem() (Value, bool) {
	if v.inner == nil {
		return Value{}, false
	}
	return *v.inner, true
}

// Name returns the variant name for variant kinds.
func (v Value) Name() string {
	switch v.kind {
	case KindUnitVariant, KindNewtypeVariant, KindStructVariant:
		return v.s
	}
	return ""
}

// Text returns the literal text of a string or char scalar.
func (v Value) Text() (string, bool) {
	if v.kind == KindString || v.kind == KindChar {
		return v.s, true
	}
	return "", false
}

func (v Value) BoolValue() (bool, bool)     { return v.b, v.kind == KindBool }
func (v Value) IntValue() (int64, bool)     { return v.i, v.kind == KindInt }
func (v Value) UintValue() (uint64, bool)   { return v.u, v.kind == KindUint }
func (v Value) FloatValue() (float64, bool) { return v.f, v.kind == KindFloat }
func (v Value) BytesValue() ([]byte, bool)  { return v.raw, v.kind == KindBytes }

// Elems returns sequence elements.
func (v Value) Elems() []Value { return v.elems }

// Entries returns map entries.
func (v Value) Entries() []Entry { return v.entries }

// Fields returns struct or struct-variant fields.
func (v Value) Fields() []Field { return v.fields }

// Equal reports deep structural equality. Floats compare by value, with NaN
// equal to NaN so decoded trees can be compared in tests.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUnit:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindUint:
		return v.u == o.u
	case KindFloat:
		if math.IsNaN(v.f) && math.IsNaN(o.f) {
			return true
		}
		return v.f == o.f
	case KindChar, KindString, KindUnitVariant:
		return v.s == o.s
	case KindBytes:
		return string(v.raw) == string(o.raw)
	case KindOptional:
		if v.inner == nil || o.inner == nil {
			return v.inner == nil && o.inner == nil
		}
		return v.inner.Equal(*o.inner)
	case KindNewtypeVariant:
		return v.s == o.s && v.inner.Equal(*o.inner)
	case KindSeq:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.entries) != len(o.entries) {
			return false
		}
		for i := range v.entries {
			if !v.entries[i].Key.Equal(o.entries[i].Key) || !v.entries[i].Value.Equal(o.entries[i].Value) {
				return false
			}
		}
		return true
	case KindStruct, KindStructVariant:
		if v.s != o.s || len(v.fields) != len(o.fields) {
			return false
		}
		for i := range v.fields {
			if v.fields[i].Name != o.fields[i].Name || !v.fields[i].Value.Equal(o.fields[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
