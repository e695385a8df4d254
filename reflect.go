package nestform

import (
	"encoding"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Describer lets a type provide its own structured form. It takes precedence
// over every other rule in ValueOf.
type Describer interface {
	FormValue() (Value, error)
}

// Variant marks a Go type that stands for one case of a tagged union.
// A nil payload makes a unit variant, a struct payload a struct variant and
// anything else a newtype variant.
type Variant interface {
	FormVariant() (name string, payload any)
}

var (
	_valueType         = reflect.TypeOf(Value{})
	_describerType     = reflect.TypeOf((*Describer)(nil)).Elem()
	_variantType       = reflect.TypeOf((*Variant)(nil)).Elem()
	_textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// ValueOf converts a Go value into a Value.
//
// Struct keys resolve with priority form:"name" > json:"name" > field name,
// and "-" skips the field. Tag options: omitempty drops zero values, inline
// flattens a struct or map field into its parent. Embedded structs without
// a tag name are flattened like encoding/json does. Map entries are ordered
// by key text so the output is byte-stable.
func ValueOf(v any, opts ...ReflectOpt) (Value, error) {
	var opt ReflectOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	r := &reflector{tag: opt.tagName(), maxDepth: opt.maxDepth()}
	return r.value(reflect.ValueOf(v), "", 0)
}

type reflector struct {
	tag      string
	maxDepth int
}

func (r *reflector) value(rv reflect.Value, path string, depth int) (Value, error) {
	if depth > r.maxDepth {
		return Value{}, NewError(CodeDepthExceeded, path, KindUnit)
	}
	if !rv.IsValid() {
		return None(), nil
	}
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return None(), nil
	}
	if rv.Type() == _valueType && rv.CanInterface() {
		return rv.Interface().(Value), nil
	}
	if v, ok, err := r.custom(rv, path, depth); ok || err != nil {
		return v, err
	}

	switch rv.Kind() {
	case reflect.Pointer:
		inner, err := r.value(rv.Elem(), path, depth+1)
		if err != nil {
			return Value{}, err
		}
		return Some(inner), nil
	case reflect.Interface:
		return r.value(rv.Elem(), path, depth+1)
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), nil
	case reflect.Float32:
		return Float32(float32(rv.Float())), nil
	case reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Bytes(rv.Bytes()), nil
		}
		return r.seq(rv, path, depth)
	case reflect.Array:
		return r.seq(rv, path, depth)
	case reflect.Map:
		return r.mapValue(rv, path, depth)
	case reflect.Struct:
		fields, err := r.structFields(rv, path, depth, nil)
		if err != nil {
			return Value{}, err
		}
		return Struct(fields...), nil
	}
	e := NewError(CodeUnsupportedType, path, KindUnit)
	e.Cause = fmt.Errorf("go type %s", rv.Type())
	return Value{}, e
}

// custom applies Describer, Variant and TextMarshaler, in that order.
func (r *reflector) custom(rv reflect.Value, path string, depth int) (Value, bool, error) {
	target := rv
	if !implementsAny(rv.Type()) {
		if rv.Kind() == reflect.Pointer || !rv.CanAddr() || !implementsAny(reflect.PointerTo(rv.Type())) {
			return Value{}, false, nil
		}
		target = rv.Addr()
	}
	if !target.CanInterface() {
		return Value{}, false, nil
	}
	switch x := target.Interface().(type) {
	case Describer:
		v, err := x.FormValue()
		if err != nil {
			e := NewError(CodeUnsupportedType, path, KindUnit)
			e.Cause = fmt.Errorf("describe %s: %w", rv.Type(), err)
			return Value{}, true, e
		}
		return v, true, nil
	case Variant:
		name, payload := x.FormVariant()
		if payload == nil {
			return UnitVariant(name), true, nil
		}
		pv, err := r.value(reflect.ValueOf(payload), Compose(path, name), depth+1)
		if err != nil {
			return Value{}, true, err
		}
		if inner, ok := pv.Elem(); ok && pv.kind == KindOptional {
			pv = inner
		}
		switch pv.kind {
		case KindStruct:
			return StructVariant(name, pv.fields...), true, nil
		case KindOptional:
			// absent payload
			return UnitVariant(name), true, nil
		}
		return NewtypeVariant(name, pv), true, nil
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			e := NewError(CodeUnsupportedType, path, KindString)
			e.Cause = fmt.Errorf("marshal text %s: %w", rv.Type(), err)
			return Value{}, true, e
		}
		return String(string(b)), true, nil
	}
	return Value{}, false, nil
}

func implementsAny(t reflect.Type) bool {
	return t.Implements(_describerType) || t.Implements(_variantType) || t.Implements(_textMarshalerType)
}

func (r *reflector) seq(rv reflect.Value, path string, depth int) (Value, error) {
	n := rv.Len()
	elems := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		v, err := r.value(rv.Index(i), ComposeIndex(path, i), depth+1)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
	}
	return Seq(elems...), nil
}

type sortableEntry struct {
	text      string
	supported bool
	entry     Entry
}

func (r *reflector) mapValue(rv reflect.Value, path string, depth int) (Value, error) {
	items := make([]sortableEntry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := r.value(iter.Key(), path, depth+1)
		if err != nil {
			return Value{}, err
		}
		text, kerr := KeySegment(k)
		if kerr != nil {
			// kept as-is; the encoder reports it with the right path
			text = k.kind.String()
			if iter.Key().CanInterface() {
				text = fmt.Sprint(iter.Key().Interface())
			}
		}
		v, err := r.value(iter.Value(), Compose(path, text), depth+1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, sortableEntry{text: text, supported: kerr == nil, entry: Entry{Key: k, Value: v}})
	}
	slices.SortFunc(items, func(a, b sortableEntry) int {
		if c := strings.Compare(a.text, b.text); c != 0 {
			return c
		}
		return int(a.entry.Key.kind) - int(b.entry.Key.kind)
	})
	entries := make([]Entry, len(items))
	for i := range items {
		// two keys reducing to one segment would emit the same form key twice
		if i > 0 && items[i].supported && items[i-1].supported && items[i].text == items[i-1].text {
			return Value{}, NewError(CodeDuplicateKey, Compose(path, items[i].text), items[i].entry.Key.kind)
		}
		entries[i] = items[i].entry
	}
	return Map(entries...), nil
}

func (r *reflector) structFields(rv reflect.Value, path string, depth int, out []Field) ([]Field, error) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		// unexported embedded structs still promote their exported fields
		if !sf.IsExported() && !(sf.Anonymous && sf.Type.Kind() == reflect.Struct) {
			continue
		}
		key := resolveFieldKey(sf, r.tag)
		if key.name == "-" {
			continue
		}
		fv := rv.Field(i)
		if key.inline || (sf.Anonymous && !key.named && indirectKind(sf.Type) == reflect.Struct && !implementsAny(sf.Type)) {
			var err error
			out, err = r.inline(fv, path, depth, out)
			if err != nil {
				return nil, err
			}
			continue
		}
		if key.omitempty && fv.IsZero() {
			continue
		}
		fp := Compose(path, key.name)
		v, err := r.value(fv, fp, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, F(key.name, v))
	}
	return out, nil
}

// inline flattens a struct, map or struct-like Value into the parent's
// field list.
func (r *reflector) inline(fv reflect.Value, path string, depth int, out []Field) ([]Field, error) {
	for fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface {
		if fv.IsNil() {
			return out, nil
		}
		fv = fv.Elem()
	}
	if fv.Kind() == reflect.Struct && fv.Type() != _valueType && !implementsAny(fv.Type()) {
		return r.structFields(fv, path, depth+1, out)
	}
	v, err := r.value(fv, path, depth+1)
	if err != nil {
		return nil, err
	}
	for v.kind == KindOptional && v.inner != nil {
		v = *v.inner
	}
	switch v.kind {
	case KindStruct:
		return append(out, v.fields...), nil
	case KindMap:
		for _, en := range v.entries {
			seg, err := keySegment(en.Key, path)
			if err != nil {
				return nil, err
			}
			out = append(out, F(seg, en.Value))
		}
		return out, nil
	case KindOptional, KindUnit:
		return out, nil
	}
	e := NewError(CodeUnsupportedType, path, v.kind)
	e.Cause = fmt.Errorf("cannot inline %s", fv.Type())
	return nil, e
}

func indirectKind(t reflect.Type) reflect.Kind {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind()
}

type fieldKey struct {
	name      string
	named     bool // name came from a tag
	omitempty bool
	inline    bool
}

// resolveFieldKey applies the key rule: tag:"name" > json:"name" > field
// name; "-" disables the field. Options come from whichever tag supplied the
// key.
func resolveFieldKey(sf reflect.StructField, tag string) fieldKey {
	raw, ok := sf.Tag.Lookup(tag)
	if !ok {
		raw, ok = sf.Tag.Lookup("json")
	}
	if !ok {
		return fieldKey{name: sf.Name}
	}
	if raw == "-" {
		return fieldKey{name: "-"}
	}
	parts := strings.Split(raw, ",")
	k := fieldKey{name: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		switch strings.TrimSpace(p) {
		case "omitempty":
			k.omitempty = true
		case "inline", "flatten":
			k.inline = true
		}
	}
	if k.name == "" {
		k.name = sf.Name
	} else {
		k.named = true
	}
	return k
}
