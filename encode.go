package nestform

import (
	"encoding/base64"
	"strconv"
)

// Sink receives flat key/value pairs in traversal order.
type Sink interface {
	Emit(key, value string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(key, value string)

func (f SinkFunc) Emit(key, value string) { f(key, value) }

// Encode flattens v into bracket-keyed pairs starting from an empty prefix,
// so the fields of a top-level struct become bare keys. On error no pairs
// are returned.
func Encode(v Value, opts ...EncodeOpt) (Pairs, error) {
	var out Pairs
	if err := EncodeTo(&out, "", v, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeTo flattens v under prefix into sink. Pairs emitted before a failure
// stay in the sink; callers that need all-or-nothing use Encode.
func EncodeTo(sink Sink, prefix string, v Value, opts ...EncodeOpt) error {
	e := &encoder{sink: sink, opt: lastEncodeOpt(opts)}
	return e.visit(prefix, v, 0)
}

type encoder struct {
	sink Sink
	opt  EncodeOpt
}

func (e *encoder) visit(prefix string, v Value, depth int) error {
	if depth > e.opt.maxDepth() {
		return NewError(CodeDepthExceeded, prefix, v.kind)
	}
	switch v.kind {
	case KindUnit:
		return nil
	case KindBool, KindInt, KindUint, KindFloat, KindChar, KindString, KindBytes:
		e.sink.Emit(prefix, e.scalarText(v))
		return nil
	case KindOptional:
		if v.inner == nil {
			return nil
		}
		// optionality is invisible in the key path
		return e.visit(prefix, *v.inner, depth+1)
	case KindSeq:
		for i, el := range v.elems {
			if err := e.visit(ComposeIndex(prefix, i), el, depth+1); err != nil {
				return err
			}
		}
		return nil
	case KindMap:
		for _, en := range v.entries {
			seg, err := keySegment(en.Key, prefix)
			if err != nil {
				return err
			}
			if err := e.visit(Compose(prefix, seg), en.Value, depth+1); err != nil {
				return err
			}
		}
		return nil
	case KindStruct:
		return e.fields(prefix, v.fields, depth)
	case KindUnitVariant:
		e.sink.Emit(prefix, v.s)
		return nil
	case KindNewtypeVariant:
		return e.visit(Compose(prefix, v.s), *v.inner, depth+1)
	case KindStructVariant:
		return e.fields(Compose(prefix, v.s), v.fields, depth+1)
	}
	// Values are only built by this package's constructors.
	panic("nestform: invalid value kind " + strconv.Itoa(int(v.kind)))
}

func (e *encoder) fields(prefix string, fields []Field, depth int) error {
	for _, f := range fields {
		if err := e.visit(Compose(prefix, f.Name), f.Value, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) scalarText(v Value) string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUint:
		return strconv.FormatUint(v.u, 10)
	case KindFloat:
		if v.f32 {
			return strconv.FormatFloat(v.f, 'f', -1, 32)
		}
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBytes:
		if e.opt.Bytes == BytesBase64 {
			return base64.StdEncoding.EncodeToString(v.raw)
		}
		return string(v.raw)
	default: // char, string
		return v.s
	}
}
