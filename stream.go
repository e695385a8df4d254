package nestform

// Encoder drives the traversal one member at a time, for callers that build
// a request incrementally instead of materializing a Value tree. Keys are
// composed exactly as Encode composes them.
//
// The first error sticks: every later call on the Encoder or on any builder
// it handed out returns that error without emitting anything.
type Encoder struct {
	enc *encoder
	err error
}

// NewEncoder returns an Encoder writing to sink.
func NewEncoder(sink Sink, opts ...EncodeOpt) *Encoder {
	return &Encoder{enc: &encoder{sink: sink, opt: lastEncodeOpt(opts)}}
}

// Err returns the sticky error, if any.
func (e *Encoder) Err() error { return e.err }

func (e *Encoder) check(err error) error {
	if err != nil && e.err == nil {
		e.err = err
	}
	return e.err
}

// Value encodes a whole value at the root prefix.
func (e *Encoder) Value(v Value) error {
	if e.err != nil {
		return e.err
	}
	return e.check(e.enc.visit("", v, 0))
}

// Struct starts the top-level struct; its fields become bare keys.
func (e *Encoder) Struct() *StructEncoder { return &StructEncoder{e: e} }

// Map starts a top-level map; its keys become bare keys.
func (e *Encoder) Map() *MapEncoder { return &MapEncoder{e: e} }

func (e *Encoder) descend(prefix string, depth int) bool {
	if e.err != nil {
		return false
	}
	if depth > e.enc.opt.maxDepth() {
		e.check(NewError(CodeDepthExceeded, prefix, KindStruct))
		return false
	}
	return true
}

// StructEncoder writes named fields under a prefix.
type StructEncoder struct {
	e      *Encoder
	prefix string
	depth  int
}

// Field encodes one field. An absent optional emits nothing.
func (s *StructEncoder) Field(name string, v Value) error {
	if s.e.err != nil {
		return s.e.err
	}
	return s.e.check(s.e.enc.visit(Compose(s.prefix, name), v, s.depth+1))
}

// Struct starts a nested struct field.
func (s *StructEncoder) Struct(name string) *StructEncoder {
	p := Compose(s.prefix, name)
	s.e.descend(p, s.depth+1)
	return &StructEncoder{e: s.e, prefix: p, depth: s.depth + 1}
}

// Variant starts the fields of a struct variant held by the current value.
// For a field "e" holding variant S{a, b} the calls are
// Struct("e").Variant("S").Field("a", ...).
func (s *StructEncoder) Variant(name string) *StructEncoder { return s.Struct(name) }

// Seq starts a sequence field.
func (s *StructEncoder) Seq(name string) *SeqEncoder {
	p := Compose(s.prefix, name)
	s.e.descend(p, s.depth+1)
	return &SeqEncoder{e: s.e, prefix: p, depth: s.depth + 1}
}

// Map starts a map field.
func (s *StructEncoder) Map(name string) *MapEncoder {
	p := Compose(s.prefix, name)
	s.e.descend(p, s.depth+1)
	return &MapEncoder{e: s.e, prefix: p, depth: s.depth + 1}
}

// SeqEncoder writes elements with 0-based indices assigned in call order.
type SeqEncoder struct {
	e      *Encoder
	prefix string
	depth  int
	next   int
}

// Element encodes the next element.
func (s *SeqEncoder) Element(v Value) error {
	if s.e.err != nil {
		return s.e.err
	}
	p := ComposeIndex(s.prefix, s.next)
	s.next++
	return s.e.check(s.e.enc.visit(p, v, s.depth+1))
}

// Struct starts the next element as a struct.
func (s *SeqEncoder) Struct() *StructEncoder {
	p := ComposeIndex(s.prefix, s.next)
	s.next++
	s.e.descend(p, s.depth+1)
	return &StructEncoder{e: s.e, prefix: p, depth: s.depth + 1}
}

// Len returns the number of elements started so far.
func (s *SeqEncoder) Len() int { return s.next }

// MapEncoder writes key/value members. A value must follow its key.
type MapEncoder struct {
	e       *Encoder
	prefix  string
	depth   int
	key     string
	pending bool
}

// Key reduces k to a path segment and holds it for the next Value call.
func (m *MapEncoder) Key(k Value) error {
	if m.e.err != nil {
		return m.e.err
	}
	seg, err := keySegment(k, m.prefix)
	if err != nil {
		return m.e.check(err)
	}
	m.key, m.pending = seg, true
	return nil
}

// Value encodes the value for the pending key. Calling it without a pending
// key fails with CodeValueBeforeKey.
func (m *MapEncoder) Value(v Value) error {
	if m.e.err != nil {
		return m.e.err
	}
	if !m.pending {
		return m.e.check(NewError(CodeValueBeforeKey, m.prefix, v.kind))
	}
	p := Compose(m.prefix, m.key)
	m.key, m.pending = "", false
	return m.e.check(m.e.enc.visit(p, v, m.depth+1))
}

// Entry is Key followed by Value.
func (m *MapEncoder) Entry(k, v Value) error {
	if err := m.Key(k); err != nil {
		return err
	}
	return m.Value(v)
}

// End closes the map. A key left without a value fails with
// CodeValueBeforeKey.
func (m *MapEncoder) End() error {
	if m.e.err != nil {
		return m.e.err
	}
	if m.pending {
		return m.e.check(NewError(CodeValueBeforeKey, Compose(m.prefix, m.key), KindUnit))
	}
	return nil
}
