package engine

import (
	"io"
	"strconv"
	"strings"

	"github.com/reoring/nestform"
)

// Kind represents token kinds from a document source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
	KindBytes
)

// Token represents a streaming token with approximate input offset.
//
// Key tokens carry the key text in String. Sources whose keys are not
// always strings (YAML, CBOR) also set KeyValue so the typed key survives
// into the tree.
type Token struct {
	Kind     Kind
	String   string
	Number   string
	Bool     bool
	Bytes    []byte
	KeyValue *nestform.Value
	Offset   int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// BuildValue reads one complete document from src and returns it as an
// ordered tree. Objects become maps in member order; a repeated key replaces
// the earlier value in place. Numbers that parse as int64 become Int, then
// uint64 becomes Uint, anything else Float.
func BuildValue(src TokenSource) (nestform.Value, error) {
	tok, err := src.NextToken()
	if err != nil {
		return nestform.Value{}, err
	}
	return buildValue(src, tok)
}

func buildValue(src TokenSource, tok Token) (nestform.Value, error) {
	switch tok.Kind {
	case KindBeginObject:
		return buildObject(src)
	case KindBeginArray:
		return buildArray(src)
	case KindString:
		return nestform.String(tok.String), nil
	case KindNumber:
		return NumberValue(tok.Number)
	case KindBool:
		return nestform.Bool(tok.Bool), nil
	case KindNull:
		return nestform.None(), nil
	case KindBytes:
		return nestform.Bytes(tok.Bytes), nil
	default:
		return nestform.Value{}, io.ErrUnexpectedEOF
	}
}

func buildObject(src TokenSource) (nestform.Value, error) {
	var entries []nestform.Entry
	index := map[string]int{}
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nestform.Value{}, err
		}
		if tok.Kind == KindEndObject {
			return nestform.Map(entries...), nil
		}
		if tok.Kind != KindKey {
			return nestform.Value{}, io.ErrUnexpectedEOF
		}
		vt, err := src.NextToken()
		if err != nil {
			return nestform.Value{}, err
		}
		v, err := buildValue(src, vt)
		if err != nil {
			return nestform.Value{}, err
		}
		key := nestform.String(tok.String)
		if tok.KeyValue != nil {
			key = *tok.KeyValue
		}
		if i, ok := index[tok.String]; ok {
			entries[i] = nestform.Entry{Key: key, Value: v}
			continue
		}
		index[tok.String] = len(entries)
		entries = append(entries, nestform.Entry{Key: key, Value: v})
	}
}

func buildArray(src TokenSource) (nestform.Value, error) {
	var elems []nestform.Value
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nestform.Value{}, err
		}
		if tok.Kind == KindEndArray {
			return nestform.Seq(elems...), nil
		}
		v, err := buildValue(src, tok)
		if err != nil {
			return nestform.Value{}, err
		}
		elems = append(elems, v)
	}
}

// NumberValue converts number text into Int, Uint or Float.
func NumberValue(s string) (nestform.Value, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return nestform.Int(i), nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return nestform.Uint(u), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		e := nestform.NewError(nestform.CodeParseError, "", nestform.KindFloat)
		e.Cause = err
		return nestform.Value{}, e
	}
	return nestform.Float(f), nil
}

// FloatText renders f so that NumberValue reads it back as a Float, even
// when f has no fractional part.
func FloatText(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Tokens replays a prepared token slice. Tree-shaped decoders (YAML, CBOR)
// flatten into it so they share enforcement and BuildValue with the
// streaming JSON source.
type Tokens struct {
	toks []Token
	pos  int
}

// NewTokens returns a TokenSource over toks.
func NewTokens(toks []Token) *Tokens { return &Tokens{toks: toks} }

func (t *Tokens) NextToken() (Token, error) {
	if t.pos >= len(t.toks) {
		return Token{}, io.EOF
	}
	tok := t.toks[t.pos]
	t.pos++
	return tok, nil
}

func (t *Tokens) Location() int64 { return -1 }
