// Package cbor turns CBOR items into engine tokens. Map entries are
// ordered by key text since CBOR maps decode into Go maps.
package cbor

import (
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/reoring/nestform"
	eng "github.com/reoring/nestform/internal/engine"
)

// decMode keeps the default map[any]any target so integer keys survive.
var decMode cbor.DecMode

func init() {
	var err error
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("cbor source: decoder initialization failed: " + err.Error())
	}
}

// NewBytes decodes one CBOR item from b.
func NewBytes(b []byte) (eng.TokenSource, error) {
	var v any
	if err := decMode.Unmarshal(b, &v); err != nil {
		e := nestform.NewError(nestform.CodeParseError, "", nestform.KindUnit)
		e.Cause = err
		return nil, e
	}
	w := &walker{}
	if err := w.item(v, ""); err != nil {
		return nil, err
	}
	return eng.NewTokens(w.toks), nil
}

type walker struct {
	toks []eng.Token
}

func (w *walker) emit(t eng.Token) {
	t.Offset = -1
	w.toks = append(w.toks, t)
}

func (w *walker) item(v any, path string) error {
	tok, ok, err := scalar(v)
	if err != nil {
		return err
	}
	if ok {
		w.emit(tok)
		return nil
	}
	switch x := v.(type) {
	case []any:
		w.emit(eng.Token{Kind: eng.KindBeginArray})
		for i, e := range x {
			if err := w.item(e, nestform.ComposeIndex(path, i)); err != nil {
				return err
			}
		}
		w.emit(eng.Token{Kind: eng.KindEndArray})
		return nil
	case map[any]any:
		raw := make([]member, 0, len(x))
		for k, e := range x {
			raw = append(raw, member{rawKey: k, elem: e})
		}
		return w.object(raw, path)
	case map[string]any:
		raw := make([]member, 0, len(x))
		for k, e := range x {
			raw = append(raw, member{rawKey: k, elem: e})
		}
		return w.object(raw, path)
	case cbor.Tag:
		return w.item(x.Content, path)
	}
	e := nestform.NewError(nestform.CodeUnsupportedType, path, nestform.KindUnit)
	e.Cause = fmt.Errorf("cbor item %T", v)
	return e
}

type member struct {
	rawKey any
	key    eng.Token
	elem   any
}

func (w *walker) object(members []member, path string) error {
	for i := range members {
		tok, ok, err := scalar(members[i].rawKey)
		if err != nil {
			return err
		}
		if !ok {
			return nestform.NewError(nestform.CodeUnsupportedKey, path, nestform.KindMap)
		}
		kv, err := eng.BuildValue(eng.NewTokens([]eng.Token{tok}))
		if err != nil {
			return err
		}
		text, serr := nestform.KeySegment(kv)
		if serr != nil {
			text = fmt.Sprint(members[i].rawKey)
		}
		members[i].key = eng.Token{Kind: eng.KindKey, String: text, KeyValue: &kv}
	}
	slices.SortFunc(members, func(a, b member) int { return strings.Compare(a.key.String, b.key.String) })

	w.emit(eng.Token{Kind: eng.KindBeginObject})
	for _, m := range members {
		w.emit(m.key)
		if err := w.item(m.elem, nestform.Compose(path, m.key.String)); err != nil {
			return err
		}
	}
	w.emit(eng.Token{Kind: eng.KindEndObject})
	return nil
}

// scalar maps the leaf types the decoder produces for an any target.
func scalar(v any) (eng.Token, bool, error) {
	switch x := v.(type) {
	case nil:
		return eng.Token{Kind: eng.KindNull}, true, nil
	case bool:
		return eng.Token{Kind: eng.KindBool, Bool: x}, true, nil
	case uint64:
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatUint(x, 10)}, true, nil
	case int64:
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatInt(x, 10)}, true, nil
	case float64:
		return eng.Token{Kind: eng.KindNumber, Number: eng.FloatText(x)}, true, nil
	case float32:
		return eng.Token{Kind: eng.KindNumber, Number: eng.FloatText(float64(x))}, true, nil
	case big.Int:
		return eng.Token{Kind: eng.KindNumber, Number: x.String()}, true, nil
	case *big.Int:
		return eng.Token{Kind: eng.KindNumber, Number: x.String()}, true, nil
	case string:
		return eng.Token{Kind: eng.KindString, String: x}, true, nil
	case []byte:
		return eng.Token{Kind: eng.KindBytes, Bytes: x}, true, nil
	case cbor.ByteString:
		return eng.Token{Kind: eng.KindBytes, Bytes: []byte(x)}, true, nil
	case cbor.SimpleValue:
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatUint(uint64(x), 10)}, true, nil
	case time.Time:
		return eng.Token{Kind: eng.KindString, String: x.Format(time.RFC3339Nano)}, true, nil
	case cbor.Tag:
		return scalar(x.Content)
	}
	return eng.Token{}, false, nil
}
