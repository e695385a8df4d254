// Package yaml turns YAML documents into engine tokens by walking a
// gopkg.in/yaml.v3 node tree. Mapping order is kept; merge keys are
// expanded with explicit keys taking precedence over merged ones, and
// earlier merged mappings over later ones. Alias expansion is budgeted.
package yaml

import (
	"encoding/base64"
	"errors"
	"maps"
	"strconv"
	"strings"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/reoring/nestform"
	eng "github.com/reoring/nestform/internal/engine"
)

// maxNodeDepth stops runaway alias expansion.
const maxNodeDepth = 1000

// Alias expansion budget, on the same scale yaml.v3 applies when decoding
// into Go values: small documents may be almost all aliases, large ones
// only a tenth.
const (
	aliasRatioRangeLow  = 400000
	aliasRatioRangeHigh = 4000000
	aliasRatioRange     = float64(aliasRatioRangeHigh - aliasRatioRangeLow)
)

var errExcessiveAliasing = errors.New("document contains excessive aliasing")

func allowedAliasRatio(visits int) float64 {
	switch {
	case visits <= aliasRatioRangeLow:
		return 0.99
	case visits >= aliasRatioRangeHigh:
		return 0.10
	}
	return 0.99 - 0.89*(float64(visits-aliasRatioRangeLow)/aliasRatioRange)
}

// NewBytes parses the first document in b. An empty input is a null
// document.
func NewBytes(b []byte) (eng.TokenSource, error) {
	var root yamlv3.Node
	if err := yamlv3.Unmarshal(b, &root); err != nil {
		e := nestform.NewError(nestform.CodeParseError, "", nestform.KindUnit)
		e.Cause = err
		return nil, e
	}
	w := &walker{}
	if err := w.node(&root, "", 0); err != nil {
		return nil, err
	}
	if len(w.toks) == 0 {
		w.emit(eng.Token{Kind: eng.KindNull})
	}
	return eng.NewTokens(w.toks), nil
}

type walker struct {
	toks []eng.Token

	visits      int // nodes walked, counting every alias expansion
	aliasVisits int // nodes walked below an alias or merge
	aliasDepth  int
}

// visit charges one node against the alias budget.
func (w *walker) visit(path string) error {
	w.visits++
	if w.aliasDepth > 0 {
		w.aliasVisits++
	}
	if w.aliasVisits > 100 && w.visits > 1000 &&
		float64(w.aliasVisits)/float64(w.visits) > allowedAliasRatio(w.visits) {
		e := nestform.NewError(nestform.CodeDepthExceeded, path, nestform.KindUnit)
		e.Cause = errExcessiveAliasing
		return e
	}
	return nil
}

func (w *walker) emit(t eng.Token) {
	t.Offset = -1
	w.toks = append(w.toks, t)
}

func (w *walker) node(n *yamlv3.Node, path string, depth int) error {
	if depth > maxNodeDepth {
		return nestform.NewError(nestform.CodeDepthExceeded, path, nestform.KindUnit)
	}
	if err := w.visit(path); err != nil {
		return err
	}
	switch n.Kind {
	case yamlv3.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return w.node(n.Content[0], path, depth+1)
	case yamlv3.AliasNode:
		w.aliasDepth++
		defer func() { w.aliasDepth-- }()
		return w.node(n.Alias, path, depth+1)
	case yamlv3.SequenceNode:
		w.emit(eng.Token{Kind: eng.KindBeginArray})
		for i, c := range n.Content {
			if err := w.node(c, nestform.ComposeIndex(path, i), depth+1); err != nil {
				return err
			}
		}
		w.emit(eng.Token{Kind: eng.KindEndArray})
		return nil
	case yamlv3.MappingNode:
		w.emit(eng.Token{Kind: eng.KindBeginObject})
		if err := w.pairs(n, path, depth, map[string]struct{}{}); err != nil {
			return err
		}
		w.emit(eng.Token{Kind: eng.KindEndObject})
		return nil
	case yamlv3.ScalarNode:
		tok, err := scalar(n, path)
		if err != nil {
			return err
		}
		w.emit(tok)
		return nil
	}
	return nil
}

// pairs emits the key/value tokens of a mapping. taken holds the keys
// already set by the mappings that merge this one, and by mappings merged
// before it; those are skipped. Every key emitted here is added to taken, so
// the first definition of a merged key wins.
func (w *walker) pairs(n *yamlv3.Node, path string, depth int, taken map[string]struct{}) error {
	inherited := maps.Clone(taken)
	for i := 0; i+1 < len(n.Content); i += 2 {
		if k := n.Content[i]; k.ShortTag() != "!!merge" {
			taken[k.Value] = struct{}{}
		}
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.ShortTag() == "!!merge" {
			if err := w.merge(v, path, depth+1, taken); err != nil {
				return err
			}
			continue
		}
		if _, ok := inherited[k.Value]; ok {
			continue
		}
		tok, err := key(k, path)
		if err != nil {
			return err
		}
		w.emit(tok)
		if err := w.node(v, nestform.Compose(path, tok.String), depth+1); err != nil {
			return err
		}
	}
	return nil
}

// merge applies a merge key value: one mapping, or a sequence of mappings
// merged in order.
func (w *walker) merge(v *yamlv3.Node, path string, depth int, taken map[string]struct{}) error {
	if depth > maxNodeDepth {
		return nestform.NewError(nestform.CodeDepthExceeded, path, nestform.KindUnit)
	}
	w.aliasDepth++
	defer func() { w.aliasDepth-- }()
	if err := w.visit(path); err != nil {
		return err
	}
	for v.Kind == yamlv3.AliasNode {
		v = v.Alias
	}
	switch v.Kind {
	case yamlv3.MappingNode:
		return w.pairs(v, path, depth, taken)
	case yamlv3.SequenceNode:
		for _, c := range v.Content {
			if err := w.merge(c, path, depth+1, taken); err != nil {
				return err
			}
		}
		return nil
	}
	return nestform.NewError(nestform.CodeParseError, path, nestform.KindUnit)
}

// key turns a mapping key node into a key token. Scalar keys keep their
// type so the encoder can apply its key restriction; collection keys are
// refused here.
func key(k *yamlv3.Node, path string) (eng.Token, error) {
	for k.Kind == yamlv3.AliasNode {
		k = k.Alias
	}
	if k.Kind != yamlv3.ScalarNode {
		kind := nestform.KindMap
		if k.Kind == yamlv3.SequenceNode {
			kind = nestform.KindSeq
		}
		return eng.Token{}, nestform.NewError(nestform.CodeUnsupportedKey, path, kind)
	}
	tok, err := scalar(k, path)
	if err != nil {
		return eng.Token{}, err
	}
	kv, err := eng.BuildValue(eng.NewTokens([]eng.Token{tok}))
	if err != nil {
		return eng.Token{}, err
	}
	text, kerr := nestform.KeySegment(kv)
	if kerr != nil {
		text = k.Value
	}
	return eng.Token{Kind: eng.KindKey, String: text, KeyValue: &kv}, nil
}

func scalar(n *yamlv3.Node, path string) (eng.Token, error) {
	fail := func(kind nestform.Kind, err error) (eng.Token, error) {
		e := nestform.NewError(nestform.CodeParseError, path, kind)
		e.Cause = err
		return eng.Token{}, e
	}
	switch n.ShortTag() {
	case "!!null":
		return eng.Token{Kind: eng.KindNull}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return fail(nestform.KindBool, err)
		}
		return eng.Token{Kind: eng.KindBool, Bool: b}, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatInt(i, 10)}, nil
		}
		var u uint64
		if err := n.Decode(&u); err != nil {
			return fail(nestform.KindInt, err)
		}
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatUint(u, 10)}, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return fail(nestform.KindFloat, err)
		}
		return eng.Token{Kind: eng.KindNumber, Number: eng.FloatText(f)}, nil
	case "!!binary":
		raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return fail(nestform.KindBytes, err)
		}
		return eng.Token{Kind: eng.KindBytes, Bytes: raw}, nil
	}
	return eng.Token{Kind: eng.KindString, String: n.Value}, nil
}
