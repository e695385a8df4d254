package nestform

import (
	"strconv"
	"strings"
)

// SplitKey splits a bracket key into its path segments:
//
//	SplitKey("badgers[0][items]") == []string{"badgers", "0", "items"}
//
// It fails with CodeMalformedKey on an empty head, an unterminated bracket or
// text between segments.
func SplitKey(key string) ([]string, error) {
	head, rest, found := strings.Cut(key, "[")
	if head == "" {
		return nil, NewError(CodeMalformedKey, key, KindString)
	}
	segs := []string{head}
	if !found {
		return segs, nil
	}
	rest = "[" + rest
	for rest != "" {
		if rest[0] != '[' {
			return nil, NewError(CodeMalformedKey, key, KindString)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, NewError(CodeMalformedKey, key, KindString)
		}
		segs = append(segs, rest[1:end])
		rest = rest[end+1:]
	}
	return segs, nil
}

type formNode struct {
	leaf     *string
	keys     []string
	children map[string]*formNode
}

func (n *formNode) child(seg string) *formNode {
	if n.children == nil {
		n.children = map[string]*formNode{}
	}
	if seg == "" {
		// "a[]" appends
		seg = strconv.Itoa(len(n.keys))
	}
	c, ok := n.children[seg]
	if !ok {
		c = &formNode{}
		n.children[seg] = c
		n.keys = append(n.keys, seg)
	}
	return c
}

// Unflatten rebuilds a tree from bracket-keyed pairs. It is the inverse of
// Encode for strings, sequences and string-keyed maps: containers whose keys
// are exactly 0..n-1 in order become Seq, other containers become Map, and
// leaves are String. A repeated leaf key keeps the last value; a key used both
// as a leaf and as a container fails with CodeConflict.
func Unflatten(pairs Pairs) (Value, error) {
	root := &formNode{}
	for _, kv := range pairs {
		segs, err := SplitKey(kv.Key)
		if err != nil {
			return Value{}, err
		}
		n := root
		for i, seg := range segs {
			if n.leaf != nil {
				return Value{}, NewError(CodeConflict, kv.Key, KindString)
			}
			n = n.child(seg)
			if i == len(segs)-1 {
				if len(n.keys) > 0 {
					return Value{}, NewError(CodeConflict, kv.Key, KindString)
				}
				val := kv.Value
				n.leaf = &val
			}
		}
	}
	return root.value(), nil
}

func (n *formNode) value() Value {
	if n.leaf != nil {
		return String(*n.leaf)
	}
	isSeq := len(n.keys) > 0
	for i, k := range n.keys {
		if k != strconv.Itoa(i) {
			isSeq = false
			break
		}
	}
	if isSeq {
		elems := make([]Value, len(n.keys))
		for i, k := range n.keys {
			elems[i] = n.children[k].value()
		}
		return Seq(elems...)
	}
	entries := make([]Entry, len(n.keys))
	for i, k := range n.keys {
		entries[i] = E(k, n.children[k].value())
	}
	return Map(entries...)
}

// ParseFormValue is ParseForm followed by Unflatten.
func ParseFormValue(body string) (Value, error) {
	pairs, err := ParseForm(body)
	if err != nil {
		return Value{}, err
	}
	return Unflatten(pairs)
}
