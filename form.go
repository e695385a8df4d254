package nestform

import (
	"net/url"
	"strings"
)

// Pair is one flat key/value pair. Neither side is percent-encoded.
type Pair struct {
	Key   string
	Value string
}

// Pairs is the ordered encoder output. Duplicate keys are kept.
type Pairs []Pair

// Emit appends a pair; *Pairs is a Sink.
func (p *Pairs) Emit(key, value string) { *p = append(*p, Pair{Key: key, Value: value}) }

// Encode renders an application/x-www-form-urlencoded body, keeping pair
// order.
func (p Pairs) Encode() string {
	b := &strings.Builder{}
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

// Values converts to url.Values. Values of repeated keys keep their relative
// order; the order between keys is lost.
func (p Pairs) Values() url.Values {
	out := make(url.Values, len(p))
	for _, kv := range p {
		out[kv.Key] = append(out[kv.Key], kv.Value)
	}
	return out
}

// Get returns the first value for key.
func (p Pairs) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Keys returns the keys in order.
func (p Pairs) Keys() []string {
	out := make([]string, len(p))
	for i, kv := range p {
		out[i] = kv.Key
	}
	return out
}

// Marshal converts v with ValueOf and flattens it with Encode.
func Marshal(v any) (Pairs, error) {
	val, err := ValueOf(v)
	if err != nil {
		return nil, err
	}
	return Encode(val)
}

// MarshalWith is Marshal with explicit options.
func MarshalWith(v any, ropt ReflectOpt, eopt EncodeOpt) (Pairs, error) {
	val, err := ValueOf(v, ropt)
	if err != nil {
		return nil, err
	}
	return Encode(val, eopt)
}

// ParseForm splits an urlencoded body into pairs, keeping their order.
// Empty segments are skipped; a segment without '=' has an empty value.
func ParseForm(body string) (Pairs, error) {
	var out Pairs
	for body != "" {
		var seg string
		seg, body, _ = strings.Cut(body, "&")
		if seg == "" {
			continue
		}
		k, v, _ := strings.Cut(seg, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			e := NewError(CodeParseError, k, KindString)
			e.Cause = err
			return nil, e
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			e := NewError(CodeParseError, key, KindString)
			e.Cause = err
			return nil, e
		}
		out = append(out, Pair{Key: key, Value: val})
	}
	return out, nil
}
