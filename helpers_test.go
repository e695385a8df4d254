package nestform_test

import (
	"strings"
	"testing"

	"github.com/reoring/nestform"
)

// lines renders pairs as unescaped "key=value" lines for comparison.
func lines(p nestform.Pairs) []string {
	out := make([]string, len(p))
	for i, kv := range p {
		out[i] = kv.Key + "=" + kv.Value
	}
	return out
}

func mustEncode(t *testing.T, v nestform.Value, opts ...nestform.EncodeOpt) nestform.Pairs {
	t.Helper()
	p, err := nestform.Encode(v, opts...)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return p
}

func expectPairs(t *testing.T, got nestform.Pairs, want ...string) {
	t.Helper()
	g := lines(got)
	if len(g) != len(want) {
		t.Fatalf("expected %d pairs %v, got %d: %v", len(want), want, len(g), g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("pair %d: expected %q, got %q (all: %s)", i, want[i], g[i], strings.Join(g, "&"))
		}
	}
}
