package nestform_test

import (
	"errors"
	"testing"

	"github.com/reoring/nestform"
)

func TestCompose(t *testing.T) {
	cases := []struct{ prefix, seg, want string }{
		{"", "badger", "badger"},
		{"badgers", "0", "badgers[0]"},
		{"badgers[0]", "items", "badgers[0][items]"},
		{"", "", ""},
		// brackets in segments are not interpreted
		{"a", "b[c]", "a[b[c]]"},
		{"", "x]y", "x]y"},
	}
	for _, c := range cases {
		if got := nestform.Compose(c.prefix, c.seg); got != c.want {
			t.Fatalf("Compose(%q,%q)=%q, want %q", c.prefix, c.seg, got, c.want)
		}
	}
	if got := nestform.ComposeIndex("ids", 12); got != "ids[12]" {
		t.Fatalf("ComposeIndex: %q", got)
	}
}

func TestKeySegment_Accepted(t *testing.T) {
	cases := []struct {
		in   nestform.Value
		want string
	}{
		{nestform.String("badger"), "badger"},
		{nestform.String(""), ""},
		{nestform.Char('x'), "x"},
		{nestform.Bool(true), "true"},
		{nestform.Bool(false), "false"},
	}
	for _, c := range cases {
		got, err := nestform.KeySegment(c.in)
		if err != nil || got != c.want {
			t.Fatalf("KeySegment(%v)=%q,%v want %q", c.in.Kind(), got, err, c.want)
		}
	}
}

func TestKeySegment_Rejected(t *testing.T) {
	rejected := []nestform.Value{
		nestform.Int(1),
		nestform.Uint(1),
		nestform.Float(1.5),
		nestform.Bytes([]byte("k")),
		nestform.Unit(),
		nestform.None(),
		nestform.Some(nestform.String("k")),
		nestform.Seq(nestform.String("k")),
		nestform.Map(),
		nestform.Struct(),
		nestform.UnitVariant("A"),
		nestform.NewtypeVariant("N", nestform.String("k")),
		nestform.StructVariant("S"),
	}
	for _, k := range rejected {
		_, err := nestform.KeySegment(k)
		if err == nil {
			t.Fatalf("expected rejection for %s", k.Kind())
		}
		if !errors.Is(err, nestform.ErrUnsupportedKeyType) {
			t.Fatalf("expected ErrUnsupportedKeyType, got %v", err)
		}
		e, ok := nestform.AsError(err)
		if !ok || e.Code != nestform.CodeUnsupportedKey || e.Kind != k.Kind() {
			t.Fatalf("expected unsupported_key carrying kind %s, got %#v", k.Kind(), e)
		}
	}
}
