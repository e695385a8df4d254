package nestform_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/reoring/nestform"
)

func TestPairs_EncodeEscapes(t *testing.T) {
	p := nestform.Pairs{
		{Key: "constraints[query]", Value: "a b&c=d"},
		{Key: "x", Value: ""},
		{Key: "ü", Value: "+"},
	}
	want := "constraints%5Bquery%5D=a+b%26c%3Dd&x=&%C3%BC=%2B"
	if got := p.Encode(); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got := (nestform.Pairs{}).Encode(); got != "" {
		t.Fatalf("empty pairs must encode to empty string, got %q", got)
	}
}

func TestPairs_Accessors(t *testing.T) {
	p := nestform.Pairs{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}, {Key: "a", Value: "3"}}

	if v, ok := p.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q %v", v, ok)
	}
	if _, ok := p.Get("zzz"); ok {
		t.Fatalf("Get on missing key must report false")
	}
	if got := p.Keys(); !slices.Equal(got, []string{"a", "b", "a"}) {
		t.Fatalf("unexpected keys %v", got)
	}
	vals := p.Values()
	if !slices.Equal(vals["a"], []string{"1", "3"}) || vals.Get("b") != "2" {
		t.Fatalf("unexpected values %v", vals)
	}
}

func TestParseForm_KeepsOrder(t *testing.T) {
	p, err := nestform.ParseForm("b%5B0%5D=x&&a=1+2&flag&a=%26")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	expectPairs(t, p, "b[0]=x", "a=1 2", "flag=", "a=&")
}

func TestParseForm_InvalidEscape(t *testing.T) {
	_, err := nestform.ParseForm("a=%zz")
	if !errors.Is(err, nestform.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	e, _ := nestform.AsError(err)
	if e.Code != nestform.CodeParseError || e.Path != "a" {
		t.Fatalf("unexpected error fields: %+v", e)
	}
}

func TestParseForm_InvertsEncode(t *testing.T) {
	v := strc(
		fld("title", str("fix: a&b = c")),
		fld("tags", seq(str("x y"), str("100%"))),
	)
	p := mustEncode(t, v)
	back, err := nestform.ParseForm(p.Encode())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	expectPairs(t, back, lines(p)...)
}
