package nestform_test

import (
	"math"
	"testing"

	"github.com/reoring/nestform"
)

func TestValue_Accessors(t *testing.T) {
	v := nestform.Some(str("x"))
	if v.Kind() != nestform.KindOptional || v.IsNone() {
		t.Fatalf("expected present optional")
	}
	inner, ok := v.Elem()
	if !ok || inner.Kind() != nestform.KindString {
		t.Fatalf("unexpected inner: %v %v", inner.Kind(), ok)
	}
	if !nestform.None().IsNone() || !nestform.Optional(nil).IsNone() {
		t.Fatalf("expected absent optionals")
	}
	x := str("y")
	if nestform.Optional(&x).IsNone() {
		t.Fatalf("Optional(&x) must be present")
	}
	if nestform.StructVariant("S").Name() != "S" || str("s").Name() != "" {
		t.Fatalf("variant name accessor broken")
	}
	if s, ok := nestform.Char('q').Text(); !ok || s != "q" {
		t.Fatalf("char text: %q %v", s, ok)
	}
	if (nestform.Value{}).Kind() != nestform.KindUnit {
		t.Fatalf("zero Value must be unit")
	}
}

func TestValue_Equal(t *testing.T) {
	a := strc(fld("a", seq(num(1), nestform.Float(math.NaN()))), fld("m", nestform.Map(nestform.E("k", nestform.None()))))
	b := strc(fld("a", seq(num(1), nestform.Float(math.NaN()))), fld("m", nestform.Map(nestform.E("k", nestform.None()))))
	if !a.Equal(b) {
		t.Fatalf("expected equal trees")
	}
	c := strc(fld("a", seq(num(1))))
	if a.Equal(c) {
		t.Fatalf("expected different trees")
	}
	if num(1).Equal(nestform.Uint(1)) {
		t.Fatalf("kinds must match")
	}
	if !nestform.NewtypeVariant("N", num(1)).Equal(nestform.NewtypeVariant("N", num(1))) {
		t.Fatalf("newtype variants should be equal")
	}
}

func TestKind_String(t *testing.T) {
	names := map[nestform.Kind]string{
		nestform.KindUnit:           "unit",
		nestform.KindBytes:          "bytes",
		nestform.KindNewtypeVariant: "newtype_variant",
		nestform.Kind(200):          "unknown",
	}
	for k, want := range names {
		if k.String() != want {
			t.Fatalf("Kind(%d).String()=%q want %q", k, k.String(), want)
		}
	}
	if !nestform.KindChar.IsScalar() || nestform.KindSeq.IsScalar() {
		t.Fatalf("IsScalar mismatch")
	}
}
