package analyzer

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nstar-lang/nstar/internal/config"
	"github.com/nstar-lang/nstar/internal/symbols"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

func TestIsCompatibleRules(t *testing.T) {
	e := newEngine(t)
	_, intBox := declareBoxes(t, e.Context())

	tests := []struct {
		name    string
		src     typesystem.NStarType
		dst     typesystem.NStarType
		ok      bool
		warning bool
		conv    string
	}{
		{"identity", typesystem.Int, typesystem.Int, true, false, "none"},
		{"widening", typesystem.Int, typesystem.Long, true, false, "convert(long)"},
		{"narrowing", typesystem.Long, typesystem.Int, false, false, "none"},
		{"parse", typesystem.String, typesystem.Int, true, true, "parse(int)"},
		{"null source", typesystem.Null, parse(t, "Geo.Square"), true, false, "none"},
		{"object sink", parse(t, "Geo.Square"), typesystem.Object, true, false, "none"},
		{"list of object keeps lists", typesystem.ListN(typesystem.Int, 2), typesystem.ListOf(typesystem.Object), true, false, "none"},
		{"list of object wraps", typesystem.Int, typesystem.ListOf(typesystem.Object), true, false, "wrap(1)"},
		{"wrap", typesystem.Int, typesystem.ListN(typesystem.Int, 3), true, false, "wrap(3)"},
		{"convert then wrap", typesystem.Int, typesystem.ListOf(typesystem.Long), true, false, "convert(long) -> wrap(1)"},
		{"string to chars", typesystem.String, typesystem.ListOf(typesystem.Char), true, false, "convert(list() char)"},
		{"chars to strings", typesystem.ListN(typesystem.Char, 2), typesystem.ListOf(typesystem.String), true, false, "convert(list() string)"},
		{"stringify leaves", typesystem.ListOf(typesystem.Int), typesystem.ListOf(typesystem.String), true, false, "stringify"},
		{"stringify nested", typesystem.ListN(typesystem.Int, 2), typesystem.ListOf(typesystem.String), true, false, "stringify"},
		{"each", typesystem.ListOf(typesystem.Int), typesystem.ListOf(typesystem.Long), true, false, "each[convert(long)]"},
		{"no unwrap", typesystem.ListOf(typesystem.Int), typesystem.Int, false, false, "none"},
		{"list to collection", typesystem.ListOf(typesystem.Int), parse(t, "Array[int]"), true, false, "none"},
		{"list to span", typesystem.ListOf(typesystem.Byte), typesystem.ReadOnlySpan(typesystem.Short), true, false, "each[convert(short)]"},
		{"tuple", typesystem.Tuple(typesystem.Int, typesystem.Short), typesystem.Tuple(typesystem.Long, typesystem.Short), true, false, "tuple[convert(long), none]((long, short))"},
		{"tuple identity", typesystem.Tuple(typesystem.Int, typesystem.Int), typesystem.Tuple(typesystem.Int, typesystem.Int), true, false, "none"},
		{"tuple arity", typesystem.Tuple(typesystem.Int, typesystem.Int), typesystem.Tuple(typesystem.Int, typesystem.Int, typesystem.Int), false, false, "none"},
		{"tuple lossy component", typesystem.Tuple(typesystem.String, typesystem.Int), typesystem.Tuple(typesystem.Int, typesystem.Int), false, false, "none"},
		{"single tuple unwraps", typesystem.Tuple(typesystem.Int), typesystem.Long, true, false, "convert(long)"},
		{"tuple to list", typesystem.Tuple(typesystem.Int, typesystem.Short), typesystem.ListOf(typesystem.Int), true, false, "tuple[none, convert(int)](list() int)"},
		{"delegate", typesystem.Func(typesystem.Int, typesystem.Long), typesystem.Func(typesystem.Long, typesystem.Int), true, false, "none"},
		{"delegate contravariance", typesystem.Func(typesystem.Int, typesystem.Int), typesystem.Func(typesystem.Int, typesystem.Long), false, false, "none"},
		{"delegate lossy result", typesystem.Func(typesystem.String), typesystem.Func(typesystem.Int), true, true, "none"},
		{"host upcast", parse(t, "Geo.Square"), parse(t, "Geo.Shape"), true, false, "upcast(Geo.Shape)"},
		{"user upcast", typesystem.NStarType{Main: intBox}, parse(t, "N.Box[int]"), true, false, "upcast(N.Box[int])"},
		{"interface upcast", typesystem.ListOf(typesystem.Int), symbols.InterfaceType("IEnumerable", typesystem.Int), true, false, "upcast(System.IEnumerable[int])"},
		{"no downcast", parse(t, "Geo.Shape"), parse(t, "Geo.Square"), false, false, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := e.IsCompatible(tt.src, tt.dst)
			if err != nil {
				t.Fatal(err)
			}
			if c.OK != tt.ok || c.Warning != tt.warning {
				t.Fatalf("IsCompatible(%s, %s) = ok %v, warning %v; want %v, %v", tt.src, tt.dst, c.OK, c.Warning, tt.ok, tt.warning)
			}
			if got := c.Conversion.String(); got != tt.conv {
				t.Errorf("conversion = %s, want %s", got, tt.conv)
			}
		})
	}
}

func TestIsCompatibleReflexiveAndNull(t *testing.T) {
	e := newEngine(t)
	all := []typesystem.NStarType{
		typesystem.Bool, typesystem.Int, typesystem.String, typesystem.Object,
		typesystem.ListN(typesystem.Real, 2),
		typesystem.Tuple(typesystem.Int, typesystem.String),
		typesystem.Func(typesystem.Int, typesystem.String),
		parse(t, "Geo.Box[long]"),
	}
	for _, typ := range all {
		if c, err := e.IsCompatible(typ, typ); err != nil || !c.OK || c.Warning || c.Conversion != nil {
			t.Errorf("%s is not compatible with itself: %+v, %v", typ, c, err)
		}
		if c, err := e.IsCompatible(typesystem.Null, typ); err != nil || !c.OK {
			t.Errorf("null is not compatible with %s", typ)
		}
	}
}

func TestTupleToListLimit(t *testing.T) {
	e := newEngine(t)
	tuple := func(n int) typesystem.NStarType {
		comps := make([]typesystem.NStarType, n)
		for i := range comps {
			comps[i] = typesystem.Int
		}
		return typesystem.Tuple(comps...)
	}
	dst := typesystem.ListOf(typesystem.Long)

	c, err := e.IsCompatible(tuple(config.DefaultTupleListLimit), dst)
	if err != nil || !c.OK {
		t.Fatalf("%d-tuple should convert: %+v, %v", config.DefaultTupleListLimit, c, err)
	}
	c, err = e.IsCompatible(tuple(config.DefaultTupleListLimit+1), dst)
	if err != nil || c.OK {
		t.Fatalf("%d-tuple should not convert: %+v, %v", config.DefaultTupleListLimit+1, c, err)
	}
	if want := fmt.Sprintf(config.TupleTooLongHint, config.DefaultTupleListLimit); c.ExtraMessage != want {
		t.Errorf("ExtraMessage = %q, want %q", c.ExtraMessage, want)
	}

	small := New(symbols.NewContext(), nil, &config.Options{TupleListLimit: 2})
	if c, _ := small.IsCompatible(tuple(3), dst); c.OK || !strings.Contains(c.ExtraMessage, "more than 2") {
		t.Errorf("configured limit ignored: %+v", c)
	}
}

func TestIsCompatibleTransitive(t *testing.T) {
	e := newEngine(t)
	c, err := e.IsCompatible(typesystem.Byte, typesystem.Long)
	if err != nil || !c.OK || c.Warning {
		t.Fatalf("byte -> long = %+v, %v", c, err)
	}
	last := c.Conversion
	for last.Next != nil {
		last = last.Next
	}
	if last.Kind != Convert || !last.Target.Equal(typesystem.Long) {
		t.Errorf("path ends with %s", last)
	}

	a := typesystem.NStarType{Main: class(ns("N"), "A")}
	b := typesystem.NStarType{Main: class(ns("N"), "B")}
	cc := typesystem.NStarType{Main: class(ns("N"), "C")}
	e.Context().AddConversion(a, b, false)
	e.Context().AddConversion(b, cc, true)

	c, err = e.IsCompatible(a, cc)
	if err != nil || !c.OK || !c.Warning {
		t.Fatalf("A -> C = %+v, %v", c, err)
	}
	if got := c.Conversion.String(); got != "convert(N.B) -> cast(N.C)" {
		t.Errorf("A -> C conversion = %s", got)
	}
	if c, _ := e.IsCompatible(cc, a); c.OK {
		t.Error("conversions are directed")
	}
}

func TestReachPrefersWarningFree(t *testing.T) {
	e := newEngine(t)
	a := typesystem.NStarType{Main: class(ns("N"), "A")}
	b := typesystem.NStarType{Main: class(ns("N"), "B")}
	cc := typesystem.NStarType{Main: class(ns("N"), "C")}
	ctx := e.Context()
	ctx.AddConversion(a, cc, true)
	ctx.AddConversion(a, b, false)
	ctx.AddConversion(b, cc, false)

	r := e.Reach(a, cc)
	if !r.Found || r.Warning || len(r.Path) != 2 {
		t.Errorf("Reach = %+v", r)
	}
}

func TestReachMemoInvalidation(t *testing.T) {
	e := newEngine(t)
	a := typesystem.NStarType{Main: class(ns("N"), "A")}
	b := typesystem.NStarType{Main: class(ns("N"), "B")}

	if r := e.Reach(a, b); r.Found {
		t.Fatal("nothing declared yet")
	}
	e.Context().AddConversion(a, b, false)
	if r := e.Reach(a, b); !r.Found {
		t.Error("stale closure after AddConversion")
	}
	e.Context().Reset()
	if r := e.Reach(a, b); r.Found {
		t.Error("closure survived Reset")
	}
}

func TestSupertypesFollowTableChanges(t *testing.T) {
	e := newEngine(t)
	a := class(ns("N"), "A")
	if err := e.Context().DeclareType(symbols.TypeDecl{Path: a}); err != nil {
		t.Fatal(err)
	}
	src := typesystem.NStarType{Main: a}
	dst := symbols.InterfaceType("IDisposable")

	if c, _ := e.IsCompatible(src, dst); c.OK {
		t.Fatal("N.A implements nothing yet")
	}
	e.Context().AddInterface(a, dst)
	c, err := e.IsCompatible(src, dst)
	if err != nil || !c.OK || c.Conversion.String() != "upcast(System.IDisposable)" {
		t.Errorf("after AddInterface = %+v, %v", c, err)
	}

	e.Context().Reset()
	if c, _ := e.IsCompatible(src, dst); c.OK {
		t.Error("supertypes survived Reset")
	}
}

func TestIsCompatibleTooComplex(t *testing.T) {
	e := New(symbols.NewContext(), nil, &config.Options{MaxDepth: 2})
	nest := func(leaf typesystem.NStarType) typesystem.NStarType {
		out := leaf
		for i := 0; i < 4; i++ {
			out = typesystem.Tuple(out, leaf)
		}
		return out
	}
	_, err := e.IsCompatible(nest(typesystem.Int), nest(typesystem.Long))
	var tc *typesystem.TooComplexError
	if !errors.As(err, &tc) {
		t.Fatalf("expected TooComplexError, got %v", err)
	}

	if _, err := e.IsCompatible(typesystem.Int, typesystem.Long); err != nil {
		t.Errorf("shallow types must still resolve: %v", err)
	}
}
