package analyzer

import (
	"testing"

	"github.com/nstar-lang/nstar/internal/native"
	"github.com/nstar-lang/nstar/internal/symbols"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

func params(types ...typesystem.NStarType) []symbols.Parameter {
	out := make([]symbols.Parameter, len(types))
	for i, t := range types {
		out[i] = symbols.Parameter{Type: t}
	}
	return out
}

func types(ts ...typesystem.NStarType) []typesystem.NStarType { return ts }

func TestScore(t *testing.T) {
	e := newEngine(t)
	i, s := typesystem.Int, typesystem.String
	optional := symbols.Parameter{Type: i, Attributes: symbols.ParamOptional}
	variadic := symbols.Parameter{Type: i, Attributes: symbols.ParamParams}

	tests := []struct {
		name   string
		params []symbols.Parameter
		args   []typesystem.NStarType
		want   int
	}{
		{"exact", params(i, i, i), types(i, i, i), 3},
		{"last differs", params(i, i, s), types(i, i, i), 2},
		{"second differs", params(i, s, i), types(i, i, i), 1},
		{"string argument for int", params(i, i, i), types(i, i, s), 2},
		{"int argument for string", params(i, s, i), types(i, i, s), 1},
		{"widening counts", params(typesystem.Long), types(i), 1},
		{"lossy parse does not count", params(i), types(s), 0},
		{"surplus arguments", params(i), types(i, i), 0},
		{"missing required", params(i, i), types(i), Impossible},
		{"missing optional", append(params(i), optional), types(i), 1},
		{"variadic surplus", append(params(s), variadic), types(s, i, i, i), 4},
		{"variadic empty", []symbols.Parameter{variadic}, nil, 0},
		{"no parameters", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Score(tt.params, tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUserDefinedFunctionExists(t *testing.T) {
	e := newEngine(t)
	ctx := e.Context()
	owner := typesystem.NStarType{Main: class(ns("N"), "C")}
	i, s := typesystem.Int, typesystem.String
	for _, ps := range [][]symbols.Parameter{params(i, i, i), params(i, i, s), params(i, s, i)} {
		if err := ctx.AddFunction(ns("N"), "f", symbols.Overload{ReturnType: typesystem.Bool, Parameters: ps}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := e.UserDefinedFunctionExists(owner, "f", types(i, i, i))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Score != 3 || !got[0].Complete {
		t.Fatalf("candidates = %+v", got)
	}
	if got[0].Origin != OriginUser || !got[0].Scope.Equal(ns("N")) {
		t.Errorf("found at %s from %s", got[0].Scope, got[0].Origin)
	}

	got, _ = e.UserDefinedFunctionExists(owner, "f", types(i, i, typesystem.Real))
	if len(got) != 2 || got[0].Score != 2 || got[0].Complete {
		t.Errorf("ties at score 2 expected, got %+v", got)
	}

	got, _ = e.UserDefinedFunctionExists(owner, "f", types(i, i, s))
	if len(got) != 1 || got[0].Score != 3 || got[0].Overload.Parameters[2].Type.String() != "string" {
		t.Errorf("(int, int, string) should pick f(int, int, string): %+v", got)
	}

	if got, _ := e.UserDefinedFunctionExists(owner, "f", types(i)); len(got) != 0 {
		t.Errorf("every overload is impossible, got %+v", got)
	}
	if got, _ := e.UserDefinedFunctionExists(owner, "g", nil); got != nil {
		t.Errorf("unknown name resolved: %+v", got)
	}
}

func TestUserDefinedFunctionGenericBase(t *testing.T) {
	e := newEngine(t)
	box, intBox := declareBoxes(t, e.Context())
	get := symbols.Overload{
		ReturnType: typesystem.GenericParam("T"),
		Parameters: []symbols.Parameter{{Type: typesystem.GenericParam("T"), Name: "fallback"}},
	}
	if err := e.Context().AddFunction(box, "GetOr", get); err != nil {
		t.Fatal(err)
	}

	got, err := e.UserDefinedFunctionExists(typesystem.NStarType{Main: intBox}, "GetOr", types(typesystem.Int))
	if err != nil || len(got) != 1 {
		t.Fatalf("GetOr = %+v, %v", got, err)
	}
	if got[0].Origin != OriginBase || got[0].Overload.ReturnType.String() != "int" {
		t.Errorf("inherited GetOr returns %s from %s", got[0].Overload.ReturnType, got[0].Origin)
	}

	got, _ = e.UserDefinedFunctionExists(typesystem.Named(box, typesystem.String), "GetOr", types(typesystem.String))
	if len(got) != 1 || got[0].Overload.ReturnType.String() != "string" || !got[0].Complete {
		t.Errorf("Box[string].GetOr = %+v", got)
	}
}

func TestUserDefinedConstructorsExist(t *testing.T) {
	e := newEngine(t)
	box, _ := declareBoxes(t, e.Context())
	e.Context().AddConstructor(box, symbols.Overload{Parameters: []symbols.Parameter{{Type: typesystem.GenericParam("T"), Name: "value"}}})

	owner := typesystem.Named(box, typesystem.Long)
	got, err := e.UserDefinedConstructorsExist(owner, types(typesystem.Int))
	if err != nil || len(got) != 1 {
		t.Fatalf("ctor = %+v, %v", got, err)
	}
	if !got[0].Overload.ReturnType.Equal(owner) || !got[0].Complete {
		t.Errorf("ctor returns %s, complete %v", got[0].Overload.ReturnType, got[0].Complete)
	}
}

func TestMethodExists(t *testing.T) {
	e := newEngine(t)
	square := parse(t, "Geo.Square")

	got, err := e.MethodExists(square, "Scale", types(typesystem.Int))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Score != 1 || got[0].Native == nil {
		t.Fatalf("Scale(int) = %+v", got)
	}
	if got[0].Overload.ReturnType.String() != "Geo.Shape" {
		t.Errorf("inherited Scale returns %s", got[0].Overload.ReturnType)
	}

	got, _ = e.MethodExists(square, "Scale", types(typesystem.Int, typesystem.Int))
	if len(got) != 1 || got[0].Overload.ReturnType.String() != "Geo.Square" {
		t.Errorf("Scale(int, int) = %+v", got)
	}

	if got, _ := e.MethodExists(square, "Old", nil); len(got) != 0 {
		t.Errorf("error-deprecated methods are not candidates: %+v", got)
	}
	if got, _ := e.MethodExists(typesystem.NStarType{Main: class(ns("N"), "Local")}, "Scale", nil); got != nil {
		t.Errorf("non-host owner resolved: %+v", got)
	}
}

func TestMethodExistsGeneric(t *testing.T) {
	e := newEngine(t)
	box := parse(t, "Geo.Box[int]")

	got, err := e.MethodExists(box, "Put", types(typesystem.Int, typesystem.Short, typesystem.Int))
	if err != nil || len(got) != 1 {
		t.Fatalf("Put = %+v, %v", got, err)
	}
	if got[0].Score != 3 || !got[0].Complete || !got[0].Overload.Variadic() {
		t.Errorf("Put(int, short, int) = %+v", got[0])
	}

	got, err = e.MethodExists(box, "Map", types(typesystem.Func(typesystem.String, typesystem.Int)))
	if err != nil || len(got) != 1 {
		t.Fatalf("Map = %+v, %v", got, err)
	}
	if got[0].Overload.ReturnType.String() != "Geo.Box[string]" || !got[0].Complete {
		t.Errorf("Map returns %s", got[0].Overload.ReturnType)
	}
	if u, ok := got[0].Patterns["U"]; !ok || !u.Equal(typesystem.String) {
		t.Errorf("patterns = %s", got[0].Patterns)
	}
}

func TestConstructorsExist(t *testing.T) {
	e := newEngine(t)
	square := parse(t, "Geo.Square")

	got, err := e.ConstructorsExist(square, types(typesystem.Int))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("both constructors tie on (int), got %d", len(got))
	}
	for _, c := range got {
		if !c.Overload.ReturnType.Equal(square) || !c.Complete {
			t.Errorf("constructor = %+v", c)
		}
	}

	got, _ = e.ConstructorsExist(square, types(typesystem.Int, typesystem.String))
	if len(got) != 1 || len(got[0].Native.Params) != 2 {
		t.Errorf("(int, string) = %+v", got)
	}
	if got, _ := e.ConstructorsExist(parse(t, "Geo.Shape"), nil); len(got) != 0 {
		t.Error("constructors are not inherited")
	}
}

func TestExtendedMethodExists(t *testing.T) {
	e := newEngine(t)

	got, err := e.ExtendedMethodExists(typesystem.ListOf(typesystem.Int), "ConvertAll",
		types(typesystem.Func(typesystem.String, typesystem.Int)))
	if err != nil || len(got) != 1 {
		t.Fatalf("ConvertAll = %+v, %v", got, err)
	}
	if got[0].Overload.ReturnType.String() != "list() string" || got[0].Origin != OriginBuiltin {
		t.Errorf("ConvertAll returns %s", got[0].Overload.ReturnType)
	}

	got, _ = e.ExtendedMethodExists(typesystem.ListOf(typesystem.Int), "GetRange", types(typesystem.Int))
	if len(got) != 1 || !got[0].Complete {
		t.Errorf("GetRange with its optional count omitted = %+v", got)
	}

	got, _ = e.ExtendedMethodExists(parse(t, "Geo.Square"), "ToString", nil)
	if len(got) != 1 || !got[0].Overload.ReturnType.Equal(typesystem.String) {
		t.Errorf("object fallback = %+v", got)
	}
}

func TestResolveCall(t *testing.T) {
	e := newEngine(t)
	square := parse(t, "Geo.Square")

	got, err := e.ResolveCall(square, "Scale", types(typesystem.Int))
	if err != nil || len(got) != 1 || got[0].Origin != OriginNative {
		t.Fatalf("host track = %+v, %v", got, err)
	}

	if err := e.Context().AddFunction(square.Main, "ToString", symbols.Overload{ReturnType: typesystem.Int}); err != nil {
		t.Fatal(err)
	}
	got, _ = e.ResolveCall(square, "ToString", nil)
	if len(got) != 1 || got[0].Origin != OriginUser || !got[0].Overload.ReturnType.Equal(typesystem.Int) {
		t.Errorf("user track should win: %+v", got)
	}

	got, _ = e.ResolveCall(typesystem.String, "Trim", nil)
	if len(got) != 1 || got[0].Origin != OriginBuiltin {
		t.Errorf("builtin track = %+v", got)
	}
	if got, _ := e.ResolveCall(square, "Nope", nil); got != nil {
		t.Errorf("Nope resolved: %+v", got)
	}
}

func TestIndexerExists(t *testing.T) {
	e := newEngine(t)
	box, intBox := declareBoxes(t, e.Context())
	e.Context().AddIndexer(box, symbols.Overload{
		ReturnType: typesystem.GenericParam("T"),
		Parameters: []symbols.Parameter{{Type: typesystem.Int, Name: "i"}},
	})

	tests := []struct {
		name   string
		owner  typesystem.NStarType
		args   []typesystem.NStarType
		want   string
		origin Origin
	}{
		{"user", typesystem.Named(box, typesystem.Real), types(typesystem.Int), "real", OriginUser},
		{"inherited", typesystem.NStarType{Main: intBox}, types(typesystem.Int), "int", OriginBase},
		{"string", typesystem.String, types(typesystem.Int), "char", OriginBuiltin},
		{"nested list", typesystem.ListN(typesystem.Int, 2), types(typesystem.Short), "list() int", OriginBuiltin},
		{"span", typesystem.ReadOnlySpan(typesystem.Byte), types(typesystem.Int), "byte", OriginBuiltin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.IndexerExists(tt.owner, tt.args)
			if err != nil || len(got) != 1 {
				t.Fatalf("IndexerExists = %+v, %v", got, err)
			}
			if got[0].Overload.ReturnType.String() != tt.want || got[0].Origin != tt.origin {
				t.Errorf("got %s from %s, want %s from %s", got[0].Overload.ReturnType, got[0].Origin, tt.want, tt.origin)
			}
		})
	}

	got, _ := e.IndexerExists(typesystem.String, types(typesystem.String))
	if len(got) != 1 || got[0].Complete {
		t.Errorf("a zero score still yields the candidate, incomplete: %+v", got)
	}
	if got, _ := e.IndexerExists(typesystem.Int, types(typesystem.Int)); len(got) != 0 {
		t.Errorf("int is not indexable: %+v", got)
	}
}

func TestGetReplacementPatterns(t *testing.T) {
	generics := []string{"T", "K", "V"}
	tests := []struct {
		name     string
		declared []string
		actual   []string
		want     map[string]string
	}{
		{"peels one layer", []string{"list() T"}, []string{"list(3) int"}, map[string]string{"T": "list(2) int"}},
		{"nested arguments", []string{"N.Pair[K, list() V]"}, []string{"N.Pair[string, list(2) long]"},
			map[string]string{"K": "string", "V": "list() long"}},
		{"first binding wins", []string{"T", "T"}, []string{"int", "string"}, map[string]string{"T": "int"}},
		{"shape mismatch binds nothing", []string{"N.Pair[K, V]"}, []string{"N.Other[int, int]"}, map[string]string{}},
		{"missing argument", []string{"T", "K"}, []string{"byte"}, map[string]string{"T": "byte"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var declared, actual []typesystem.NStarType
			for _, d := range tt.declared {
				declared = append(declared, parse(t, d, generics...))
			}
			for _, a := range tt.actual {
				actual = append(actual, parse(t, a))
			}
			s, err := GetReplacementPatterns(declared, actual, 64)
			if err != nil {
				t.Fatal(err)
			}
			if len(s) != len(tt.want) {
				t.Fatalf("patterns = %s, want %v", s, tt.want)
			}
			for name, want := range tt.want {
				if got, ok := s[name]; !ok || got.String() != want {
					t.Errorf("%s -> %s, want %s", name, got, want)
				}
			}
		})
	}
}

func TestApplyPatterns(t *testing.T) {
	o := symbols.Overload{
		Restrictions: []symbols.Restriction{{Name: "T"}},
		ReturnType:   typesystem.ListOf(typesystem.GenericParam("T")),
		Parameters:   []symbols.Parameter{{Type: typesystem.GenericParam("T"), Name: "x"}},
	}
	got, err := ApplyPatterns(o, typesystem.Subst{"T": typesystem.ListOf(typesystem.Int)}, 64)
	if err != nil {
		t.Fatal(err)
	}
	if got.ReturnType.String() != "list(2) int" || got.Parameters[0].Type.String() != "list() int" {
		t.Errorf("applied = %s", got)
	}
	if len(got.Restrictions) != 1 || o.Parameters[0].Type.String() != "T" {
		t.Error("ApplyPatterns must keep restrictions and leave the input untouched")
	}
}

func TestNativeCallableDeprecation(t *testing.T) {
	cat := native.NewStatic()
	cat.AliasPrimitive("Int32", "int")
	cat.AddType(native.TypeInfo{
		Name: "Legacy",
		Methods: []native.Callable{
			{Name: "Run", Params: []native.Param{{Name: "n", Type: native.Ref("Int32")}}, Deprecated: native.DeprecatedWarning},
		},
	})
	e := New(symbols.NewContext(), cat.Freeze(), nil)
	got, err := e.MethodExists(parse(t, "Legacy"), "Run", types(typesystem.Int))
	if err != nil || len(got) != 1 {
		t.Fatalf("Run = %+v, %v", got, err)
	}
	if !got[0].Overload.Attributes.Has(symbols.AttrDeprecated) {
		t.Error("warning-deprecated callables stay candidates, marked deprecated")
	}
}
