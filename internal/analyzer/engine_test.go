package analyzer

import (
	"testing"

	"github.com/nstar-lang/nstar/internal/config"
	"github.com/nstar-lang/nstar/internal/native"
	"github.com/nstar-lang/nstar/internal/scope"
	"github.com/nstar-lang/nstar/internal/symbols"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

const geoCatalog = `
primitives:
  Int32: int
  Int64: long
  String: string
  Object: object
types:
  - namespace: Geo
    name: Shape
    methods:
      - name: Scale
        params:
          - {name: factor, type: Int32}
        return: Geo.Shape
    properties:
      - {name: Name, type: String, read_only: true}
    constants:
      - {name: Sides, type: Int32, value: "0"}
  - namespace: Geo
    name: Square
    base: Geo.Shape
    constructors:
      - params:
          - {name: side, type: Int32}
      - params:
          - {name: side, type: Int32}
          - {name: label, type: String, optional: true, default: '"sq"'}
    methods:
      - name: Scale
        params:
          - {name: factor, type: Int32}
          - {name: origin, type: Int32}
        return: Geo.Square
      - name: Old
        deprecated: error
  - namespace: Geo
    name: Box
    type_params: [T]
    properties:
      - {name: Item, type: T}
    methods:
      - name: Put
        params:
          - {name: items, type: T, variadic: true}
      - name: Map
        type_params: [U]
        params:
          - {name: f, type: "func[U, T]"}
        return: Geo.Box[U]
  - namespace: Geo
    name: Color
    kind: enum
    constants:
      - {name: Red, value: "1"}
`

func newEngine(t *testing.T) *Engine {
	t.Helper()
	cat, err := native.ParseYAML([]byte(geoCatalog), "geo.yaml")
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	return New(symbols.NewContext(), cat, nil)
}

func ns(names ...string) scope.BlockStack {
	blocks := make([]scope.Block, len(names))
	for i, n := range names {
		blocks[i] = scope.NewBlock(scope.Namespace, n)
	}
	return scope.NewStack(blocks...)
}

func class(container scope.BlockStack, name string) scope.BlockStack {
	return container.Push(scope.NewBlock(scope.Class, name))
}

func parse(t *testing.T, s string, generics ...string) typesystem.NStarType {
	t.Helper()
	typ, err := typesystem.ParseType(s, generics...)
	if err != nil {
		t.Fatalf("ParseType(%q): %v", s, err)
	}
	return typ
}

func expectInvariant(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if _, ok := r.(*typesystem.InvariantError); !ok {
			t.Errorf("expected an invariant panic, got %v", r)
		}
	}()
	fn()
}

func TestNewDefaults(t *testing.T) {
	e := New(symbols.NewContext(), nil, &config.Options{})
	if e.maxDepth != config.DefaultMaxDepth || e.tupleListLimit != config.DefaultTupleListLimit {
		t.Errorf("limits = %d, %d", e.maxDepth, e.tupleListLimit)
	}
	if len(e.Catalog().Types()) != 0 {
		t.Error("nil catalog should be empty")
	}
}

func TestNativeTypeToModel(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		ref  string
		want string
	}{
		{"Int32", "int"},
		{"list[list[Int32]]", "list(2) int"},
		{"list[3, String]", "list(3) string"},
		{"func[Int64, String]", "func[long, string]"},
		{"tuple[Int32, Int32]", "(int^2)"},
		{"Geo.Box[Int32]", "Geo.Box[int]"},
		{"Array[String]", "Array[string]"},
		{"", "null"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			ref, err := native.ParseRef(tt.ref)
			if err != nil {
				t.Fatal(err)
			}
			got, ok := e.NativeTypeToModel(ref)
			if !ok {
				t.Fatal("not translated")
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}

	color, ok := e.NativeTypeToModel(native.Ref("Geo.Color"))
	if last, _ := color.Main.Last(); !ok || last.Kind != scope.Enum {
		t.Errorf("enum kind lost: %v", color.Main)
	}
	if _, ok := e.NativeTypeToModel(native.Ref("Geo.Missing")); ok {
		t.Error("unknown host type translated")
	}
	if g, ok := e.NativeTypeToModel(native.ParamRef("T")); !ok || !g.IsGenericParam() {
		t.Error("parameter reference should become a generic parameter")
	}
}

func TestModelToNative(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		model string
		want  string
	}{
		{"int", "Int32"},
		{"list(2) int", "list[list[Int32]]"},
		{"Geo.Box[string]", "Geo.Box[String]"},
		{"real", "real"},
	}
	for _, tt := range tests {
		ref, ok := e.ModelToNative(parse(t, tt.model))
		if !ok || ref.String() != tt.want {
			t.Errorf("ModelToNative(%s) = %s, %v; want %s", tt.model, ref, ok, tt.want)
		}
	}
	if ref, _ := e.ModelToNative(typesystem.GenericParam("T")); ref.Param != "T" {
		t.Errorf("generic parameter = %+v", ref)
	}
}
