package native

import (
	"errors"
	"testing"
)

const shapesYAML = `
primitives:
  Int32: int
  Int64: long
  String: string
  Object: object
  Integer: int
types:
  - namespace: Geo
    name: Shape
    kind: class
    methods:
      - name: Area
        return: Double
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

func TestParseRef(t *testing.T) {
	tests := []struct {
		in     string
		params []string
		want   string
	}{
		{"Int32", nil, "Int32"},
		{"Geo.Box[T]", []string{"T"}, "Geo.Box[T]"},
		{"Dict[String, list[Geo.Box[U]]]", []string{"U"}, "Dict[String, list[Geo.Box[U]]]"},
		{"Buffer[16, Int32]", nil, "Buffer[16, Int32]"},
		{"", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ref, err := ParseRef(tt.in, tt.params...)
			if err != nil {
				t.Fatalf("ParseRef: %v", err)
			}
			if got := ref.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}

	ref, _ := ParseRef("Box[T, 3]", "T")
	if ref.Args[0].Param != "T" || ref.Args[1].Value != "3" {
		t.Errorf("args = %+v, want a parameter and a value", ref.Args)
	}

	for _, bad := range []string{"Box[T", "Box[T] x", "[T]"} {
		if _, err := ParseRef(bad, "T"); err == nil {
			t.Errorf("ParseRef(%q) should fail", bad)
		}
	}
}

func TestParseYAML(t *testing.T) {
	cat, err := ParseYAML([]byte(shapesYAML), "shapes.yaml")
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if !cat.Frozen() {
		t.Error("parsed catalogs should be frozen")
	}
	if got := cat.Types(); len(got) != 4 || got[1] != "Geo.Square" {
		t.Errorf("Types() = %v", got)
	}

	if m, _ := cat.Primitive("Integer"); m != "int" {
		t.Errorf("Primitive(Integer) = %q", m)
	}
	if n, _ := cat.NativePath("int"); n != "Int32" {
		t.Errorf("NativePath(int) = %q, want the first alias Int32", n)
	}

	// Methods include the base chain, closest first.
	scales := cat.Methods("Geo.Square", "Scale")
	if len(scales) != 2 || len(scales[0].Params) != 2 || len(scales[1].Params) != 1 {
		t.Fatalf("Scale overloads = %+v", scales)
	}
	if old := cat.Methods("Geo.Square", "Old"); len(old) != 1 || old[0].Deprecated != DeprecatedError {
		t.Errorf("Old = %+v, want deprecated-as-error", old)
	}

	prop, ok := cat.Property("Geo.Square", "Name")
	if !ok || prop.Declaring != "Geo.Shape" || !prop.ReadOnly {
		t.Errorf("Property(Name) = %+v, %v", prop, ok)
	}
	if c, ok := cat.Constant("Geo.Square", "Sides"); !ok || c.Value != "0" {
		t.Errorf("Constant(Sides) = %+v, %v", c, ok)
	}
	if c, ok := cat.Constant("Geo.Color", "Red"); !ok || c.Type.String() != "Geo.Color" {
		t.Errorf("enum constant = %+v, %v", c, ok)
	}

	ctors := cat.Constructors("Geo.Square")
	if len(ctors) != 2 || ctors[0].Name != "Square" {
		t.Fatalf("Constructors = %+v", ctors)
	}
	if d := ctors[1].Params[1].Default; d == nil || *d != `"sq"` || !ctors[1].Params[1].Optional {
		t.Errorf("optional parameter = %+v", ctors[1].Params[1])
	}
	if len(cat.Constructors("Geo.Shape")) != 0 {
		t.Error("constructors are not inherited")
	}

	mapper := cat.Methods("Geo.Box", "Map")[0]
	if f := mapper.Params[0].Type; f.Path != "func" || f.Args[0].Param != "U" || f.Args[1].Param != "T" {
		t.Errorf("generic callable param = %+v", f)
	}
	if put := cat.Methods("Geo.Box", "Put")[0]; !put.Params[0].Variadic {
		t.Error("Put should be variadic")
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "types: [\n"},
		{"missing name", "types:\n  - kind: class\n"},
		{"bad kind", "types:\n  - name: X\n    kind: record\n"},
		{"variadic not last", "types:\n  - name: X\n    methods:\n      - name: F\n        params:\n          - {name: a, type: Int32, variadic: true}\n          - {name: b, type: Int32}\n"},
		{"bad deprecation", "types:\n  - name: X\n    methods:\n      - name: F\n        deprecated: maybe\n"},
		{"duplicate", "types:\n  - name: X\n  - name: X\n"},
		{"bad ref", "types:\n  - name: X\n    base: \"Y[\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseYAML([]byte(tt.data), "bad.yaml"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestFrozenCatalog(t *testing.T) {
	s := NewStatic().Freeze()
	if err := s.AddType(TypeInfo{Name: "X"}); !errors.Is(err, ErrFrozen) {
		t.Errorf("AddType on frozen catalog: %v", err)
	}
	if err := s.AliasPrimitive("x", "int"); !errors.Is(err, ErrFrozen) {
		t.Errorf("AliasPrimitive on frozen catalog: %v", err)
	}
}

func TestCyclicBaseChain(t *testing.T) {
	s := NewStatic()
	a, b := Ref("A"), Ref("B")
	s.AddType(TypeInfo{Name: "A", Base: &b})
	s.AddType(TypeInfo{Name: "B", Base: &a, Methods: []Callable{{Name: "F"}}})
	if got := s.Methods("A", "F"); len(got) != 1 {
		t.Errorf("Methods over a cyclic chain = %d, want 1", len(got))
	}
	if _, ok := s.Property("A", "missing"); ok {
		t.Error("missing property found")
	}
}

func TestMarshalYAMLRoundTrip(t *testing.T) {
	cat, err := ParseYAML([]byte(shapesYAML), "shapes.yaml")
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	data, err := MarshalYAML(cat)
	if err != nil {
		t.Fatalf("MarshalYAML: %v", err)
	}
	again, err := ParseYAML(data, "roundtrip.yaml")
	if err != nil {
		t.Fatalf("ParseYAML(marshalled): %v\n%s", err, data)
	}
	if n, _ := again.NativePath("int"); n != "Int32" {
		t.Errorf("alias order lost: NativePath(int) = %q", n)
	}
	sq, ok := again.LookupType("Geo.Square")
	if !ok || sq.Base == nil || sq.Base.Path != "Geo.Shape" || len(sq.Constructors) != 2 {
		t.Errorf("Geo.Square after round trip = %+v", sq)
	}
	if m := again.Methods("Geo.Box", "Map"); len(m) != 1 || m[0].Return.String() != "Geo.Box[U]" {
		t.Errorf("Geo.Box.Map after round trip = %+v", m)
	}
}

func TestMerge(t *testing.T) {
	a := NewStatic()
	a.AliasPrimitive("Int32", "int")
	a.AddType(TypeInfo{Name: "X", Methods: []Callable{{Name: "First"}}})
	b := NewStatic()
	b.AliasPrimitive("int", "int")
	b.AddType(TypeInfo{Name: "X", Methods: []Callable{{Name: "Second"}}})
	b.AddType(TypeInfo{Name: "Y"})

	merged := NewStatic()
	merged.Merge(a.Freeze())
	merged.Merge(b.Freeze())
	if len(merged.Methods("X", "First")) != 1 || len(merged.Methods("X", "Second")) != 0 {
		t.Error("earlier catalogs should win")
	}
	if _, ok := merged.LookupType("Y"); !ok {
		t.Error("Y should be merged")
	}
	if n, _ := merged.NativePath("int"); n != "Int32" {
		t.Errorf("NativePath(int) = %q", n)
	}
}
