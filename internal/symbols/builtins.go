package symbols

import (
	"sync"

	"github.com/nstar-lang/nstar/internal/config"
	"github.com/nstar-lang/nstar/internal/scope"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

// PrimitiveInfo describes one primitive in the built-in primitive table.
// Rank orders the promotion lattice; it is -1 for primitives that never
// take part in arithmetic promotion.
type PrimitiveInfo struct {
	Name    string
	Numeric bool
	Integer bool
	Signed  bool
	Rank    int
}

// ShapeInfo names the generic parameters of a built-in generic shape.
// A variadic shape repeats its last parameter.
type ShapeInfo struct {
	Name     string
	Params   []string
	Variadic bool
}

// Builtins holds the read-only tables shared by every compilation.
type Builtins struct {
	primitives map[string]PrimitiveInfo

	// Shape name -> parameter names
	// e.g. "list" -> [T], "Buffer" -> [T]
	shapes map[string]ShapeInfo

	// Shape or primitive name -> implemented interfaces, in terms of the
	// shape's parameters
	// e.g. "list" -> [IEnumerable[T], IList[T]], "string" -> [IEnumerable[char]]
	interfaces map[string][]typesystem.NStarType

	// Receiver main key -> method name -> overloads
	// The object entry applies to every receiver.
	extended map[string]map[string][]Overload

	// Receiver main key -> property name -> record
	properties map[string]map[string]PropertyRecord

	conversions *Conversions
}

var (
	builtinsTable *Builtins
	builtinsOnce  sync.Once
)

// GetBuiltins returns the singleton built-in tables.
func GetBuiltins() *Builtins {
	builtinsOnce.Do(func() {
		builtinsTable = newBuiltins()
	})
	return builtinsTable
}

// InterfacesNamespace holds the built-in interfaces.
const InterfacesNamespace = "System"

// InterfaceType builds a built-in interface type.
func InterfaceType(name string, args ...typesystem.NStarType) typesystem.NStarType {
	main := scope.NewStack(
		scope.NewBlock(scope.Namespace, InterfacesNamespace),
		scope.NewBlock(scope.Interface, name),
	)
	return typesystem.Named(main, args...)
}

func newBuiltins() *Builtins {
	b := &Builtins{
		primitives:  make(map[string]PrimitiveInfo),
		shapes:      make(map[string]ShapeInfo),
		interfaces:  make(map[string][]typesystem.NStarType),
		extended:    make(map[string]map[string][]Overload),
		properties:  make(map[string]map[string]PropertyRecord),
		conversions: NewConversions(),
	}
	b.initPrimitives()
	b.initShapes()
	b.initInterfaces()
	b.initExtended()
	b.initConversions()
	return b
}

func (b *Builtins) initPrimitives() {
	add := func(name string, rank int, numeric, integer, signed bool) {
		b.primitives[name] = PrimitiveInfo{Name: name, Rank: rank, Numeric: numeric, Integer: integer, Signed: signed}
	}
	add(config.NullTypeName, -1, false, false, false)
	add(config.ObjectTypeName, -1, false, false, false)
	add(config.BoolTypeName, 0, false, false, false)
	add(config.ByteTypeName, 1, true, true, false)
	add(config.ShortTypeName, 2, true, true, true)
	add(config.CharTypeName, 3, true, true, false)
	add(config.UShortTypeName, 3, true, true, false)
	add(config.IntTypeName, 4, true, true, true)
	add(config.UIntTypeName, 5, true, true, false)
	add(config.LongTypeName, 6, true, true, true)
	add(config.ULongTypeName, 7, true, true, false)
	add(config.BigIntTypeName, 8, true, true, true)
	add(config.TimeSpanTypeName, 9, false, false, true)
	add(config.DateTimeTypeName, 10, false, false, false)
	add(config.RealTypeName, 11, true, false, true)
	add(config.ComplexTypeName, 12, true, false, true)
	add(config.StringTypeName, 13, false, false, false)
}

func (b *Builtins) initShapes() {
	b.shapes[config.ListTypeName] = ShapeInfo{Name: config.ListTypeName, Params: []string{"T"}}
	b.shapes[config.TupleTypeName] = ShapeInfo{Name: config.TupleTypeName, Params: []string{"T"}, Variadic: true}
	b.shapes[config.FuncTypeName] = ShapeInfo{Name: config.FuncTypeName, Params: []string{"TResult", "T"}, Variadic: true}
	b.shapes[config.ReadOnlySpanTypeName] = ShapeInfo{Name: config.ReadOnlySpanTypeName, Params: []string{"T"}}
	for _, name := range config.CollectionTypeNames {
		b.shapes[name] = ShapeInfo{Name: name, Params: []string{"T"}}
	}
}

func (b *Builtins) initInterfaces() {
	t := typesystem.GenericParam("T")
	comparable := InterfaceType("IComparable")

	b.interfaces[config.ListTypeName] = []typesystem.NStarType{
		InterfaceType("IEnumerable", t),
		InterfaceType("IList", t),
	}
	for _, name := range config.CollectionTypeNames {
		b.interfaces[name] = []typesystem.NStarType{InterfaceType("IEnumerable", t)}
	}
	b.interfaces[config.StringTypeName] = []typesystem.NStarType{
		InterfaceType("IEnumerable", typesystem.Char),
		comparable,
	}
	for name, info := range b.primitives {
		if info.Rank >= 0 && name != config.StringTypeName {
			b.interfaces[name] = []typesystem.NStarType{comparable}
		}
	}
}

func (b *Builtins) addMethod(receiver typesystem.NStarType, name string, ret typesystem.NStarType, params ...typesystem.NStarType) {
	o := Overload{ReturnType: ret}
	for i, p := range params {
		o.Parameters = append(o.Parameters, Parameter{Type: p, Name: paramName(i)})
	}
	b.addOverload(receiver, name, o)
}

func (b *Builtins) addOverload(receiver typesystem.NStarType, name string, o Overload) {
	key := receiver.Main.Key()
	if b.extended[key] == nil {
		b.extended[key] = make(map[string][]Overload)
	}
	b.extended[key][name] = append(b.extended[key][name], o)
}

func paramName(i int) string {
	return string(rune('a' + i))
}

func (b *Builtins) initExtended() {
	ts := typesystem.String
	b.addMethod(typesystem.Object, "ToString", ts)
	b.addMethod(typesystem.Object, "Equals", typesystem.Bool, typesystem.Object)
	b.addMethod(typesystem.Object, "GetHashCode", typesystem.Int)

	b.addMethod(ts, "Contains", typesystem.Bool, ts)
	b.addMethod(ts, "Contains", typesystem.Bool, typesystem.Char)
	b.addMethod(ts, "IndexOf", typesystem.Int, typesystem.Char)
	b.addMethod(ts, "IndexOf", typesystem.Int, ts)
	b.addMethod(ts, "Substring", ts, typesystem.Int)
	b.addMethod(ts, "Substring", ts, typesystem.Int, typesystem.Int)
	b.addMethod(ts, "Split", typesystem.ListOf(ts), typesystem.Char)
	b.addMethod(ts, "Replace", ts, ts, ts)
	b.addMethod(ts, "StartsWith", typesystem.Bool, ts)
	b.addMethod(ts, "EndsWith", typesystem.Bool, ts)
	b.addMethod(ts, "ToUpper", ts)
	b.addMethod(ts, "ToLower", ts)
	b.addMethod(ts, "Trim", ts)
	b.addOverload(ts, "Join", Overload{
		ReturnType: ts,
		Attributes: AttrStatic,
		Parameters: []Parameter{
			{Type: ts, Name: "separator"},
			{Type: typesystem.Object, Name: "values", Attributes: ParamParams},
		},
	})

	t := typesystem.GenericParam("T")
	list := typesystem.ListOf(t)
	b.addMethod(list, "Add", typesystem.Null, t)
	b.addMethod(list, "AddRange", typesystem.Null, list)
	b.addMethod(list, "Contains", typesystem.Bool, t)
	b.addMethod(list, "IndexOf", typesystem.Int, t)
	b.addMethod(list, "Insert", typesystem.Null, typesystem.Int, t)
	b.addMethod(list, "Remove", typesystem.Bool, t)
	b.addMethod(list, "RemoveAt", typesystem.Null, typesystem.Int)
	b.addMethod(list, "Reverse", typesystem.Null)
	b.addMethod(list, "Sort", typesystem.Null)
	b.addOverload(list, "GetRange", Overload{
		ReturnType: list,
		Parameters: []Parameter{
			{Type: typesystem.Int, Name: "index"},
			{Type: typesystem.Int, Name: "count", Attributes: ParamOptional, Default: strPtr("-1")},
		},
	})
	out := typesystem.GenericParam("TOut")
	b.addOverload(list, "ConvertAll", Overload{
		Restrictions: []Restriction{{Name: "TOut"}},
		ReturnType:   typesystem.ListOf(out),
		Parameters:   []Parameter{{Type: typesystem.Func(out, t), Name: "converter"}},
	})

	for name, info := range b.primitives {
		if info.Numeric {
			p := typesystem.Primitive(name)
			b.addMethod(p, "CompareTo", typesystem.Int, p)
		}
	}

	b.properties[ts.Main.Key()] = map[string]PropertyRecord{
		"Length": {Name: "Length", Type: typesystem.Int},
	}
	b.properties[list.Main.Key()] = map[string]PropertyRecord{
		"Length": {Name: "Length", Type: typesystem.Int},
	}
}

func strPtr(s string) *string { return &s }

// Default implicit conversions. Every string-to-number edge is lossy.
func (b *Builtins) initConversions() {
	edges := []struct {
		from, to typesystem.NStarType
	}{
		{typesystem.Bool, typesystem.Byte},
		{typesystem.Byte, typesystem.Short},
		{typesystem.Byte, typesystem.UShort},
		{typesystem.Char, typesystem.UShort},
		{typesystem.Short, typesystem.Int},
		{typesystem.UShort, typesystem.Int},
		{typesystem.UShort, typesystem.UInt},
		{typesystem.Int, typesystem.Long},
		{typesystem.UInt, typesystem.Long},
		{typesystem.UInt, typesystem.ULong},
		{typesystem.Long, typesystem.BigInt},
		{typesystem.ULong, typesystem.BigInt},
		{typesystem.Long, typesystem.Real},
		{typesystem.BigInt, typesystem.Real},
		{typesystem.Real, typesystem.Complex},
		{typesystem.Char, typesystem.String},
	}
	for _, e := range edges {
		b.conversions.Add(e.from, e.to, false)
	}
	for _, n := range []typesystem.NStarType{
		typesystem.Byte, typesystem.Short, typesystem.Int, typesystem.Long,
		typesystem.BigInt, typesystem.Real,
	} {
		b.conversions.Add(typesystem.String, n, true)
	}
}

// Primitive looks a primitive up by name.
func (b *Builtins) Primitive(name string) (PrimitiveInfo, bool) {
	info, ok := b.primitives[name]
	return info, ok
}

// PrimitiveOf returns the table entry for a non-generic primitive type.
func (b *Builtins) PrimitiveOf(t typesystem.NStarType) (PrimitiveInfo, bool) {
	if !t.Main.IsPrimitive() || t.Extra.Len() != 0 {
		return PrimitiveInfo{}, false
	}
	return b.Primitive(t.Main.Leaf())
}

// Shape returns the parameter names of a built-in generic shape.
func (b *Builtins) Shape(name string) (ShapeInfo, bool) {
	s, ok := b.shapes[name]
	return s, ok
}

// ShapeArgs binds a built-in generic receiver's parameters to its actual
// arguments. Lists bind T to the type one layer down.
func (b *Builtins) ShapeArgs(t typesystem.NStarType) (typesystem.Subst, bool) {
	if typesystem.IsList(t) {
		elem, _ := typesystem.PeelOne(t)
		return typesystem.Subst{"T": elem}, true
	}
	shape, ok := b.shapes[t.Main.Leaf()]
	if !ok || t.Extra.Len() == 0 {
		return nil, false
	}
	if !t.Main.IsPrimitive() && !config.IsCollectionName(t.Main.Leaf()) {
		return nil, false
	}
	args, ok := t.Extra.Types()
	if !ok {
		return nil, false
	}
	s := typesystem.Subst{}
	for i, a := range args {
		if i < len(shape.Params) {
			s[shape.Params[i]] = a
		} else if !shape.Variadic {
			return nil, false
		}
	}
	return s, true
}

// Interfaces lists the built-in interfaces t implements, instantiated for
// t's arguments.
func (b *Builtins) Interfaces(t typesystem.NStarType) []typesystem.NStarType {
	name := t.Main.Leaf()
	if !t.Main.IsPrimitive() && !typesystem.IsCollection(t) {
		return nil
	}
	decl := b.interfaces[name]
	if len(decl) == 0 {
		return nil
	}
	subst, _ := b.ShapeArgs(t)
	out := make([]typesystem.NStarType, 0, len(decl))
	for _, iface := range decl {
		inst, err := typesystem.Apply(iface, subst, config.DefaultMaxDepth)
		if err != nil {
			continue
		}
		out = append(out, inst)
	}
	return out
}

// Methods returns the extended methods named name on receivers whose main
// path is t's. It does not fall back to object.
func (b *Builtins) Methods(t typesystem.NStarType, name string) []Overload {
	return b.extended[t.Main.Key()][name]
}

// ObjectMethods returns the extended methods every receiver has.
func (b *Builtins) ObjectMethods(name string) []Overload {
	return b.extended[typesystem.Object.Main.Key()][name]
}

// Property returns a built-in property of t.
func (b *Builtins) Property(t typesystem.NStarType, name string) (PropertyRecord, bool) {
	p, ok := b.properties[t.Main.Key()][name]
	return p, ok
}

// Conversions is the default implicit-conversion graph.
func (b *Builtins) Conversions() *Conversions {
	return b.conversions
}
