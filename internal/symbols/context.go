package symbols

import (
	"github.com/google/uuid"

	"github.com/nstar-lang/nstar/internal/scope"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

// Context owns the user-defined symbol tables of one compilation.
// It is not safe for concurrent use. Builtins are shared and read-only.
type Context struct {
	// revision changes whenever a table that derived answers depend on
	// changes; see Revision.
	revision uuid.UUID

	builtins *Builtins

	// Type path key -> declaration
	types map[string]TypeDecl

	// Container key -> nested type name -> path
	// e.g. "N.A" -> "B" -> N.A.B
	nested map[string]map[string]scope.BlockStack

	// Container key -> property name -> record, plus declaration order
	properties    map[string]map[string]PropertyRecord
	propertyOrder map[string][]string

	constants map[string]map[string]ConstantRecord

	// Container key -> function name -> overloads
	functions map[string]map[string][]Overload

	constructors map[string][]Overload
	indexers     map[string][]Overload

	// Operand type key -> operator -> overloads
	unary  map[string]map[string][]Overload
	binary map[string]map[string][]Overload

	enumConstants map[string]map[string]EnumConstant

	// Type key -> implemented interfaces
	interfaces map[string][]typesystem.NStarType

	// Scope key -> variable name -> record
	variables map[string]map[string]VariableRecord

	conversions *Conversions

	// Source key -> destination key -> answer; dropped on any graph change
	closure map[string]map[string]Reachability
}

// NewContext creates an empty compilation context sharing the builtins.
func NewContext() *Context {
	c := &Context{builtins: GetBuiltins()}
	c.Reset()
	return c
}

// Reset clears every user table so the context can host a new compilation.
func (c *Context) Reset() {
	c.types = make(map[string]TypeDecl)
	c.nested = make(map[string]map[string]scope.BlockStack)
	c.properties = make(map[string]map[string]PropertyRecord)
	c.propertyOrder = make(map[string][]string)
	c.constants = make(map[string]map[string]ConstantRecord)
	c.functions = make(map[string]map[string][]Overload)
	c.constructors = make(map[string][]Overload)
	c.indexers = make(map[string][]Overload)
	c.unary = make(map[string]map[string][]Overload)
	c.binary = make(map[string]map[string][]Overload)
	c.enumConstants = make(map[string]map[string]EnumConstant)
	c.interfaces = make(map[string][]typesystem.NStarType)
	c.variables = make(map[string]map[string]VariableRecord)
	c.conversions = NewConversions()
	c.invalidate()
}

// Revision identifies the current state of the type, interface and
// conversion tables. Answers memoised against one revision are stale once
// it changes.
func (c *Context) Revision() uuid.UUID { return c.revision }

func (c *Context) invalidate() {
	c.closure = nil
	c.revision = uuid.New()
}

func (c *Context) Builtins() *Builtins { return c.builtins }

// DeclareType registers a user type and indexes it under its container.
func (c *Context) DeclareType(decl TypeDecl) error {
	key := decl.Path.Key()
	if _, ok := c.types[key]; ok {
		container, name := decl.Path.Split()
		return &DuplicateError{What: "type", Scope: container, Name: name}
	}
	c.types[key] = decl
	container, name := decl.Path.Split()
	if c.nested[container.Key()] == nil {
		c.nested[container.Key()] = make(map[string]scope.BlockStack)
	}
	c.nested[container.Key()][name] = decl.Path
	c.invalidate()
	return nil
}

// Type returns the declaration of the type at path.
func (c *Context) Type(path scope.BlockStack) (TypeDecl, bool) {
	d, ok := c.types[path.Key()]
	return d, ok
}

// NestedType looks up a type called name declared directly in container.
func (c *Context) NestedType(container scope.BlockStack, name string) (scope.BlockStack, bool) {
	p, ok := c.nested[container.Key()][name]
	return p, ok
}

// AddProperty records a property; its Index is assigned from declaration order.
func (c *Context) AddProperty(container scope.BlockStack, p PropertyRecord) error {
	key := container.Key()
	if _, ok := c.properties[key][p.Name]; ok {
		return &DuplicateError{What: "property", Scope: container, Name: p.Name}
	}
	if c.properties[key] == nil {
		c.properties[key] = make(map[string]PropertyRecord)
	}
	p.Index = len(c.propertyOrder[key])
	c.properties[key][p.Name] = p
	c.propertyOrder[key] = append(c.propertyOrder[key], p.Name)
	return nil
}

func (c *Context) Property(container scope.BlockStack, name string) (PropertyRecord, bool) {
	p, ok := c.properties[container.Key()][name]
	return p, ok
}

// Properties returns the properties of container in declaration order.
func (c *Context) Properties(container scope.BlockStack) []PropertyRecord {
	key := container.Key()
	out := make([]PropertyRecord, 0, len(c.propertyOrder[key]))
	for _, name := range c.propertyOrder[key] {
		out = append(out, c.properties[key][name])
	}
	return out
}

func (c *Context) AddConstant(container scope.BlockStack, k ConstantRecord) error {
	key := container.Key()
	if _, ok := c.constants[key][k.Name]; ok {
		return &DuplicateError{What: "constant", Scope: container, Name: k.Name}
	}
	if c.constants[key] == nil {
		c.constants[key] = make(map[string]ConstantRecord)
	}
	c.constants[key][k.Name] = k
	return nil
}

func (c *Context) Constant(container scope.BlockStack, name string) (ConstantRecord, bool) {
	k, ok := c.constants[container.Key()][name]
	return k, ok
}

func addOverload(table map[string]map[string][]Overload, key, name string, o Overload) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if table[key] == nil {
		table[key] = make(map[string][]Overload)
	}
	table[key][name] = append(table[key][name], o)
	return nil
}

// AddFunction appends an overload of name in container.
func (c *Context) AddFunction(container scope.BlockStack, name string, o Overload) error {
	return addOverload(c.functions, container.Key(), name, o)
}

// Functions returns the literal overload list declared in container.
func (c *Context) Functions(container scope.BlockStack, name string) []Overload {
	return c.functions[container.Key()][name]
}

func (c *Context) AddConstructor(container scope.BlockStack, o Overload) error {
	if err := o.Validate(); err != nil {
		return err
	}
	c.constructors[container.Key()] = append(c.constructors[container.Key()], o)
	return nil
}

func (c *Context) Constructors(container scope.BlockStack) []Overload {
	return c.constructors[container.Key()]
}

// AddIndexer registers an indexer: parameters are the index types and the
// return type is the element type.
func (c *Context) AddIndexer(container scope.BlockStack, o Overload) error {
	if err := o.Validate(); err != nil {
		return err
	}
	c.indexers[container.Key()] = append(c.indexers[container.Key()], o)
	return nil
}

func (c *Context) Indexers(container scope.BlockStack) []Overload {
	return c.indexers[container.Key()]
}

// AddUnaryOperator registers op on operand type t.
func (c *Context) AddUnaryOperator(t typesystem.NStarType, op string, o Overload) error {
	return addOverload(c.unary, t.Main.Key(), op, o)
}

func (c *Context) UnaryOperators(t typesystem.NStarType, op string) []Overload {
	return c.unary[t.Main.Key()][op]
}

// AddBinaryOperator registers op declared by type t.
func (c *Context) AddBinaryOperator(t typesystem.NStarType, op string, o Overload) error {
	return addOverload(c.binary, t.Main.Key(), op, o)
}

func (c *Context) BinaryOperators(t typesystem.NStarType, op string) []Overload {
	return c.binary[t.Main.Key()][op]
}

func (c *Context) AddEnumConstant(enum scope.BlockStack, k EnumConstant) error {
	key := enum.Key()
	if _, ok := c.enumConstants[key][k.Name]; ok {
		return &DuplicateError{What: "enum constant", Scope: enum, Name: k.Name}
	}
	if c.enumConstants[key] == nil {
		c.enumConstants[key] = make(map[string]EnumConstant)
	}
	c.enumConstants[key][k.Name] = k
	return nil
}

func (c *Context) EnumConstant(enum scope.BlockStack, name string) (EnumConstant, bool) {
	k, ok := c.enumConstants[enum.Key()][name]
	return k, ok
}

// AddInterface records that type path implements iface.
func (c *Context) AddInterface(path scope.BlockStack, iface typesystem.NStarType) {
	key := path.Key()
	for _, existing := range c.interfaces[key] {
		if existing.Equal(iface) {
			return
		}
	}
	c.interfaces[key] = append(c.interfaces[key], iface)
	c.invalidate()
}

// Interfaces returns the interfaces declared by the type at path.
func (c *Context) Interfaces(path scope.BlockStack) []typesystem.NStarType {
	return c.interfaces[path.Key()]
}

// DeclareVariable binds name in sc. Redeclaring in the same scope fails.
func (c *Context) DeclareVariable(sc scope.BlockStack, v VariableRecord) error {
	key := sc.Key()
	if _, ok := c.variables[key][v.Name]; ok {
		return &DuplicateError{What: "variable", Scope: sc, Name: v.Name}
	}
	if c.variables[key] == nil {
		c.variables[key] = make(map[string]VariableRecord)
	}
	c.variables[key][v.Name] = v
	return nil
}

func (c *Context) Variable(sc scope.BlockStack, name string) (VariableRecord, bool) {
	v, ok := c.variables[sc.Key()][name]
	return v, ok
}

// AddConversion adds a user implicit conversion and drops memoised closures.
func (c *Context) AddConversion(src, dst typesystem.NStarType, warning bool) {
	c.conversions.Add(src, dst, warning)
	c.invalidate()
}

// ConversionEdges returns the built-in edges out of src followed by the
// user-defined ones.
func (c *Context) ConversionEdges(src typesystem.NStarType) []ConversionEdge {
	builtin := c.builtins.Conversions().Edges(src)
	user := c.conversions.Edges(src)
	if len(user) == 0 {
		return builtin
	}
	out := make([]ConversionEdge, 0, len(builtin)+len(user))
	out = append(out, builtin...)
	return append(out, user...)
}

// CachedClosure returns a memoised conversion-closure answer.
func (c *Context) CachedClosure(src, dst typesystem.NStarType) (Reachability, bool) {
	r, ok := c.closure[src.Key()][dst.Key()]
	return r, ok
}

// StoreClosure memoises a conversion-closure answer.
func (c *Context) StoreClosure(src, dst typesystem.NStarType, r Reachability) {
	if c.closure == nil {
		c.closure = make(map[string]map[string]Reachability)
	}
	key := src.Key()
	if c.closure[key] == nil {
		c.closure[key] = make(map[string]Reachability)
	}
	c.closure[key][dst.Key()] = r
}
