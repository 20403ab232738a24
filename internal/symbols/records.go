package symbols

import (
	"fmt"
	"strings"

	"github.com/nstar-lang/nstar/internal/scope"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

// ParamAttributes is a bit set of parameter modifiers.
type ParamAttributes uint8

const (
	ParamOptional ParamAttributes = 1 << iota
	ParamRef
	ParamOut
	ParamParams // variadic, must be last
)

func (a ParamAttributes) Has(flag ParamAttributes) bool { return a&flag != 0 }

// FunctionAttributes is a bit set of declaration modifiers shared by
// functions, constructors, properties and constants.
type FunctionAttributes uint16

const (
	AttrStatic FunctionAttributes = 1 << iota
	AttrAbstract
	AttrVirtual
	AttrOverride
	AttrSealed
	AttrPrivate
	AttrProtected
	AttrInternal
	AttrConst
	AttrMulticonst
	AttrDeprecated
)

var attributeNames = []struct {
	flag FunctionAttributes
	name string
}{
	{AttrStatic, "static"},
	{AttrAbstract, "abstract"},
	{AttrVirtual, "virtual"},
	{AttrOverride, "override"},
	{AttrSealed, "sealed"},
	{AttrPrivate, "private"},
	{AttrProtected, "protected"},
	{AttrInternal, "internal"},
	{AttrConst, "const"},
	{AttrMulticonst, "multiconst"},
	{AttrDeprecated, "deprecated"},
}

func (a FunctionAttributes) Has(flag FunctionAttributes) bool { return a&flag != 0 }

func (a FunctionAttributes) String() string {
	var parts []string
	for _, n := range attributeNames {
		if a.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " ")
}

// Restriction constrains one generic parameter of a declaration.
// Package restrictions denote non-type (value) parameters such as lengths.
type Restriction struct {
	Name       string
	Package    bool
	Constraint typesystem.NStarType
}

type Parameter struct {
	Type       typesystem.NStarType
	Name       string
	Attributes ParamAttributes
	Default    *string
}

// Overload is one signature of a function, constructor, indexer or operator.
type Overload struct {
	Restrictions []Restriction
	ReturnType   typesystem.NStarType
	Attributes   FunctionAttributes
	Parameters   []Parameter
}

// Validate checks that a variadic parameter can only come last.
func (o Overload) Validate() error {
	for i, p := range o.Parameters {
		if p.Attributes.Has(ParamParams) && i != len(o.Parameters)-1 {
			return fmt.Errorf("variadic parameter %q must be last", p.Name)
		}
	}
	return nil
}

// Variadic reports whether the last parameter absorbs extra arguments.
func (o Overload) Variadic() bool {
	n := len(o.Parameters)
	return n > 0 && o.Parameters[n-1].Attributes.Has(ParamParams)
}

// GenericNames lists the restriction names, in declaration order.
func (o Overload) GenericNames() []string {
	names := make([]string, len(o.Restrictions))
	for i, r := range o.Restrictions {
		names[i] = r.Name
	}
	return names
}

func (o Overload) String() string {
	var sb strings.Builder
	if s := o.Attributes.String(); s != "" {
		sb.WriteString(s)
		sb.WriteByte(' ')
	}
	if len(o.Restrictions) > 0 {
		sb.WriteByte('[')
		sb.WriteString(strings.Join(o.GenericNames(), ", "))
		sb.WriteString("] ")
	}
	sb.WriteByte('(')
	for i, p := range o.Parameters {
		if i > 0 {
			sb.WriteString(", ")
		}
		switch {
		case p.Attributes.Has(ParamParams):
			sb.WriteString("params ")
		case p.Attributes.Has(ParamRef):
			sb.WriteString("ref ")
		case p.Attributes.Has(ParamOut):
			sb.WriteString("out ")
		}
		sb.WriteString(p.Type.String())
		if p.Name != "" {
			sb.WriteByte(' ')
			sb.WriteString(p.Name)
		}
		if p.Default != nil {
			sb.WriteString(" = ")
			sb.WriteString(*p.Default)
		} else if p.Attributes.Has(ParamOptional) {
			sb.WriteString("?")
		}
	}
	sb.WriteString(") -> ")
	sb.WriteString(o.ReturnType.String())
	return sb.String()
}

// PropertyRecord is a user-defined property or field. Index is the
// declaration position within its container.
type PropertyRecord struct {
	Name       string
	Type       typesystem.NStarType
	Attributes FunctionAttributes
	Index      int
}

type ConstantRecord struct {
	Name       string
	Type       typesystem.NStarType
	Value      string
	Attributes FunctionAttributes
}

// EnumConstant is one member of a user enum; its type is the enum itself.
type EnumConstant struct {
	Name  string
	Value string
}

type VariableRecord struct {
	Name     string
	Type     typesystem.NStarType
	Constant bool
}

// TypeDecl describes a user-declared type. Base may mention GenericParams.
type TypeDecl struct {
	Path          scope.BlockStack
	Base          *typesystem.NStarType
	GenericParams []Restriction
	Attributes    FunctionAttributes
}

// Kind is the block kind of the innermost path segment.
func (d TypeDecl) Kind() scope.BlockKind {
	if b, ok := d.Path.Last(); ok {
		return b.Kind
	}
	return scope.Unnamed
}

// ParamNames lists the generic parameter names of the declaration.
func (d TypeDecl) ParamNames() []string {
	names := make([]string, len(d.GenericParams))
	for i, r := range d.GenericParams {
		names[i] = r.Name
	}
	return names
}

// DuplicateError reports a second declaration of the same member.
type DuplicateError struct {
	What  string
	Scope scope.BlockStack
	Name  string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %s already declared in %s", e.What, e.Name, e.Scope)
}
