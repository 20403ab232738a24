// Package native describes host-provided types and members in the host's own
// terms. The resolution engine depends only on the Catalog interface; loaders
// in this package build catalogs from YAML files, Go packages, protobuf
// schemas and live gRPC servers.
package native

import (
	"fmt"
	"strings"
)

// Kind categorizes a host type.
type Kind int

const (
	KindClass Kind = iota
	KindStruct
	KindInterface
	KindEnum
	KindDelegate
)

var kindNames = []string{"class", "struct", "interface", "enum", "delegate"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return KindClass, fmt.Errorf("unknown type kind %q", s)
}

// Deprecation is the severity attached to a deprecated member.
type Deprecation int

const (
	NotDeprecated Deprecation = iota
	DeprecatedWarning
	DeprecatedError
)

// TypeRef references a host type: a dotted path with arguments, a generic
// parameter of the enclosing type or callable, or a literal argument value.
type TypeRef struct {
	Path  string
	Args  []TypeRef
	Param string
	Value string
}

// IsZero reports an absent type (a callable without a result).
func (r TypeRef) IsZero() bool {
	return r.Path == "" && r.Param == "" && r.Value == "" && len(r.Args) == 0
}

// Ref builds a reference to path with type arguments.
func Ref(path string, args ...TypeRef) TypeRef {
	return TypeRef{Path: path, Args: args}
}

// ParamRef references a generic parameter.
func ParamRef(name string) TypeRef {
	return TypeRef{Param: name}
}

func (r TypeRef) String() string {
	switch {
	case r.Param != "":
		return r.Param
	case r.Value != "":
		return r.Value
	case r.Path == "":
		return ""
	}
	if len(r.Args) == 0 {
		return r.Path
	}
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		args[i] = a.String()
	}
	return r.Path + "[" + strings.Join(args, ", ") + "]"
}

// ParseRef reads the form produced by TypeRef.String. Names listed in params
// are generic parameters; digit-only arguments are literal values.
func ParseRef(s string, params ...string) (TypeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeRef{}, nil
	}
	ref, rest, err := parseRef(s, params)
	if err != nil {
		return TypeRef{}, err
	}
	if strings.TrimSpace(rest) != "" {
		return TypeRef{}, fmt.Errorf("type reference %q: unexpected %q", s, rest)
	}
	return ref, nil
}

func parseRef(s string, params []string) (TypeRef, string, error) {
	s = strings.TrimLeft(s, " ")
	end := strings.IndexAny(s, "[],")
	if end < 0 {
		end = len(s)
	}
	name := strings.TrimSpace(s[:end])
	rest := s[end:]
	if name == "" {
		return TypeRef{}, "", fmt.Errorf("type reference %q: missing name", s)
	}
	if isDigits(name) {
		return TypeRef{Value: name}, rest, nil
	}
	for _, p := range params {
		if p == name && !strings.HasPrefix(rest, "[") {
			return TypeRef{Param: name}, rest, nil
		}
	}
	ref := TypeRef{Path: name}
	if !strings.HasPrefix(rest, "[") {
		return ref, rest, nil
	}
	rest = rest[1:]
	for {
		arg, r, err := parseRef(rest, params)
		if err != nil {
			return TypeRef{}, "", err
		}
		ref.Args = append(ref.Args, arg)
		r = strings.TrimLeft(r, " ")
		switch {
		case strings.HasPrefix(r, ","):
			rest = r[1:]
		case strings.HasPrefix(r, "]"):
			return ref, r[1:], nil
		default:
			return TypeRef{}, "", fmt.Errorf("type reference %q: expected ',' or ']'", s)
		}
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Param is one declared parameter of a host callable.
type Param struct {
	Name     string
	Type     TypeRef
	Optional bool
	Variadic bool
	Ref      bool
	Out      bool
	Default  *string
}

// Callable is a host method or constructor.
type Callable struct {
	Name       string
	Params     []Param
	Return     TypeRef
	TypeParams []string
	Static     bool
	Abstract   bool
	Deprecated Deprecation
}

// Property is a host field or property. Declaring is the path of the type
// that declares it, which may be a base of the queried type.
type Property struct {
	Name      string
	Type      TypeRef
	Declaring string
	Static    bool
	ReadOnly  bool
}

// Constant is a named constant or enum member.
type Constant struct {
	Name      string
	Type      TypeRef
	Value     string
	Declaring string
}

// TypeInfo describes one host type.
type TypeInfo struct {
	Namespace    string
	Name         string
	Kind         Kind
	TypeParams   []string
	Base         *TypeRef
	Interfaces   []TypeRef
	Methods      []Callable
	Constructors []Callable
	Properties   []Property
	Constants    []Constant
}

// Path is the dotted, fully qualified name of the type.
func (t *TypeInfo) Path() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Catalog lists the host's introspectable types and members. Lookups on a
// type include members inherited through its base chain.
type Catalog interface {
	LookupType(path string) (*TypeInfo, bool)
	Methods(typePath, name string) []Callable
	Constructors(typePath string) []Callable
	Property(typePath, name string) (Property, bool)
	Constant(typePath, name string) (Constant, bool)

	// Primitive maps a host path to the model primitive it stands for.
	Primitive(nativePath string) (string, bool)
	// NativePath is the inverse of Primitive.
	NativePath(modelPrimitive string) (string, bool)

	// Types lists every type path in declaration order.
	Types() []string
}

// NotFoundError reports a missing host type.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("host type not found: %s", e.Path)
}
