package native

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a catalog.
//
//	primitives:
//	  int32: int
//	types:
//	  - namespace: System.Text
//	    name: Builder
//	    kind: class
//	    methods:
//	      - name: Append
//	        params: [{name: s, type: string}]
//	        return: System.Text.Builder
type File struct {
	// Primitives maps host paths to model primitive names.
	Primitives yaml.Node `yaml:"primitives,omitempty"`

	Types []FileType `yaml:"types"`
}

// FileType is one type entry of a catalog file. Type references are strings
// in TypeRef.String form; names listed in type_params are generic parameters.
type FileType struct {
	Namespace    string         `yaml:"namespace,omitempty"`
	Name         string         `yaml:"name"`
	Kind         string         `yaml:"kind,omitempty"`
	TypeParams   []string       `yaml:"type_params,omitempty"`
	Base         string         `yaml:"base,omitempty"`
	Interfaces   []string       `yaml:"interfaces,omitempty"`
	Methods      []FileCallable `yaml:"methods,omitempty"`
	Constructors []FileCallable `yaml:"constructors,omitempty"`
	Properties   []FileProperty `yaml:"properties,omitempty"`
	Constants    []FileConstant `yaml:"constants,omitempty"`
}

type FileCallable struct {
	Name       string      `yaml:"name,omitempty"`
	TypeParams []string    `yaml:"type_params,omitempty"`
	Params     []FileParam `yaml:"params,omitempty"`
	Return     string      `yaml:"return,omitempty"`
	Static     bool        `yaml:"static,omitempty"`
	Abstract   bool        `yaml:"abstract,omitempty"`

	// Deprecated is "", "warning" or "error".
	Deprecated string `yaml:"deprecated,omitempty"`
}

type FileParam struct {
	Name     string  `yaml:"name"`
	Type     string  `yaml:"type"`
	Optional bool    `yaml:"optional,omitempty"`
	Variadic bool    `yaml:"variadic,omitempty"`
	Ref      bool    `yaml:"ref,omitempty"`
	Out      bool    `yaml:"out,omitempty"`
	Default  *string `yaml:"default,omitempty"`
}

type FileProperty struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Static   bool   `yaml:"static,omitempty"`
	ReadOnly bool   `yaml:"read_only,omitempty"`
}

type FileConstant struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type,omitempty"`
	Value string `yaml:"value,omitempty"`
}

// LoadYAML reads a catalog file.
func LoadYAML(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return ParseYAML(data, path)
}

// ParseYAML builds a frozen catalog from YAML content.
// The path argument is used only for error messages.
func ParseYAML(data []byte, path string) (*Static, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	s := NewStatic()
	if err := f.aliases(s, path); err != nil {
		return nil, err
	}
	for i, ft := range f.Types {
		t, err := ft.toTypeInfo()
		if err != nil {
			return nil, fmt.Errorf("%s: types[%d] (%s): %w", path, i, ft.Name, err)
		}
		if err := s.AddType(t); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return s.Freeze(), nil
}

// aliases reads the primitives mapping preserving file order, so the first
// alias of a model primitive stays canonical.
func (f *File) aliases(s *Static, path string) error {
	if f.Primitives.Kind == 0 {
		return nil
	}
	if f.Primitives.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: primitives must be a mapping", path)
	}
	content := f.Primitives.Content
	for i := 0; i+1 < len(content); i += 2 {
		s.AliasPrimitive(content[i].Value, content[i+1].Value)
	}
	return nil
}

func (ft FileType) toTypeInfo() (TypeInfo, error) {
	if ft.Name == "" {
		return TypeInfo{}, fmt.Errorf("missing name")
	}
	t := TypeInfo{Namespace: ft.Namespace, Name: ft.Name, TypeParams: ft.TypeParams}
	if ft.Kind != "" {
		k, err := ParseKind(ft.Kind)
		if err != nil {
			return TypeInfo{}, err
		}
		t.Kind = k
	}
	params := ft.TypeParams
	if ft.Base != "" {
		base, err := ParseRef(ft.Base, params...)
		if err != nil {
			return TypeInfo{}, err
		}
		t.Base = &base
	}
	for _, s := range ft.Interfaces {
		r, err := ParseRef(s, params...)
		if err != nil {
			return TypeInfo{}, err
		}
		t.Interfaces = append(t.Interfaces, r)
	}
	for _, fc := range ft.Methods {
		c, err := fc.toCallable(params)
		if err != nil {
			return TypeInfo{}, fmt.Errorf("method %s: %w", fc.Name, err)
		}
		t.Methods = append(t.Methods, c)
	}
	for _, fc := range ft.Constructors {
		c, err := fc.toCallable(params)
		if err != nil {
			return TypeInfo{}, fmt.Errorf("constructor: %w", err)
		}
		c.Name = ft.Name
		t.Constructors = append(t.Constructors, c)
	}
	for _, fp := range ft.Properties {
		r, err := ParseRef(fp.Type, params...)
		if err != nil {
			return TypeInfo{}, fmt.Errorf("property %s: %w", fp.Name, err)
		}
		t.Properties = append(t.Properties, Property{Name: fp.Name, Type: r, Static: fp.Static, ReadOnly: fp.ReadOnly})
	}
	for _, fc := range ft.Constants {
		r := Ref(t.Path())
		if fc.Type != "" {
			var err error
			if r, err = ParseRef(fc.Type, params...); err != nil {
				return TypeInfo{}, fmt.Errorf("constant %s: %w", fc.Name, err)
			}
		}
		t.Constants = append(t.Constants, Constant{Name: fc.Name, Type: r, Value: fc.Value})
	}
	return t, nil
}

func (fc FileCallable) toCallable(typeParams []string) (Callable, error) {
	params := append(append([]string{}, typeParams...), fc.TypeParams...)
	c := Callable{
		Name:       fc.Name,
		TypeParams: fc.TypeParams,
		Static:     fc.Static,
		Abstract:   fc.Abstract,
	}
	switch fc.Deprecated {
	case "":
	case "warning":
		c.Deprecated = DeprecatedWarning
	case "error":
		c.Deprecated = DeprecatedError
	default:
		return Callable{}, fmt.Errorf("unknown deprecation %q", fc.Deprecated)
	}
	ret, err := ParseRef(fc.Return, params...)
	if err != nil {
		return Callable{}, err
	}
	c.Return = ret
	for i, fp := range fc.Params {
		r, err := ParseRef(fp.Type, params...)
		if err != nil {
			return Callable{}, fmt.Errorf("param %s: %w", fp.Name, err)
		}
		if fp.Variadic && i != len(fc.Params)-1 {
			return Callable{}, fmt.Errorf("variadic param %s must be last", fp.Name)
		}
		c.Params = append(c.Params, Param{
			Name: fp.Name, Type: r, Optional: fp.Optional, Variadic: fp.Variadic,
			Ref: fp.Ref, Out: fp.Out, Default: fp.Default,
		})
	}
	return c, nil
}

// MarshalYAML renders a catalog in the File form accepted by ParseYAML.
func MarshalYAML(s *Static) ([]byte, error) {
	f := File{}
	if aliases := s.Aliases(); len(aliases) > 0 {
		f.Primitives = yaml.Node{Kind: yaml.MappingNode}
		for _, native := range aliases {
			model, _ := s.Primitive(native)
			f.Primitives.Content = append(f.Primitives.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: native},
				&yaml.Node{Kind: yaml.ScalarNode, Value: model})
		}
	}
	for _, path := range s.Types() {
		t, _ := s.LookupType(path)
		f.Types = append(f.Types, fromTypeInfo(t))
	}
	out, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("marshalling catalog: %w", err)
	}
	return out, nil
}

func fromTypeInfo(t *TypeInfo) FileType {
	ft := FileType{Namespace: t.Namespace, Name: t.Name, Kind: t.Kind.String(), TypeParams: t.TypeParams}
	if t.Base != nil {
		ft.Base = t.Base.String()
	}
	for _, r := range t.Interfaces {
		ft.Interfaces = append(ft.Interfaces, r.String())
	}
	for _, c := range t.Methods {
		ft.Methods = append(ft.Methods, fromCallable(c))
	}
	for _, c := range t.Constructors {
		fc := fromCallable(c)
		fc.Name = ""
		ft.Constructors = append(ft.Constructors, fc)
	}
	for _, p := range t.Properties {
		ft.Properties = append(ft.Properties, FileProperty{Name: p.Name, Type: p.Type.String(), Static: p.Static, ReadOnly: p.ReadOnly})
	}
	for _, c := range t.Constants {
		ft.Constants = append(ft.Constants, FileConstant{Name: c.Name, Type: c.Type.String(), Value: c.Value})
	}
	return ft
}

func fromCallable(c Callable) FileCallable {
	fc := FileCallable{
		Name:       c.Name,
		TypeParams: c.TypeParams,
		Return:     c.Return.String(),
		Static:     c.Static,
		Abstract:   c.Abstract,
	}
	switch c.Deprecated {
	case DeprecatedWarning:
		fc.Deprecated = "warning"
	case DeprecatedError:
		fc.Deprecated = "error"
	}
	for _, p := range c.Params {
		fc.Params = append(fc.Params, FileParam{
			Name: p.Name, Type: p.Type.String(), Optional: p.Optional, Variadic: p.Variadic,
			Ref: p.Ref, Out: p.Out, Default: p.Default,
		})
	}
	return fc
}
