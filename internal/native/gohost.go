package native

import (
	"fmt"
	goast "go/ast"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// goAliases maps Go basic and well-known types to model primitives. The first
// entry for a model primitive is its canonical Go spelling.
var goAliases = []struct{ native, model string }{
	{"any", "object"},
	{"error", "object"},
	{"bool", "bool"},
	{"byte", "byte"},
	{"uint8", "byte"},
	{"int16", "short"},
	{"uint16", "ushort"},
	{"rune", "char"},
	{"int32", "int"},
	{"uint32", "uint"},
	{"int64", "long"},
	{"int", "long"},
	{"int8", "short"},
	{"uint64", "ulong"},
	{"uint", "ulong"},
	{"uintptr", "ulong"},
	{"big.Int", "bigint"},
	{"time.Duration", "TimeSpan"},
	{"time.Time", "DateTime"},
	{"float64", "real"},
	{"float32", "real"},
	{"complex128", "complex"},
	{"complex64", "complex"},
	{"string", "string"},
	{"func", "func"},
	{"tuple", "tuple"},
}

// wellKnown are named types outside the loaded packages that still map to a
// model primitive, keyed by import path and name.
var wellKnown = map[string]string{
	"math/big.Int":  "big.Int",
	"time.Duration": "time.Duration",
	"time.Time":     "time.Time",
}

const (
	goSlice = "Slice"
	goArray = "Array"
	goMap   = "Map"
)

// LoadGoPackages introspects the Go packages matching patterns, resolved
// relative to dir, and describes their exported types. Methods come from the
// pointer method set; exported struct fields become properties; functions
// named New<Type> become constructors; typed constants become enum members;
// an embedded struct from a loaded package becomes the base type. Doc comments
// starting with "Deprecated:" mark the member deprecated.
func LoadGoPackages(dir string, patterns ...string) (*Static, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedTypes |
			packages.NeedSyntax |
			packages.NeedTypesInfo,
		Dir: dir,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}

	g := newGoLoader(pkgs)
	for _, pkg := range pkgs {
		if err := g.addPackage(pkg); err != nil {
			return nil, fmt.Errorf("describing %s: %w", pkg.PkgPath, err)
		}
	}
	if g.usesMap {
		g.catalog.AddType(TypeInfo{Name: goMap, Kind: KindClass, TypeParams: []string{"K", "V"}})
	}
	return g.catalog.Freeze(), nil
}

type goLoader struct {
	catalog *Static
	// loaded maps import paths of the inspected packages to package names.
	loaded     map[string]string
	interfaces []*types.Named
	deprecated map[string]bool
	usesMap    bool
}

func newGoLoader(pkgs []*packages.Package) *goLoader {
	g := &goLoader{
		catalog:    NewStatic(),
		loaded:     make(map[string]string),
		deprecated: make(map[string]bool),
	}
	for _, a := range goAliases {
		g.catalog.AliasPrimitive(a.native, a.model)
	}
	for _, pkg := range pkgs {
		g.loaded[pkg.PkgPath] = pkg.Name
		g.collectDeprecations(pkg)
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || !tn.Exported() {
				continue
			}
			if named, ok := tn.Type().(*types.Named); ok && types.IsInterface(named) {
				if named.Underlying().(*types.Interface).NumMethods() > 0 {
					g.interfaces = append(g.interfaces, named)
				}
			}
		}
	}
	return g
}

func (g *goLoader) addPackage(pkg *packages.Package) error {
	scope := pkg.Types.Scope()
	names := scope.Names()
	sort.Strings(names)

	constructors := make(map[string][]Callable)
	constants := make(map[string][]Constant)
	for _, name := range names {
		obj := scope.Lookup(name)
		if !obj.Exported() {
			continue
		}
		switch obj := obj.(type) {
		case *types.Func:
			sig := obj.Type().(*types.Signature)
			target, ok := g.constructedType(obj, sig)
			if !ok {
				continue
			}
			c := g.callable(obj.Name(), sig, pkg.PkgPath+"."+obj.Name())
			c.Name = target
			constructors[target] = append(constructors[target], c)
		case *types.Const:
			named, ok := obj.Type().(*types.Named)
			if !ok || named.Obj().Pkg() != pkg.Types {
				continue
			}
			constants[named.Obj().Name()] = append(constants[named.Obj().Name()], Constant{
				Name:  obj.Name(),
				Type:  g.ref(obj.Type()),
				Value: obj.Val().ExactString(),
			})
		}
	}

	for _, name := range names {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !tn.Exported() || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}
		t := g.describe(pkg.Name, named)
		t.Constructors = constructors[name]
		if g.deprecated[pkg.PkgPath+"."+name] {
			for i := range t.Constructors {
				t.Constructors[i].Deprecated = DeprecatedWarning
			}
		}
		t.Constants = constants[name]
		if _, basic := named.Underlying().(*types.Basic); basic && len(t.Constants) > 0 {
			t.Kind = KindEnum
		}
		if err := g.catalog.AddType(t); err != nil {
			return err
		}
	}
	return nil
}

// constructedType reports the type a New<Type> function constructs.
func (g *goLoader) constructedType(fn *types.Func, sig *types.Signature) (string, bool) {
	if sig.Recv() != nil || !strings.HasPrefix(fn.Name(), "New") || sig.Results().Len() == 0 {
		return "", false
	}
	res := sig.Results().At(0).Type()
	if p, ok := res.(*types.Pointer); ok {
		res = p.Elem()
	}
	named, ok := res.(*types.Named)
	if !ok || named.Obj().Pkg() != fn.Pkg() {
		return "", false
	}
	want := named.Obj().Name()
	if fn.Name() != "New"+want && fn.Name() != "New" {
		return "", false
	}
	return want, true
}

func (g *goLoader) describe(pkgName string, named *types.Named) TypeInfo {
	obj := named.Obj()
	t := TypeInfo{Namespace: pkgName, Name: obj.Name(), Kind: KindClass}
	var typeParams []string
	if tps := named.TypeParams(); tps != nil {
		for i := 0; i < tps.Len(); i++ {
			typeParams = append(typeParams, tps.At(i).Obj().Name())
		}
	}
	t.TypeParams = typeParams

	baseField := -1
	switch u := named.Underlying().(type) {
	case *types.Struct:
		t.Kind = KindStruct
		for i := 0; i < u.NumFields(); i++ {
			f := u.Field(i)
			if f.Embedded() && t.Base == nil {
				if base, ok := g.loadedNamed(f.Type()); ok {
					ref := g.ref(base)
					t.Base = &ref
					baseField = i
					continue
				}
			}
			if !f.Exported() {
				continue
			}
			t.Properties = append(t.Properties, Property{Name: f.Name(), Type: g.ref(f.Type())})
		}
	case *types.Interface:
		t.Kind = KindInterface
	case *types.Signature:
		t.Kind = KindDelegate
	}

	recv := types.Type(types.NewPointer(named))
	if t.Kind == KindInterface {
		recv = named
	}
	mset := types.NewMethodSet(recv)
	for i := 0; i < mset.Len(); i++ {
		sel := mset.At(i)
		if idx := sel.Index(); len(idx) > 1 && idx[0] == baseField {
			continue // inherited through Base
		}
		fn, ok := sel.Obj().(*types.Func)
		if !ok || !fn.Exported() {
			continue
		}
		c := g.callable(fn.Name(), fn.Type().(*types.Signature), methodKey(named, fn))
		c.Abstract = t.Kind == KindInterface
		t.Methods = append(t.Methods, c)
	}
	sort.Slice(t.Methods, func(i, j int) bool { return t.Methods[i].Name < t.Methods[j].Name })

	if t.Kind != KindInterface {
		ptr := types.NewPointer(named)
		for _, iface := range g.interfaces {
			if iface.TypeParams().Len() > 0 {
				continue
			}
			if types.Implements(ptr, iface.Underlying().(*types.Interface)) {
				t.Interfaces = append(t.Interfaces, g.ref(iface))
			}
		}
	}
	return t
}

// methodKey names fn after the type that declares it, so a method promoted
// from an embedded field keeps its own deprecation.
func methodKey(owner *types.Named, fn *types.Func) string {
	declaring := owner.Obj()
	if recv := fn.Type().(*types.Signature).Recv(); recv != nil {
		rt := recv.Type()
		if p, ok := rt.(*types.Pointer); ok {
			rt = p.Elem()
		}
		if n, ok := rt.(*types.Named); ok && n.Obj().Pkg() != nil {
			declaring = n.Obj()
		}
	}
	if declaring.Pkg() == nil {
		return declaring.Name() + "." + fn.Name()
	}
	return declaring.Pkg().Path() + "." + declaring.Name() + "." + fn.Name()
}

func (g *goLoader) callable(name string, sig *types.Signature, docKey string) Callable {
	c := Callable{Name: name, Return: g.results(sig.Results())}
	if tps := sig.TypeParams(); tps != nil {
		for i := 0; i < tps.Len(); i++ {
			c.TypeParams = append(c.TypeParams, tps.At(i).Obj().Name())
		}
	}
	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		pt := p.Type()
		variadic := sig.Variadic() && i == params.Len()-1
		if variadic {
			if s, ok := pt.(*types.Slice); ok {
				pt = s.Elem()
			}
		}
		c.Params = append(c.Params, Param{Name: p.Name(), Type: g.ref(pt), Variadic: variadic, Optional: variadic})
	}
	if g.deprecated[docKey] {
		c.Deprecated = DeprecatedWarning
	}
	return c
}

// results drops a trailing error: the host surfaces it separately.
func (g *goLoader) results(res *types.Tuple) TypeRef {
	n := res.Len()
	if n > 0 && isErrorType(res.At(n-1).Type()) {
		n--
	}
	switch n {
	case 0:
		return TypeRef{}
	case 1:
		return g.ref(res.At(0).Type())
	}
	args := make([]TypeRef, n)
	for i := 0; i < n; i++ {
		args[i] = g.ref(res.At(i).Type())
	}
	return Ref("tuple", args...)
}

// ref translates a Go type to a host reference. Named types outside the
// loaded packages are opaque and become "any".
func (g *goLoader) ref(t types.Type) TypeRef {
	t = types.Unalias(t)
	switch t := t.(type) {
	case *types.Basic:
		return Ref(basicName(t))
	case *types.Named:
		if isErrorType(t) {
			return Ref("error")
		}
		obj := t.Obj()
		if obj.Pkg() == nil {
			return Ref("any")
		}
		if alias, ok := wellKnown[obj.Pkg().Path()+"."+obj.Name()]; ok {
			return Ref(alias)
		}
		pkgName, ok := g.loaded[obj.Pkg().Path()]
		if !ok {
			return Ref("any")
		}
		ref := Ref(pkgName + "." + obj.Name())
		if targs := t.TypeArgs(); targs != nil {
			for i := 0; i < targs.Len(); i++ {
				ref.Args = append(ref.Args, g.ref(targs.At(i)))
			}
		}
		return ref
	case *types.TypeParam:
		return ParamRef(t.Obj().Name())
	case *types.Pointer:
		return g.ref(t.Elem())
	case *types.Slice:
		return Ref(goSlice, g.ref(t.Elem()))
	case *types.Array:
		return Ref(goArray, g.ref(t.Elem()))
	case *types.Map:
		g.usesMap = true
		return Ref(goMap, g.ref(t.Key()), g.ref(t.Elem()))
	case *types.Signature:
		ret := g.results(t.Results())
		if ret.IsZero() {
			ret = Ref("any")
		}
		args := []TypeRef{ret}
		for i := 0; i < t.Params().Len(); i++ {
			args = append(args, g.ref(t.Params().At(i).Type()))
		}
		return Ref("func", args...)
	default:
		return Ref("any")
	}
}

// loadedNamed unwraps an embedded field type to a named type of a loaded
// package.
func (g *goLoader) loadedNamed(t types.Type) (*types.Named, bool) {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	named, ok := t.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return nil, false
	}
	if _, ok := g.loaded[named.Obj().Pkg().Path()]; !ok {
		return nil, false
	}
	if _, isStruct := named.Underlying().(*types.Struct); !isStruct {
		return nil, false
	}
	return named, true
}

func basicName(t *types.Basic) string {
	switch t.Kind() {
	case types.UntypedBool:
		return "bool"
	case types.UntypedInt:
		return "int"
	case types.UntypedRune:
		return "rune"
	case types.UntypedFloat:
		return "float64"
	case types.UntypedComplex:
		return "complex128"
	case types.UntypedString:
		return "string"
	case types.UnsafePointer, types.UntypedNil, types.Invalid:
		return "any"
	}
	return t.Name()
}

// isErrorType checks if a type is the error interface.
func isErrorType(t types.Type) bool {
	named, ok := t.(*types.Named)
	if ok {
		t = named.Underlying()
	}
	iface, ok := t.(*types.Interface)
	if !ok {
		return false
	}
	return iface.NumMethods() == 1 && iface.Method(0).Name() == "Error"
}

// collectDeprecations records declarations whose doc comment has a
// "Deprecated:" paragraph, keyed "path.Func", "path.Type" or
// "path.Type.Method" by import path.
func (g *goLoader) collectDeprecations(pkg *packages.Package) {
	for _, file := range pkg.Syntax {
		g.collectDeprecationsFromFile(pkg.PkgPath, file)
	}
}

func (g *goLoader) collectDeprecationsFromFile(pkgPath string, file *goast.File) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *goast.FuncDecl:
			if !isDeprecated(d.Doc) {
				continue
			}
			if d.Recv != nil && len(d.Recv.List) == 1 {
				g.deprecated[pkgPath+"."+recvName(d.Recv.List[0].Type)+"."+d.Name.Name] = true
				continue
			}
			g.deprecated[pkgPath+"."+d.Name.Name] = true
		case *goast.GenDecl:
			for _, s := range d.Specs {
				ts, ok := s.(*goast.TypeSpec)
				if !ok {
					continue
				}
				if isDeprecated(d.Doc) || isDeprecated(ts.Doc) {
					g.deprecated[pkgPath+"."+ts.Name.Name] = true
				}
			}
		}
	}
}

func recvName(expr goast.Expr) string {
	switch e := expr.(type) {
	case *goast.StarExpr:
		return recvName(e.X)
	case *goast.IndexExpr:
		return recvName(e.X)
	case *goast.IndexListExpr:
		return recvName(e.X)
	case *goast.Ident:
		return e.Name
	}
	return ""
}

func isDeprecated(doc *goast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, para := range strings.Split(doc.Text(), "\n\n") {
		if strings.HasPrefix(strings.TrimSpace(para), "Deprecated:") {
			return true
		}
	}
	return false
}
