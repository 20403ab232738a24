package analyzer

import (
	"strconv"
	"strings"

	"github.com/nstar-lang/nstar/internal/config"
	"github.com/nstar-lang/nstar/internal/native"
	"github.com/nstar-lang/nstar/internal/scope"
	"github.com/nstar-lang/nstar/internal/symbols"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

var kindBlocks = map[native.Kind]scope.BlockKind{
	native.KindClass:     scope.Class,
	native.KindStruct:    scope.Struct,
	native.KindInterface: scope.Interface,
	native.KindEnum:      scope.Enum,
	native.KindDelegate:  scope.Delegate,
}

// NativeTypeToModel translates a host type reference into the type model.
// Host primitives map through the catalog aliases, host collections keep
// their leaf name, and catalog types become namespace blocks followed by a
// block of the type's kind. An empty reference is the null type.
func (e *Engine) NativeTypeToModel(ref native.TypeRef) (typesystem.NStarType, bool) {
	return e.nativeToModel(ref, 0)
}

func (e *Engine) nativeToModel(ref native.TypeRef, depth int) (typesystem.NStarType, bool) {
	if depth > e.maxDepth {
		return typesystem.NStarType{}, false
	}
	switch {
	case ref.Param != "":
		return typesystem.GenericParam(ref.Param), true
	case ref.Value != "":
		return typesystem.NStarType{}, false
	case ref.Path == "":
		return typesystem.Null, true
	}

	args := make([]typesystem.ExtraType, len(ref.Args))
	for i, a := range ref.Args {
		if a.Value != "" {
			args[i] = typesystem.ValueArg(a.Value)
			continue
		}
		t, ok := e.nativeToModel(a, depth+1)
		if !ok {
			return typesystem.NStarType{}, false
		}
		args[i] = typesystem.TypeArg(t)
	}

	name, aliased := e.catalog.Primitive(ref.Path)
	if !aliased && config.IsPrimitiveName(ref.Path) {
		name, aliased = ref.Path, true
	}
	if aliased {
		return modelPrimitive(name, args)
	}
	if config.IsCollectionName(ref.Path) {
		main := scope.NewStack(scope.NewBlock(scope.Class, ref.Path))
		return typesystem.NStarType{Main: main, Extra: typesystem.Extras(args...)}, true
	}
	info, ok := e.catalog.LookupType(ref.Path)
	if !ok {
		return typesystem.NStarType{}, false
	}
	return typesystem.NStarType{Main: nativeMain(info), Extra: typesystem.Extras(args...)}, true
}

func modelPrimitive(name string, args []typesystem.ExtraType) (typesystem.NStarType, bool) {
	types := func() ([]typesystem.NStarType, bool) {
		out := make([]typesystem.NStarType, len(args))
		for i, a := range args {
			if a.IsValue {
				return nil, false
			}
			out[i] = a.Type
		}
		return out, true
	}
	switch name {
	case config.ListTypeName:
		switch {
		case len(args) == 1 && !args[0].IsValue:
			return typesystem.ListOf(args[0].Type), true
		case len(args) == 2 && args[0].IsValue && !args[1].IsValue:
			n, err := strconv.Atoi(args[0].Value)
			if err != nil || n < 1 {
				return typesystem.NStarType{}, false
			}
			return typesystem.ListN(args[1].Type, n), true
		}
		return typesystem.NStarType{}, false
	case config.TupleTypeName:
		ts, ok := types()
		if !ok {
			return typesystem.NStarType{}, false
		}
		return typesystem.Tuple(ts...), true
	case config.FuncTypeName:
		ts, ok := types()
		if !ok || len(ts) == 0 {
			return typesystem.NStarType{}, false
		}
		return typesystem.Func(ts[0], ts[1:]...), true
	case config.ReadOnlySpanTypeName:
		ts, ok := types()
		if !ok || len(ts) != 1 {
			return typesystem.NStarType{}, false
		}
		return typesystem.ReadOnlySpan(ts[0]), true
	}
	return typesystem.Primitive(name), true
}

func nativeMain(info *native.TypeInfo) scope.BlockStack {
	var blocks []scope.Block
	if info.Namespace != "" {
		for _, seg := range strings.Split(info.Namespace, ".") {
			blocks = append(blocks, scope.NewBlock(scope.Namespace, seg))
		}
	}
	kind, ok := kindBlocks[info.Kind]
	if !ok {
		kind = scope.Class
	}
	return scope.NewStack(append(blocks, scope.NewBlock(kind, info.Name))...)
}

// ModelToNative is the inverse of NativeTypeToModel. Generic parameters
// become parameter references and list run lengths are expanded.
func (e *Engine) ModelToNative(t typesystem.NStarType) (native.TypeRef, bool) {
	return e.modelToNative(t, 0)
}

func (e *Engine) modelToNative(t typesystem.NStarType, depth int) (native.TypeRef, bool) {
	if depth > e.maxDepth {
		return native.TypeRef{}, false
	}
	if t.IsGenericParam() {
		return native.ParamRef(t.Main.Leaf()), true
	}
	if n, elem, ok := typesystem.ListParts(t); ok {
		ref, ok := e.modelToNative(elem, depth+1)
		if !ok {
			return native.TypeRef{}, false
		}
		path := e.nativeName(config.ListTypeName)
		for i := 0; i < n; i++ {
			ref = native.Ref(path, ref)
		}
		return ref, true
	}
	args := make([]native.TypeRef, t.Extra.Len())
	for i := range args {
		x := t.Extra.At(i)
		if x.IsValue {
			args[i] = native.TypeRef{Value: x.Value}
			continue
		}
		a, ok := e.modelToNative(x.Type, depth+1)
		if !ok {
			return native.TypeRef{}, false
		}
		args[i] = a
	}
	if t.Main.IsPrimitive() {
		return native.Ref(e.nativeName(t.Main.Leaf()), args...), true
	}
	if t.Main.IsEmpty() {
		return native.TypeRef{}, false
	}
	names := make([]string, t.Main.Len())
	for i := range names {
		names[i] = t.Main.At(i).Name
	}
	return native.Ref(strings.Join(names, "."), args...), true
}

func (e *Engine) nativeName(model string) string {
	if path, ok := e.catalog.NativePath(model); ok {
		return path
	}
	return model
}

// nativeInfo finds the catalog description of t.
func (e *Engine) nativeInfo(t typesystem.NStarType) (*native.TypeInfo, bool) {
	ref, ok := e.ModelToNative(t)
	if !ok || ref.Path == "" {
		return nil, false
	}
	return e.catalog.LookupType(ref.Path)
}

// nativePath is the host path of t without arguments.
func (e *Engine) nativePath(t typesystem.NStarType) (string, bool) {
	ref, ok := e.ModelToNative(t)
	if !ok || ref.Path == "" {
		return "", false
	}
	return ref.Path, true
}

func nativeSubst(info *native.TypeInfo, t typesystem.NStarType) typesystem.Subst {
	return bindParams(info.TypeParams, t)
}

// nativeRef translates ref and instantiates the receiver's parameters.
func (e *Engine) nativeRef(ref native.TypeRef, subst typesystem.Subst) (typesystem.NStarType, bool) {
	t, ok := e.NativeTypeToModel(ref)
	if !ok {
		return typesystem.NStarType{}, false
	}
	t, err := typesystem.Apply(t, subst, e.maxDepth)
	return t, err == nil
}

// nativeOverload translates a host callable. The receiver substitution is
// applied; the callable's own type parameters stay generic. Callables with
// an untranslatable type are skipped by callers.
func (e *Engine) nativeOverload(c native.Callable, subst typesystem.Subst) (symbols.Overload, bool) {
	var o symbols.Overload
	ret, ok := e.nativeRef(c.Return, subst)
	if !ok {
		return o, false
	}
	o.ReturnType = ret
	for _, name := range c.TypeParams {
		o.Restrictions = append(o.Restrictions, symbols.Restriction{Name: name})
	}
	if c.Static {
		o.Attributes |= symbols.AttrStatic
	}
	if c.Abstract {
		o.Attributes |= symbols.AttrAbstract
	}
	if c.Deprecated != native.NotDeprecated {
		o.Attributes |= symbols.AttrDeprecated
	}
	for _, p := range c.Params {
		pt, ok := e.nativeRef(p.Type, subst)
		if !ok {
			return o, false
		}
		var attrs symbols.ParamAttributes
		if p.Optional {
			attrs |= symbols.ParamOptional
		}
		if p.Variadic {
			attrs |= symbols.ParamParams
		}
		if p.Ref {
			attrs |= symbols.ParamRef
		}
		if p.Out {
			attrs |= symbols.ParamOut
		}
		o.Parameters = append(o.Parameters, symbols.Parameter{Type: pt, Name: p.Name, Attributes: attrs, Default: p.Default})
	}
	return o, true
}
