package analyzer

import (
	"github.com/nstar-lang/nstar/internal/config"
	"github.com/nstar-lang/nstar/internal/native"
	"github.com/nstar-lang/nstar/internal/scope"
	"github.com/nstar-lang/nstar/internal/symbols"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

// SearchOutward tests pred at sc and then at each enclosing scope, ending
// with the empty path. It returns the first scope that satisfies pred.
func SearchOutward(sc scope.BlockStack, pred func(scope.BlockStack) bool) (scope.BlockStack, bool) {
	for {
		if pred(sc) {
			return sc, true
		}
		if sc.IsEmpty() {
			return scope.BlockStack{}, false
		}
		sc = sc.Pop()
	}
}

// Member is a resolved property, constant or enum constant.
type Member struct {
	Name       string
	Type       typesystem.NStarType
	Value      string
	Attributes symbols.FunctionAttributes
	Scope      scope.BlockStack
	Origin     Origin
}

// memberTable adapts one user table to the shared lookup walk. native
// returns the host member and, for constants, its value.
type memberTable struct {
	user    func(sc scope.BlockStack, name string) (Member, bool)
	builtin func(t typesystem.NStarType, name string) (Member, bool)
	native  func(path, name string) (native.Property, string, bool)
}

// lookupMember is the common order for properties and constants: the user
// table at the owner's scope and its enclosing scopes, then the base chain,
// then the builtins, then the native catalog.
func (e *Engine) lookupMember(owner typesystem.NStarType, name string, tbl memberTable) (Member, bool, error) {
	var found Member
	if sc, ok := SearchOutward(owner.Main, func(sc scope.BlockStack) bool {
		m, ok := tbl.user(sc, name)
		found = m
		return ok
	}); ok {
		found.Scope = sc
		found.Origin = OriginUser
		if sc.Equal(owner.Main) {
			return e.instantiate(found, owner)
		}
		return found, true, nil
	}

	var inherited bool
	var base typesystem.NStarType
	err := e.baseChain(owner, func(b typesystem.NStarType) bool {
		m, ok := tbl.user(b.Main, name)
		if ok {
			found, base, inherited = m, b, true
		}
		return ok
	})
	if err != nil {
		return Member{}, false, err
	}
	if inherited {
		found.Scope = base.Main
		found.Origin = OriginBase
		return e.instantiate(found, base)
	}

	if tbl.builtin != nil {
		if m, ok := tbl.builtin(owner, name); ok {
			m.Origin = OriginBuiltin
			m.Scope = owner.Main
			return m, true, nil
		}
	}
	return e.nativeMember(owner, name, tbl.native)
}

// instantiate binds the owner's generic arguments in a user member's type.
func (e *Engine) instantiate(m Member, owner typesystem.NStarType) (Member, bool, error) {
	decl, ok := e.ctx.Type(owner.Main)
	if !ok {
		return m, true, nil
	}
	t, err := typesystem.Apply(m.Type, declSubst(decl, owner), e.maxDepth)
	if err != nil {
		return Member{}, false, err
	}
	m.Type = t
	return m, true, nil
}

func (e *Engine) nativeMember(owner typesystem.NStarType, name string, lookup func(path, name string) (native.Property, string, bool)) (Member, bool, error) {
	if lookup == nil {
		return Member{}, false, nil
	}
	path, ok := e.nativePath(owner)
	if !ok {
		return Member{}, false, nil
	}
	p, value, ok := lookup(path, name)
	if !ok {
		return Member{}, false, nil
	}
	declaring, ok := e.catalog.LookupType(p.Declaring)
	if !ok {
		typesystem.Invariant("native member %s.%s declared by unknown type %q", path, name, p.Declaring)
	}
	var subst typesystem.Subst
	if info, ok := e.catalog.LookupType(path); ok && info == declaring {
		subst = nativeSubst(info, owner)
	}
	t, ok := e.nativeRef(p.Type, subst)
	if !ok {
		return Member{}, false, nil
	}
	m := Member{Name: p.Name, Type: t, Value: value, Scope: nativeMain(declaring), Origin: OriginNative}
	if p.Static {
		m.Attributes |= symbols.AttrStatic
	}
	if p.ReadOnly {
		m.Attributes |= symbols.AttrConst
	}
	return m, true, nil
}

// PropertyExists looks up a property or field of owner.
func (e *Engine) PropertyExists(owner typesystem.NStarType, name string) (Member, bool, error) {
	return e.lookupMember(owner, name, memberTable{
		user: func(sc scope.BlockStack, name string) (Member, bool) {
			p, ok := e.ctx.Property(sc, name)
			return Member{Name: p.Name, Type: p.Type, Attributes: p.Attributes}, ok
		},
		builtin: func(t typesystem.NStarType, name string) (Member, bool) {
			p, ok := e.builtins.Property(t, name)
			return Member{Name: p.Name, Type: p.Type, Attributes: p.Attributes}, ok
		},
		native: func(path, name string) (native.Property, string, bool) {
			p, ok := e.catalog.Property(path, name)
			return p, "", ok
		},
	})
}

// ConstantExists looks up a named constant visible from owner.
func (e *Engine) ConstantExists(owner typesystem.NStarType, name string) (Member, bool, error) {
	return e.lookupMember(owner, name, memberTable{
		user: func(sc scope.BlockStack, name string) (Member, bool) {
			k, ok := e.ctx.Constant(sc, name)
			return Member{Name: k.Name, Type: k.Type, Value: k.Value, Attributes: k.Attributes}, ok
		},
		native: func(path, name string) (native.Property, string, bool) {
			k, ok := e.catalog.Constant(path, name)
			return native.Property{Name: k.Name, Type: k.Type, Declaring: k.Declaring, Static: true, ReadOnly: true}, k.Value, ok
		},
	})
}

// EnumConstantExists looks up a member of an enum. Its type is the enum.
func (e *Engine) EnumConstantExists(enum typesystem.NStarType, name string) (Member, bool) {
	if k, ok := e.ctx.EnumConstant(enum.Main, name); ok {
		return Member{Name: k.Name, Type: enum, Value: k.Value, Attributes: symbols.AttrStatic | symbols.AttrConst, Scope: enum.Main, Origin: OriginUser}, true
	}
	info, ok := e.nativeInfo(enum)
	if !ok || info.Kind != native.KindEnum {
		return Member{}, false
	}
	k, ok := e.catalog.Constant(info.Path(), name)
	if !ok {
		return Member{}, false
	}
	return Member{Name: k.Name, Type: enum, Value: k.Value, Attributes: symbols.AttrStatic | symbols.AttrConst, Scope: enum.Main, Origin: OriginNative}, true
}

// TypeExists resolves a type name visible from sc: nested user types along
// the outward walk, then primitives, then catalog types qualified by each
// enclosing namespace.
func (e *Engine) TypeExists(sc scope.BlockStack, name string) (typesystem.NStarType, bool) {
	var path scope.BlockStack
	if _, ok := SearchOutward(sc, func(s scope.BlockStack) bool {
		p, ok := e.ctx.NestedType(s, name)
		path = p
		return ok
	}); ok {
		return typesystem.NStarType{Main: path}, true
	}
	if config.IsPrimitiveName(name) {
		return typesystem.NStarType{Main: scope.PrimitiveStack(name)}, true
	}
	if model, ok := e.catalog.Primitive(name); ok {
		return typesystem.NStarType{Main: scope.PrimitiveStack(model)}, true
	}
	var found typesystem.NStarType
	_, ok := SearchOutward(sc, func(s scope.BlockStack) bool {
		qualified := name
		for i := s.Len() - 1; i >= 0; i-- {
			qualified = s.At(i).Name + "." + qualified
		}
		info, ok := e.catalog.LookupType(qualified)
		if ok {
			found = typesystem.NStarType{Main: nativeMain(info)}
		}
		return ok
	})
	return found, ok
}

// VariableExists resolves a variable along the outward walk.
func (e *Engine) VariableExists(sc scope.BlockStack, name string) (symbols.VariableRecord, scope.BlockStack, bool) {
	var v symbols.VariableRecord
	at, ok := SearchOutward(sc, func(s scope.BlockStack) bool {
		r, ok := e.ctx.Variable(s, name)
		v = r
		return ok
	})
	return v, at, ok
}
