// Package analyzer resolves members, overloads and implicit conversions over
// a compilation's symbol tables, the shared builtins and a native catalog.
//
// Negative answers are ordinary results: lookups return ok == false and
// overload queries return no candidates. Errors are reserved for types too
// deep to resolve (*typesystem.TooComplexError); broken invariants panic
// with *typesystem.InvariantError.
package analyzer

import (
	"github.com/google/uuid"

	"github.com/nstar-lang/nstar/internal/config"
	"github.com/nstar-lang/nstar/internal/native"
	"github.com/nstar-lang/nstar/internal/symbols"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

// Engine answers resolution queries for one compilation.
type Engine struct {
	ctx      *symbols.Context
	builtins *symbols.Builtins
	catalog  native.Catalog

	maxDepth       int
	tupleListLimit int

	// Type key -> direct supertypes, valid for ctx revision supersRev
	supers    map[string][]supertype
	supersRev uuid.UUID
}

// New creates an engine over ctx. A nil catalog means no native members;
// nil opts means defaults.
func New(ctx *symbols.Context, catalog native.Catalog, opts *config.Options) *Engine {
	if opts == nil {
		opts = config.DefaultOptions()
	}
	if catalog == nil {
		catalog = native.NewStatic().Freeze()
	}
	e := &Engine{
		ctx:            ctx,
		builtins:       ctx.Builtins(),
		catalog:        catalog,
		maxDepth:       opts.MaxDepth,
		tupleListLimit: opts.TupleListLimit,
	}
	if e.maxDepth <= 0 {
		e.maxDepth = config.DefaultMaxDepth
	}
	if e.tupleListLimit <= 0 {
		e.tupleListLimit = config.DefaultTupleListLimit
	}
	return e
}

func (e *Engine) Context() *symbols.Context { return e.ctx }

func (e *Engine) Catalog() native.Catalog { return e.catalog }

// Origin tells which table a resolved member came from.
type Origin int

const (
	OriginUser Origin = iota
	OriginBase
	OriginBuiltin
	OriginNative
)

func (o Origin) String() string {
	switch o {
	case OriginUser:
		return "user"
	case OriginBase:
		return "base"
	case OriginBuiltin:
		return "builtin"
	case OriginNative:
		return "native"
	}
	return "unknown"
}

func (e *Engine) tooComplex(op string) error {
	return typesystem.NewTooComplexError(op, e.maxDepth)
}

// supertype is one step up the inheritance graph.
type supertype struct {
	t     typesystem.NStarType
	iface bool
}

// directSupertypes lists the declared base type of t followed by the
// interfaces it implements, from the user tables, the builtins and the
// native catalog, instantiated for t's arguments.
func (e *Engine) directSupertypes(t typesystem.NStarType) ([]supertype, error) {
	if rev := e.ctx.Revision(); rev != e.supersRev || e.supers == nil {
		e.supers = make(map[string][]supertype)
		e.supersRev = rev
	}
	key := t.Key()
	if out, ok := e.supers[key]; ok {
		return out, nil
	}
	out, err := e.lookupSupertypes(t)
	if err != nil {
		return nil, err
	}
	e.supers[key] = out
	return out, nil
}

func (e *Engine) lookupSupertypes(t typesystem.NStarType) ([]supertype, error) {
	var out []supertype
	if decl, ok := e.ctx.Type(t.Main); ok {
		subst := declSubst(decl, t)
		if decl.Base != nil {
			base, err := typesystem.Apply(*decl.Base, subst, e.maxDepth)
			if err != nil {
				return nil, err
			}
			out = append(out, supertype{t: base})
		}
		for _, iface := range e.ctx.Interfaces(t.Main) {
			inst, err := typesystem.Apply(iface, subst, e.maxDepth)
			if err != nil {
				return nil, err
			}
			out = append(out, supertype{t: inst, iface: true})
		}
		return out, nil
	}
	for _, iface := range e.builtins.Interfaces(t) {
		out = append(out, supertype{t: iface, iface: true})
	}
	if info, ok := e.nativeInfo(t); ok {
		subst := nativeSubst(info, t)
		if info.Base != nil {
			if base, ok := e.nativeRef(*info.Base, subst); ok {
				out = append(out, supertype{t: base})
			}
		}
		for _, ref := range info.Interfaces {
			if iface, ok := e.nativeRef(ref, subst); ok {
				out = append(out, supertype{t: iface, iface: true})
			}
		}
	}
	return out, nil
}

// baseChain walks the declared base types of t, nearest first, stopping on
// a cycle. Interfaces are not followed.
func (e *Engine) baseChain(t typesystem.NStarType, visit func(typesystem.NStarType) bool) error {
	seen := map[string]bool{t.Main.Key(): true}
	for depth := 0; ; depth++ {
		if depth > e.maxDepth {
			return e.tooComplex("base chain")
		}
		supers, err := e.directSupertypes(t)
		if err != nil {
			return err
		}
		next, found := typesystem.NStarType{}, false
		for _, s := range supers {
			if !s.iface {
				next, found = s.t, true
				break
			}
		}
		if !found || seen[next.Main.Key()] {
			return nil
		}
		seen[next.Main.Key()] = true
		if visit(next) {
			return nil
		}
		t = next
	}
}

// declSubst binds a user declaration's generic parameters to t's arguments.
func declSubst(decl symbols.TypeDecl, t typesystem.NStarType) typesystem.Subst {
	return bindParams(decl.ParamNames(), t)
}

func bindParams(names []string, t typesystem.NStarType) typesystem.Subst {
	if len(names) == 0 || t.Extra.Len() == 0 {
		return nil
	}
	s := typesystem.Subst{}
	for i, name := range names {
		if i >= t.Extra.Len() {
			break
		}
		if arg := t.Extra.At(i); !arg.IsValue {
			s[name] = arg.Type
		}
	}
	return s
}
