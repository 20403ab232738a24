package analyzer

import (
	"github.com/nstar-lang/nstar/internal/native"
	"github.com/nstar-lang/nstar/internal/scope"
	"github.com/nstar-lang/nstar/internal/symbols"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

// Impossible is the score of a callable that cannot take the call's
// arguments at all: a required parameter is left without an argument.
const Impossible = -1

// IndexerName is the host method name of indexers.
const IndexerName = "Item"

// ResolvedOverload is one candidate of a call, with generic parameters
// substituted. Complete reports that every argument matched.
type ResolvedOverload struct {
	Overload symbols.Overload
	Score    int
	Complete bool
	Origin   Origin
	Scope    scope.BlockStack
	Native   *native.Callable
	Patterns typesystem.Subst
}

type candidate struct {
	overload symbols.Overload
	origin   Origin
	scope    scope.BlockStack
	native   *native.Callable
}

// Score counts the leading arguments accepted by params. Surplus arguments
// without a variadic parameter score 0; an unfilled required parameter
// scores Impossible. A lossy conversion does not count as a match.
func (e *Engine) Score(params []symbols.Parameter, args []typesystem.NStarType) (int, error) {
	variadic := len(params) > 0 && params[len(params)-1].Attributes.Has(symbols.ParamParams)
	if len(params) < len(args) && !variadic {
		return 0, nil
	}
	for _, p := range params[min(len(args), len(params)):] {
		if p.Attributes.Has(symbols.ParamOptional) || p.Attributes.Has(symbols.ParamParams) || p.Default != nil {
			continue
		}
		return Impossible, nil
	}
	score := 0
	for i, arg := range args {
		p := params[min(i, len(params)-1)]
		ok, err := e.accepts(p.Type, arg)
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		score++
	}
	return score, nil
}

func (e *Engine) accepts(param, arg typesystem.NStarType) (bool, error) {
	if param.IsGenericParam() {
		return true, nil
	}
	c, err := e.IsCompatible(arg, param)
	if err != nil {
		return false, err
	}
	return c.OK && !c.Warning, nil
}

// rank scores every candidate and keeps all that reach the maximum.
func (e *Engine) rank(cands []candidate, args []typesystem.NStarType) ([]ResolvedOverload, error) {
	best := Impossible
	var out []ResolvedOverload
	for _, c := range cands {
		patterns, err := GetReplacementPatterns(expandParams(c.overload, len(args)), args, e.maxDepth)
		if err != nil {
			return nil, err
		}
		o, err := ApplyPatterns(c.overload, patterns, e.maxDepth)
		if err != nil {
			return nil, err
		}
		score, err := e.Score(o.Parameters, args)
		if err != nil {
			return nil, err
		}
		if score < 0 || score < best {
			continue
		}
		if score > best {
			best = score
			out = out[:0]
		}
		out = append(out, ResolvedOverload{
			Overload: o,
			Score:    score,
			Complete: score == len(args),
			Origin:   c.origin,
			Scope:    c.scope,
			Native:   c.native,
			Patterns: patterns,
		})
	}
	return out, nil
}

func (e *Engine) nativeCandidates(owner typesystem.NStarType, callables []native.Callable, ctor bool) []candidate {
	var subst typesystem.Subst
	if info, ok := e.nativeInfo(owner); ok {
		subst = nativeSubst(info, owner)
	}
	var out []candidate
	for i := range callables {
		c := &callables[i]
		if c.Deprecated == native.DeprecatedError {
			continue
		}
		o, ok := e.nativeOverload(*c, subst)
		if !ok {
			continue
		}
		if ctor {
			o.ReturnType = owner
		}
		out = append(out, candidate{overload: o, origin: OriginNative, scope: owner.Main, native: c})
	}
	return out
}

// MethodExists resolves a host method of owner against the native catalog.
// All candidates tied at the best score are returned.
func (e *Engine) MethodExists(owner typesystem.NStarType, name string, args []typesystem.NStarType) ([]ResolvedOverload, error) {
	path, ok := e.nativePath(owner)
	if !ok {
		return nil, nil
	}
	return e.rank(e.nativeCandidates(owner, e.catalog.Methods(path, name), false), args)
}

// ConstructorsExist resolves a host constructor of owner.
func (e *Engine) ConstructorsExist(owner typesystem.NStarType, args []typesystem.NStarType) ([]ResolvedOverload, error) {
	path, ok := e.nativePath(owner)
	if !ok {
		return nil, nil
	}
	return e.rank(e.nativeCandidates(owner, e.catalog.Constructors(path), true), args)
}

// ExtendedMethodExists resolves a built-in method of receiver, falling
// back to the methods every object has.
func (e *Engine) ExtendedMethodExists(receiver typesystem.NStarType, name string, args []typesystem.NStarType) ([]ResolvedOverload, error) {
	overloads := e.builtins.Methods(receiver, name)
	if len(overloads) == 0 {
		overloads = e.builtins.ObjectMethods(name)
	}
	subst, _ := e.builtins.ShapeArgs(receiver)
	cands := make([]candidate, 0, len(overloads))
	for _, o := range overloads {
		inst, err := ApplyPatterns(o, subst, e.maxDepth)
		if err != nil {
			return nil, err
		}
		cands = append(cands, candidate{overload: inst, origin: OriginBuiltin, scope: receiver.Main})
	}
	return e.rank(cands, args)
}

// UserDefinedFunctionExists resolves a user function visible from owner:
// the owner's scope, then enclosing scopes, then the base chain. The first
// scope declaring the name supplies the whole overload list.
func (e *Engine) UserDefinedFunctionExists(owner typesystem.NStarType, name string, args []typesystem.NStarType) ([]ResolvedOverload, error) {
	at, ok := SearchOutward(owner.Main, func(sc scope.BlockStack) bool {
		return len(e.ctx.Functions(sc, name)) > 0
	})
	if ok {
		var subst typesystem.Subst
		if decl, isType := e.ctx.Type(owner.Main); isType && at.Equal(owner.Main) {
			subst = declSubst(decl, owner)
		}
		return e.userCandidates(e.ctx.Functions(at, name), subst, OriginUser, at, args)
	}

	var base typesystem.NStarType
	var found bool
	err := e.baseChain(owner, func(b typesystem.NStarType) bool {
		base, found = b, len(e.ctx.Functions(b.Main, name)) > 0
		return found
	})
	if err != nil || !found {
		return nil, err
	}
	var subst typesystem.Subst
	if decl, ok := e.ctx.Type(base.Main); ok {
		subst = declSubst(decl, base)
	}
	return e.userCandidates(e.ctx.Functions(base.Main, name), subst, OriginBase, base.Main, args)
}

// UserDefinedConstructorsExist resolves a user constructor of t.
// Constructors are not inherited.
func (e *Engine) UserDefinedConstructorsExist(t typesystem.NStarType, args []typesystem.NStarType) ([]ResolvedOverload, error) {
	var subst typesystem.Subst
	if decl, ok := e.ctx.Type(t.Main); ok {
		subst = declSubst(decl, t)
	}
	ctors := e.ctx.Constructors(t.Main)
	withReturn := make([]symbols.Overload, len(ctors))
	for i, o := range ctors {
		if o.ReturnType.IsZero() {
			o.ReturnType = t
		}
		withReturn[i] = o
	}
	return e.userCandidates(withReturn, subst, OriginUser, t.Main, args)
}

func (e *Engine) userCandidates(overloads []symbols.Overload, subst typesystem.Subst, origin Origin, at scope.BlockStack, args []typesystem.NStarType) ([]ResolvedOverload, error) {
	cands := make([]candidate, 0, len(overloads))
	for _, o := range overloads {
		inst, err := ApplyPatterns(o, subst, e.maxDepth)
		if err != nil {
			return nil, err
		}
		cands = append(cands, candidate{overload: inst, origin: origin, scope: at})
	}
	return e.rank(cands, args)
}

// ResolveCall tries user functions, then built-in methods, then host
// methods, returning the candidates of the first track that has any.
func (e *Engine) ResolveCall(owner typesystem.NStarType, name string, args []typesystem.NStarType) ([]ResolvedOverload, error) {
	tracks := []func(typesystem.NStarType, string, []typesystem.NStarType) ([]ResolvedOverload, error){
		e.UserDefinedFunctionExists,
		e.ExtendedMethodExists,
		e.MethodExists,
	}
	for _, track := range tracks {
		found, err := track(owner, name, args)
		if err != nil || len(found) > 0 {
			return found, err
		}
	}
	return nil, nil
}

// IndexerExists resolves owner[args...]: user indexers on the owner and
// its base chain, then built-in element access, then the host "Item".
func (e *Engine) IndexerExists(owner typesystem.NStarType, args []typesystem.NStarType) ([]ResolvedOverload, error) {
	if ix := e.ctx.Indexers(owner.Main); len(ix) > 0 {
		var subst typesystem.Subst
		if decl, ok := e.ctx.Type(owner.Main); ok {
			subst = declSubst(decl, owner)
		}
		return e.userCandidates(ix, subst, OriginUser, owner.Main, args)
	}
	var base typesystem.NStarType
	var found bool
	if err := e.baseChain(owner, func(b typesystem.NStarType) bool {
		base, found = b, len(e.ctx.Indexers(b.Main)) > 0
		return found
	}); err != nil {
		return nil, err
	}
	if found {
		var subst typesystem.Subst
		if decl, ok := e.ctx.Type(base.Main); ok {
			subst = declSubst(decl, base)
		}
		return e.userCandidates(e.ctx.Indexers(base.Main), subst, OriginBase, base.Main, args)
	}

	if elem, ok := builtinElement(owner); ok {
		o := symbols.Overload{ReturnType: elem, Parameters: []symbols.Parameter{{Type: typesystem.Int, Name: "index"}}}
		return e.rank([]candidate{{overload: o, origin: OriginBuiltin, scope: owner.Main}}, args)
	}
	return e.MethodExists(owner, IndexerName, args)
}

func builtinElement(t typesystem.NStarType) (typesystem.NStarType, bool) {
	if t.Equal(typesystem.String) {
		return typesystem.Char, true
	}
	if typesystem.IsList(t) || typesystem.IsCollection(t) || typesystem.IsReadOnlySpan(t) {
		return typesystem.PeelOne(t)
	}
	return typesystem.NStarType{}, false
}
