package analyzer

import (
	"github.com/nstar-lang/nstar/internal/symbols"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

// GetReplacementPatterns unifies declared parameter types with actual
// argument types position by position, recursing into generic arguments
// and list layers. The first binding of a generic parameter wins.
func GetReplacementPatterns(declared, actual []typesystem.NStarType, limit int) (typesystem.Subst, error) {
	s := typesystem.Subst{}
	for i, d := range declared {
		if i >= len(actual) {
			break
		}
		if err := unify(d, actual[i], s, 0, limit); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func unify(d, a typesystem.NStarType, s typesystem.Subst, depth, limit int) error {
	if depth > limit {
		return typesystem.NewTooComplexError("generic unification", limit)
	}
	d, a = typesystem.UnwrapSingleTuple(d), typesystem.UnwrapSingleTuple(a)
	if d.IsGenericParam() {
		s.Bind(d.Main.Leaf(), a)
		return nil
	}
	if len(d.GenericParams()) == 0 {
		return nil
	}
	if typesystem.IsList(d) {
		dElem, _ := typesystem.PeelOne(d)
		aElem, ok := typesystem.PeelOne(a)
		if !ok {
			return nil
		}
		return unify(dElem, aElem, s, depth+1, limit)
	}
	if !d.Main.Equal(a.Main) || d.Extra.Len() != a.Extra.Len() {
		return nil
	}
	for i := 0; i < d.Extra.Len(); i++ {
		dx, ax := d.Extra.At(i), a.Extra.At(i)
		if dx.IsValue || ax.IsValue {
			continue
		}
		if err := unify(dx.Type, ax.Type, s, depth+1, limit); err != nil {
			return err
		}
	}
	return nil
}

// ApplyPatterns substitutes s into the return type and every parameter
// type of o. Attributes and restrictions are kept as declared.
func ApplyPatterns(o symbols.Overload, s typesystem.Subst, limit int) (symbols.Overload, error) {
	if len(s) == 0 {
		return o, nil
	}
	ret, err := typesystem.Apply(o.ReturnType, s, limit)
	if err != nil {
		return symbols.Overload{}, err
	}
	out := o
	out.ReturnType = ret
	out.Parameters = make([]symbols.Parameter, len(o.Parameters))
	for i, p := range o.Parameters {
		pt, err := typesystem.Apply(p.Type, s, limit)
		if err != nil {
			return symbols.Overload{}, err
		}
		p.Type = pt
		out.Parameters[i] = p
	}
	return out, nil
}

// expandParams lists the declared type matched by each of n arguments; a
// variadic parameter repeats for the surplus.
func expandParams(o symbols.Overload, n int) []typesystem.NStarType {
	out := make([]typesystem.NStarType, 0, n)
	for i := 0; i < n; i++ {
		switch {
		case i < len(o.Parameters):
			out = append(out, o.Parameters[i].Type)
		case o.Variadic():
			out = append(out, o.Parameters[len(o.Parameters)-1].Type)
		default:
			return out
		}
	}
	return out
}
