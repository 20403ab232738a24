package typesystem

import (
	"sort"
	"strings"

	"github.com/nstar-lang/nstar/internal/config"
)

// Subst maps generic parameter names to concrete types.
type Subst map[string]NStarType

// Bind records name -> t. It reports false when name is already bound to a
// different type.
func (s Subst) Bind(name string, t NStarType) bool {
	if prev, ok := s[name]; ok {
		return prev.Equal(t)
	}
	s[name] = t
	return true
}

func (s Subst) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " -> " + s[k].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Apply replaces every generic parameter bound in s, recursing into nested
// arguments. Lists are re-canonicalised, so substituting a list for the
// element of a list merges the repeat counts.
func Apply(t NStarType, s Subst, limit int) (NStarType, error) {
	if len(s) == 0 {
		return t, nil
	}
	if limit <= 0 {
		limit = config.DefaultMaxDepth
	}
	return apply(t, s, 0, limit)
}

func apply(t NStarType, s Subst, depth, limit int) (NStarType, error) {
	if depth > limit {
		return NStarType{}, NewTooComplexError("substitute", limit)
	}
	if t.IsGenericParam() {
		if r, ok := s[t.Main.Leaf()]; ok {
			return r, nil
		}
		return t, nil
	}
	if n, elem, ok := listParts(t); ok {
		e, err := apply(elem, s, depth+1, limit)
		if err != nil {
			return NStarType{}, err
		}
		return ListN(e, n), nil
	}
	if t.Extra.Len() == 0 {
		return t, nil
	}
	out := t.Extra
	for i := 0; i < t.Extra.Len(); i++ {
		e := t.Extra.At(i)
		if e.IsValue {
			continue
		}
		r, err := apply(e.Type, s, depth+1, limit)
		if err != nil {
			return NStarType{}, err
		}
		out = out.With(t.Extra.Name(i), TypeArg(r))
	}
	return NStarType{Main: t.Main, Extra: out}, nil
}
