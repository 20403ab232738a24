package typesystem

import (
	"strconv"

	"github.com/nstar-lang/nstar/internal/config"
	"github.com/nstar-lang/nstar/internal/scope"
)

var (
	listMain  = scope.PrimitiveStack(config.ListTypeName)
	tupleMain = scope.PrimitiveStack(config.TupleTypeName)
	funcMain  = scope.PrimitiveStack(config.FuncTypeName)
	spanMain  = scope.PrimitiveStack(config.ReadOnlySpanTypeName)
)

// IsList reports whether t is the distinguished list shape.
func IsList(t NStarType) bool { return t.Main.Equal(listMain) }

// IsTuple reports whether t is the distinguished tuple shape.
func IsTuple(t NStarType) bool { return t.Main.Equal(tupleMain) }

// IsFunc reports whether t is the built-in function-value (delegate) shape.
func IsFunc(t NStarType) bool { return t.Main.Equal(funcMain) }

// IsReadOnlySpan reports whether t is the read-only span shape.
func IsReadOnlySpan(t NStarType) bool { return t.Main.Equal(spanMain) && t.Extra.Len() == 1 }

// IsCollection reports whether t is a host collection of one element type.
func IsCollection(t NStarType) bool {
	if t.Extra.Len() != 1 || t.Extra.At(0).IsValue || t.Main.IsPrimitive() {
		return false
	}
	return config.IsCollectionName(t.Main.Leaf())
}

// ListOf wraps elem in one list layer, merging run-length counts.
func ListOf(elem NStarType) NStarType {
	return ListN(elem, 1)
}

// ListN wraps elem in n list layers in canonical run-length form.
func ListN(elem NStarType, n int) NStarType {
	if n < 1 {
		Invariant("list repeat count must be at least 1, got %d", n)
	}
	if inner, elemElem, ok := listParts(elem); ok {
		n += inner
		elem = elemElem
	}
	if n == 1 {
		return NStarType{Main: listMain, Extra: Extras(TypeArg(elem))}
	}
	return NStarType{Main: listMain, Extra: Extras(ValueArg(strconv.Itoa(n)), TypeArg(elem))}
}

// ListParts returns the repeat count and innermost element of a list.
func ListParts(t NStarType) (int, NStarType, bool) {
	return listParts(t)
}

func listParts(t NStarType) (int, NStarType, bool) {
	if !IsList(t) {
		return 0, NStarType{}, false
	}
	switch t.Extra.Len() {
	case 1:
		e := t.Extra.At(0)
		if e.IsValue {
			Invariant("list element must be a type, got value %q", e.Value)
		}
		return 1, e.Type, true
	case 2:
		count, elem := t.Extra.At(0), t.Extra.At(1)
		if !count.IsValue || elem.IsValue {
			Invariant("list run-length form must be (count, type)")
		}
		n, err := strconv.Atoi(count.Value)
		if err != nil || n < 1 {
			Invariant("list repeat count %q is not a positive decimal", count.Value)
		}
		return n, elem.Type, true
	default:
		Invariant("list must carry one or two extra types, got %d", t.Extra.Len())
	}
	return 0, NStarType{}, false
}

// Canonical rewrites every list in t into run-length form. It is idempotent.
func Canonical(t NStarType) NStarType {
	if n, elem, ok := listParts(t); ok {
		return ListN(Canonical(elem), n)
	}
	if t.Extra.Len() == 0 {
		return t
	}
	out := t.Extra
	for i := 0; i < t.Extra.Len(); i++ {
		e := t.Extra.At(i)
		if e.IsValue {
			continue
		}
		out = out.With(t.Extra.Name(i), TypeArg(Canonical(e.Type)))
	}
	return NStarType{Main: t.Main, Extra: out}
}

// PeelOne removes one list layer from a list, a host collection or a span.
func PeelOne(t NStarType) (NStarType, bool) {
	if n, elem, ok := listParts(t); ok {
		if n == 1 {
			return elem, true
		}
		return ListN(elem, n-1), true
	}
	if IsCollection(t) || IsReadOnlySpan(t) {
		return t.Extra.At(0).Type, true
	}
	return NStarType{}, false
}

// PeelList strips every list layer, returning the depth and the leaf type.
func PeelList(t NStarType) (int, NStarType) {
	depth := 0
	for {
		if n, elem, ok := listParts(t); ok {
			depth += n
			t = elem
			continue
		}
		inner, ok := PeelOne(t)
		if !ok {
			return depth, t
		}
		depth++
		t = inner
	}
}

// Tuple builds a tuple of the given components.
func Tuple(components ...NStarType) NStarType {
	return NStarType{Main: tupleMain, Extra: TypeExtras(components...)}
}

// TupleComponents returns the component types of a tuple.
func TupleComponents(t NStarType) []NStarType {
	if !IsTuple(t) {
		return nil
	}
	out, ok := t.Extra.Types()
	if !ok {
		Invariant("tuple components must be types: %s", t.Extra.String())
	}
	return out
}

// UnwrapSingleTuple makes a 1-tuple transparently its element type.
func UnwrapSingleTuple(t NStarType) NStarType {
	for IsTuple(t) && t.Extra.Len() == 1 && !t.Extra.At(0).IsValue {
		t = t.Extra.At(0).Type
	}
	return t
}

// Func builds the delegate shape: return type followed by parameters.
func Func(ret NStarType, params ...NStarType) NStarType {
	return NStarType{Main: funcMain, Extra: TypeExtras(append([]NStarType{ret}, params...)...)}
}

// FuncParts splits a delegate into its return type and parameters.
func FuncParts(t NStarType) (NStarType, []NStarType, bool) {
	if !IsFunc(t) {
		return NStarType{}, nil, false
	}
	all, ok := t.Extra.Types()
	if !ok || len(all) == 0 {
		Invariant("delegate must carry a return type followed by parameter types")
	}
	return all[0], all[1:], true
}

// ReadOnlySpan builds the read-only span of elem.
func ReadOnlySpan(elem NStarType) NStarType {
	return NStarType{Main: spanMain, Extra: Extras(TypeArg(elem))}
}

// Validate enforces the canonical-shape invariants on t and its arguments.
// Violations panic with an InvariantError.
func Validate(t NStarType) {
	if t.Main.IsPrimitive() {
		name := t.Main.Leaf()
		if config.IsPrimitiveName(name) && !config.IsGenericPrimitiveName(name) && t.Extra.Len() != 0 {
			Invariant("non-generic type %s must not carry extra types", name)
		}
	}
	switch {
	case IsList(t):
		listParts(t)
	case IsTuple(t):
		TupleComponents(t)
	case IsFunc(t):
		FuncParts(t)
	}
	for i := 0; i < t.Extra.Len(); i++ {
		if e := t.Extra.At(i); !e.IsValue {
			Validate(e.Type)
		}
	}
}
