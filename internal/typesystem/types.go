package typesystem

import (
	"strconv"

	"github.com/nstar-lang/nstar/internal/config"
	"github.com/nstar-lang/nstar/internal/scope"
)

// NStarType is the structural representation of a (possibly generic) type:
// a scope path plus ordered generic arguments.
// It is a value type; operations that change a type return a new one.
type NStarType struct {
	Main  scope.BlockStack
	Extra ExtraTypeList
}

// ExtraType is one generic-argument slot: a nested type or a literal value
// (for non-type generic parameters such as repeat counts).
type ExtraType struct {
	Type    NStarType
	Value   string
	IsValue bool
}

// TypeArg wraps a type argument.
func TypeArg(t NStarType) ExtraType { return ExtraType{Type: t} }

// ValueArg wraps a literal argument.
func ValueArg(v string) ExtraType { return ExtraType{Value: v, IsValue: true} }

// Equal compares two slots structurally.
func (e ExtraType) Equal(other ExtraType) bool {
	if e.IsValue != other.IsValue {
		return false
	}
	if e.IsValue {
		return e.Value == other.Value
	}
	return e.Type.Equal(other.Type)
}

func (e ExtraType) String() string {
	if e.IsValue {
		return e.Value
	}
	return e.Type.String()
}

type extraEntry struct {
	name  string
	extra ExtraType
}

// ExtraTypeList is an ordered, name-keyed list of generic arguments.
// Position defines the argument; names support lookup by parameter name.
type ExtraTypeList struct {
	entries []extraEntry
}

// Extras builds a positional list; entry names are "1", "2", ...
func Extras(extras ...ExtraType) ExtraTypeList {
	if len(extras) == 0 {
		return ExtraTypeList{}
	}
	entries := make([]extraEntry, len(extras))
	for i, e := range extras {
		entries[i] = extraEntry{name: strconv.Itoa(i + 1), extra: e}
	}
	return ExtraTypeList{entries: entries}
}

// TypeExtras builds a positional list of type arguments.
func TypeExtras(types ...NStarType) ExtraTypeList {
	extras := make([]ExtraType, len(types))
	for i, t := range types {
		extras[i] = TypeArg(t)
	}
	return Extras(extras...)
}

// Len returns the number of slots.
func (l ExtraTypeList) Len() int { return len(l.entries) }

// At returns the i-th slot.
func (l ExtraTypeList) At(i int) ExtraType { return l.entries[i].extra }

// Name returns the key of the i-th slot.
func (l ExtraTypeList) Name(i int) string { return l.entries[i].name }

// Get looks a slot up by name.
func (l ExtraTypeList) Get(name string) (ExtraType, bool) {
	for _, e := range l.entries {
		if e.name == name {
			return e.extra, true
		}
	}
	return ExtraType{}, false
}

// With returns a copy with a slot appended (or replaced when name exists).
func (l ExtraTypeList) With(name string, extra ExtraType) ExtraTypeList {
	entries := make([]extraEntry, len(l.entries), len(l.entries)+1)
	copy(entries, l.entries)
	for i := range entries {
		if entries[i].name == name {
			entries[i].extra = extra
			return ExtraTypeList{entries: entries}
		}
	}
	entries = append(entries, extraEntry{name: name, extra: extra})
	return ExtraTypeList{entries: entries}
}

// Rename returns a copy whose slots are keyed by names, positionally.
// Surplus slots keep their previous keys.
func (l ExtraTypeList) Rename(names []string) ExtraTypeList {
	entries := make([]extraEntry, len(l.entries))
	copy(entries, l.entries)
	for i := range entries {
		if i < len(names) {
			entries[i].name = names[i]
		}
	}
	return ExtraTypeList{entries: entries}
}

// Types returns the type arguments; ok is false if any slot is a value.
func (l ExtraTypeList) Types() ([]NStarType, bool) {
	out := make([]NStarType, len(l.entries))
	for i, e := range l.entries {
		if e.extra.IsValue {
			return nil, false
		}
		out[i] = e.extra.Type
	}
	return out, true
}

// Equal compares slots positionally; names are not part of identity.
func (l ExtraTypeList) Equal(other ExtraTypeList) bool {
	if len(l.entries) != len(other.entries) {
		return false
	}
	for i, e := range l.entries {
		if !e.extra.Equal(other.entries[i].extra) {
			return false
		}
	}
	return true
}

// Key is a canonical string for use as a map key.
func (l ExtraTypeList) Key() string {
	if len(l.entries) == 0 {
		return ""
	}
	return l.String()
}

// Primitive builds a non-generic primitive type.
func Primitive(name string) NStarType {
	return NStarType{Main: scope.PrimitiveStack(name)}
}

// GenericParam builds the type standing for the generic parameter name.
func GenericParam(name string) NStarType {
	return NStarType{Main: scope.ExtraStack(name)}
}

// Named builds a type from a main path and type arguments.
func Named(main scope.BlockStack, args ...NStarType) NStarType {
	return NStarType{Main: main, Extra: TypeExtras(args...)}
}

// Equal compares two types structurally.
func (t NStarType) Equal(other NStarType) bool {
	return t.Main.Equal(other.Main) && t.Extra.Equal(other.Extra)
}

// IsZero reports whether t is the empty type (no path).
func (t NStarType) IsZero() bool {
	return t.Main.IsEmpty() && t.Extra.Len() == 0
}

// Key is a canonical string for use as a map key.
func (t NStarType) Key() string {
	k := t.Main.Key()
	if t.Extra.Len() > 0 {
		k += "\x1e" + t.String()
	}
	return k
}

// Depth is the generic nesting depth: 1 for a type without type arguments.
// Run-length encoded lists count once per layer.
func (t NStarType) Depth() int {
	d := 0
	for i := 0; i < t.Extra.Len(); i++ {
		e := t.Extra.At(i)
		if e.IsValue {
			continue
		}
		d = max(d, e.Type.Depth())
	}
	if n, elem, ok := listParts(t); ok && n > 1 {
		return elem.Depth() + n
	}
	return d + 1
}

// IsPrimitiveNamed reports whether t is the primitive called name.
func (t NStarType) IsPrimitiveNamed(name string) bool {
	return t.Main.IsPrimitiveNamed(name)
}

// IsGenericParam reports whether t stands for a generic parameter.
func (t NStarType) IsGenericParam() bool {
	return t.Extra.Len() == 0 && t.Main.IsExtra()
}

// GenericParams lists the generic parameter names occurring in t, in order of
// first appearance.
func (t NStarType) GenericParams() []string {
	var out []string
	seen := map[string]bool{}
	var walk func(NStarType)
	walk = func(x NStarType) {
		if x.IsGenericParam() {
			if name := x.Main.Leaf(); !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
			return
		}
		for i := 0; i < x.Extra.Len(); i++ {
			if e := x.Extra.At(i); !e.IsValue {
				walk(e.Type)
			}
		}
	}
	walk(t)
	return out
}

// Distinguished types.
var (
	Null     = Primitive(config.NullTypeName)
	Object   = Primitive(config.ObjectTypeName)
	Bool     = Primitive(config.BoolTypeName)
	Byte     = Primitive(config.ByteTypeName)
	Short    = Primitive(config.ShortTypeName)
	UShort   = Primitive(config.UShortTypeName)
	Char     = Primitive(config.CharTypeName)
	Int      = Primitive(config.IntTypeName)
	UInt     = Primitive(config.UIntTypeName)
	Long     = Primitive(config.LongTypeName)
	ULong    = Primitive(config.ULongTypeName)
	BigInt   = Primitive(config.BigIntTypeName)
	TimeSpan = Primitive(config.TimeSpanTypeName)
	DateTime = Primitive(config.DateTimeTypeName)
	Real     = Primitive(config.RealTypeName)
	Complex  = Primitive(config.ComplexTypeName)
	String   = Primitive(config.StringTypeName)
)
