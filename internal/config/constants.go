package config

// ConfigFileNames are the recognized engine option file names, in lookup order.
var ConfigFileNames = []string{"nstar.yaml", "nstar.yml"}

// Distinguished primitive type names
const (
	NullTypeName     = "null"
	ObjectTypeName   = "object"
	BoolTypeName     = "bool"
	ByteTypeName     = "byte"
	ShortTypeName    = "short"
	UShortTypeName   = "ushort"
	CharTypeName     = "char"
	IntTypeName      = "int"
	UIntTypeName     = "uint"
	LongTypeName     = "long"
	ULongTypeName    = "ulong"
	BigIntTypeName   = "bigint"
	TimeSpanTypeName = "TimeSpan"
	DateTimeTypeName = "DateTime"
	RealTypeName     = "real"
	ComplexTypeName  = "complex"
	StringTypeName   = "string"
)

// Distinguished generic shapes
const (
	ListTypeName         = "list"
	TupleTypeName        = "tuple"
	FuncTypeName         = "func"
	ReadOnlySpanTypeName = "ReadOnlySpan"
)

// Node names understood by the type builder
const (
	TypeBranchName  = "type"
	ValueBranchName = "Value"
)

// PrimitiveTypeNames lists every non-generic primitive.
var PrimitiveTypeNames = []string{
	NullTypeName, ObjectTypeName, BoolTypeName, ByteTypeName, ShortTypeName,
	UShortTypeName, CharTypeName, IntTypeName, UIntTypeName, LongTypeName,
	ULongTypeName, BigIntTypeName, TimeSpanTypeName, DateTimeTypeName,
	RealTypeName, ComplexTypeName, StringTypeName,
}

// GenericPrimitiveNames lists the primitive shapes that carry extra types.
var GenericPrimitiveNames = []string{
	ListTypeName, TupleTypeName, FuncTypeName, ReadOnlySpanTypeName,
}

// CollectionTypeNames are host collection types peeled like one list layer.
// Each takes exactly one element type.
var CollectionTypeNames = []string{
	"Array", "Buffer", "Queue", "Stack", "Set", "LinkedList", "Slice",
}

// Engine limits
const (
	DefaultMaxDepth       = 64
	DefaultTupleListLimit = 16

	// MaxTupleComponents bounds the components a parsed tuple may expand to.
	MaxTupleComponents = 4096
)

// TupleTooLongHint is formatted with the tuple-to-list limit and handed to the
// diagnostics layer as an extra message.
const TupleTooLongHint = "tuples of more than %d elements cannot be converted to a list"

// IsPrimitiveName reports whether name is a primitive (generic or not).
func IsPrimitiveName(name string) bool {
	for _, n := range PrimitiveTypeNames {
		if n == name {
			return true
		}
	}
	return IsGenericPrimitiveName(name)
}

// IsGenericPrimitiveName reports whether name is one of the generic primitive shapes.
func IsGenericPrimitiveName(name string) bool {
	for _, n := range GenericPrimitiveNames {
		if n == name {
			return true
		}
	}
	return false
}

// IsCollectionName reports whether name is a host collection type name.
func IsCollectionName(name string) bool {
	for _, n := range CollectionTypeNames {
		if n == name {
			return true
		}
	}
	return false
}
