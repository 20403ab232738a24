package scope

import (
	"strconv"
	"strings"
)

// BlockKind classifies one level of a scope path.
type BlockKind int

const (
	Unnamed BlockKind = iota
	Primitive
	Extra // generic parameter
	Namespace
	Class
	Struct
	Interface
	Delegate
	Enum
	Function
	Constructor
	Destructor
	Operator
	Extent
	Other
)

var blockKindNames = [...]string{
	Unnamed:     "unnamed",
	Primitive:   "primitive",
	Extra:       "extra",
	Namespace:   "namespace",
	Class:       "class",
	Struct:      "struct",
	Interface:   "interface",
	Delegate:    "delegate",
	Enum:        "enum",
	Function:    "function",
	Constructor: "constructor",
	Destructor:  "destructor",
	Operator:    "operator",
	Extent:      "extent",
	Other:       "other",
}

func (k BlockKind) String() string {
	if k >= 0 && int(k) < len(blockKindNames) {
		return blockKindNames[k]
	}
	return "unknown"
}

// ParseBlockKind is the inverse of BlockKind.String.
func ParseBlockKind(s string) (BlockKind, bool) {
	s = strings.ToLower(s)
	for i, name := range blockKindNames {
		if name == s {
			return BlockKind(i), true
		}
	}
	return Unnamed, false
}

// IsType reports whether blocks of this kind declare a type.
func (k BlockKind) IsType() bool {
	switch k {
	case Primitive, Extra, Class, Struct, Interface, Delegate, Enum:
		return true
	}
	return false
}

// Block is one immutable level of a scope path.
// UnnamedIndex disambiguates anonymous blocks and takes no part in equality.
type Block struct {
	Kind         BlockKind
	Name         string
	UnnamedIndex int
}

// NewBlock creates a named block.
func NewBlock(kind BlockKind, name string) Block {
	return Block{Kind: kind, Name: name}
}

// NewUnnamed creates the index-th anonymous block of a level.
func NewUnnamed(index int) Block {
	return Block{Kind: Unnamed, UnnamedIndex: index}
}

// Equal compares kind and name.
func (b Block) Equal(other Block) bool {
	return b.Kind == other.Kind && b.Name == other.Name
}

// Compare orders by kind, then by name.
func (b Block) Compare(other Block) int {
	if b.Kind != other.Kind {
		if b.Kind < other.Kind {
			return -1
		}
		return 1
	}
	return strings.Compare(b.Name, other.Name)
}

func (b Block) String() string {
	if b.Kind == Unnamed && b.Name == "" {
		return "#" + strconv.Itoa(b.UnnamedIndex)
	}
	return b.Name
}
