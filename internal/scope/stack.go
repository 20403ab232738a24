package scope

import (
	"strconv"
	"strings"
)

// BlockStack is a fully qualified scope path, outermost block first.
// It is a value type: every method that changes the path returns a new stack.
type BlockStack struct {
	blocks []Block
}

// NewStack builds a stack from blocks, outermost first.
func NewStack(blocks ...Block) BlockStack {
	if len(blocks) == 0 {
		return BlockStack{}
	}
	cp := make([]Block, len(blocks))
	copy(cp, blocks)
	return BlockStack{blocks: cp}
}

// PrimitiveStack is the one-block path of a primitive type.
func PrimitiveStack(name string) BlockStack {
	return BlockStack{blocks: []Block{{Kind: Primitive, Name: name}}}
}

// ExtraStack is the one-block path of a generic parameter.
func ExtraStack(name string) BlockStack {
	return BlockStack{blocks: []Block{{Kind: Extra, Name: name}}}
}

// Len returns the number of blocks.
func (s BlockStack) Len() int { return len(s.blocks) }

// IsEmpty reports whether the path is the global scope.
func (s BlockStack) IsEmpty() bool { return len(s.blocks) == 0 }

// At returns the i-th block, outermost first.
func (s BlockStack) At(i int) Block { return s.blocks[i] }

// Blocks returns a copy of the blocks.
func (s BlockStack) Blocks() []Block {
	cp := make([]Block, len(s.blocks))
	copy(cp, s.blocks)
	return cp
}

// Last returns the innermost block; ok is false for the empty path.
func (s BlockStack) Last() (Block, bool) {
	if len(s.blocks) == 0 {
		return Block{}, false
	}
	return s.blocks[len(s.blocks)-1], true
}

// Leaf returns the innermost block name, or "".
func (s BlockStack) Leaf() string {
	if b, ok := s.Last(); ok {
		return b.Name
	}
	return ""
}

// Push returns the path extended by one inner block.
func (s BlockStack) Push(b Block) BlockStack {
	blocks := make([]Block, len(s.blocks)+1)
	copy(blocks, s.blocks)
	blocks[len(s.blocks)] = b
	return BlockStack{blocks: blocks}
}

// Append returns the path extended by the blocks of inner.
func (s BlockStack) Append(inner BlockStack) BlockStack {
	blocks := make([]Block, 0, len(s.blocks)+len(inner.blocks))
	blocks = append(blocks, s.blocks...)
	blocks = append(blocks, inner.blocks...)
	return BlockStack{blocks: blocks}
}

// Pop drops the innermost block. Popping the empty path returns it unchanged.
func (s BlockStack) Pop() BlockStack {
	if len(s.blocks) == 0 {
		return s
	}
	return s.Prefix(len(s.blocks) - 1)
}

// Prefix returns the first n blocks.
func (s BlockStack) Prefix(n int) BlockStack {
	if n <= 0 {
		return BlockStack{}
	}
	if n >= len(s.blocks) {
		return s
	}
	return BlockStack{blocks: s.blocks[:n:n]}
}

// Split separates the container path from the innermost name.
func (s BlockStack) Split() (BlockStack, string) {
	if len(s.blocks) == 0 {
		return s, ""
	}
	return s.Pop(), s.blocks[len(s.blocks)-1].Name
}

// IsPrimitive reports whether the path is a single primitive block.
func (s BlockStack) IsPrimitive() bool {
	return len(s.blocks) == 1 && s.blocks[0].Kind == Primitive
}

// IsPrimitiveNamed reports whether the path is the primitive called name.
func (s BlockStack) IsPrimitiveNamed(name string) bool {
	return s.IsPrimitive() && s.blocks[0].Name == name
}

// IsExtra reports whether the innermost block is a generic parameter.
func (s BlockStack) IsExtra() bool {
	b, ok := s.Last()
	return ok && b.Kind == Extra
}

// HasPrefix reports whether p is a prefix of s.
func (s BlockStack) HasPrefix(p BlockStack) bool {
	if len(p.blocks) > len(s.blocks) {
		return false
	}
	for i, b := range p.blocks {
		if !b.Equal(s.blocks[i]) {
			return false
		}
	}
	return true
}

// Equal compares element-wise.
func (s BlockStack) Equal(other BlockStack) bool {
	if len(s.blocks) != len(other.blocks) {
		return false
	}
	for i, b := range s.blocks {
		if !b.Equal(other.blocks[i]) {
			return false
		}
	}
	return true
}

// Compare orders element by element. A shorter prefix sorts after its
// extensions, so more specific paths come first in sorted lookups.
func (s BlockStack) Compare(other BlockStack) int {
	n := min(len(s.blocks), len(other.blocks))
	for i := 0; i < n; i++ {
		if c := s.blocks[i].Compare(other.blocks[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(s.blocks) == len(other.blocks):
		return 0
	case len(s.blocks) < len(other.blocks):
		return 1
	default:
		return -1
	}
}

// Key is a canonical string for use as a map key.
func (s BlockStack) Key() string {
	var sb strings.Builder
	for i, b := range s.blocks {
		if i > 0 {
			sb.WriteByte('\x1f')
		}
		sb.WriteString(strconv.Itoa(int(b.Kind)))
		sb.WriteByte(':')
		sb.WriteString(b.Name)
	}
	return sb.String()
}

// String joins block names with dots.
func (s BlockStack) String() string {
	parts := make([]string, len(s.blocks))
	for i, b := range s.blocks {
		parts[i] = b.String()
	}
	return strings.Join(parts, ".")
}
