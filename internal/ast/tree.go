package ast

import (
	"fmt"
	"strings"

	"github.com/nstar-lang/nstar/internal/scope"
)

// BranchID addresses a node in a Tree.
type BranchID int32

const (
	// NoBranch marks the absence of a node (for example, a root's parent).
	NoBranch BranchID = -1

	// DoNotAdd means "nothing to attach here"; Add ignores it.
	DoNotAdd BranchID = -2
)

// Branch is one node of the tree. Children are owned; Parent is a plain index
// kept for diagnostics only.
type Branch struct {
	Name     string
	Pos      int
	EndPos   int
	Children []BranchID
	Scope    scope.BlockStack
	Payload  any
	Parent   BranchID
}

// Tree is an arena of branches. A node belongs to at most one parent.
type Tree struct {
	nodes []Branch
}

// NewTree creates an empty arena.
func NewTree() *Tree {
	return &Tree{}
}

// New allocates a childless node at pos.
func (t *Tree) New(name string, pos int, sc scope.BlockStack) BranchID {
	return t.NewLeaf(name, pos, pos+1, sc)
}

// NewLeaf allocates a childless node spanning [pos, endPos).
func (t *Tree) NewLeaf(name string, pos, endPos int, sc scope.BlockStack) BranchID {
	t.nodes = append(t.nodes, Branch{
		Name:   name,
		Pos:    pos,
		EndPos: endPos,
		Scope:  sc,
		Parent: NoBranch,
	})
	return BranchID(len(t.nodes) - 1)
}

// NewWithPayload allocates a childless node carrying payload.
func (t *Tree) NewWithPayload(name string, pos int, sc scope.BlockStack, payload any) BranchID {
	id := t.New(name, pos, sc)
	t.nodes[id].Payload = payload
	return id
}

// Len returns the number of allocated nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Get returns the node; the pointer is invalidated by the next allocation.
func (t *Tree) Get(id BranchID) *Branch {
	t.check(id)
	return &t.nodes[id]
}

// Children returns a copy of the child list.
func (t *Tree) Children(id BranchID) []BranchID {
	t.check(id)
	cp := make([]BranchID, len(t.nodes[id].Children))
	copy(cp, t.nodes[id].Children)
	return cp
}

// Child returns the i-th child of id.
func (t *Tree) Child(id BranchID, i int) BranchID {
	t.check(id)
	return t.nodes[id].Children[i]
}

// Parent returns the owning node, or NoBranch.
func (t *Tree) Parent(id BranchID) BranchID {
	t.check(id)
	return t.nodes[id].Parent
}

// SetPayload replaces the payload of id.
func (t *Tree) SetPayload(id BranchID, payload any) {
	t.check(id)
	t.nodes[id].Payload = payload
}

// Add appends child to parent. DoNotAdd is ignored. Every mutation resets
// the parent's span to run from its first child to the end of its last one.
func (t *Tree) Add(parent, child BranchID) {
	if child == DoNotAdd {
		return
	}
	t.attach(parent, child)
	t.nodes[parent].Children = append(t.nodes[parent].Children, child)
	t.recompute(parent)
}

// AddRange appends every child in order, skipping DoNotAdd.
func (t *Tree) AddRange(parent BranchID, children ...BranchID) {
	for _, c := range children {
		if c == DoNotAdd {
			continue
		}
		t.attach(parent, c)
		t.nodes[parent].Children = append(t.nodes[parent].Children, c)
	}
	t.recompute(parent)
}

// Insert places child at index among parent's children.
func (t *Tree) Insert(parent BranchID, index int, child BranchID) {
	if child == DoNotAdd {
		return
	}
	children := t.nodes[parent].Children
	if index < 0 || index > len(children) {
		panic(fmt.Sprintf("ast: insert index %d out of range [0,%d]", index, len(children)))
	}
	t.attach(parent, child)
	children = append(children, NoBranch)
	copy(children[index+1:], children[index:])
	children[index] = child
	t.nodes[parent].Children = children
	t.recompute(parent)
}

// Remove detaches count children of parent starting at index.
func (t *Tree) Remove(parent BranchID, index, count int) {
	t.check(parent)
	children := t.nodes[parent].Children
	if index < 0 || count < 0 || index+count > len(children) {
		panic(fmt.Sprintf("ast: remove range [%d,%d) out of range [0,%d]", index, index+count, len(children)))
	}
	for _, c := range children[index : index+count] {
		t.nodes[c].Parent = NoBranch
	}
	kept := make([]BranchID, 0, len(children)-count)
	kept = append(kept, children[:index]...)
	kept = append(kept, children[index+count:]...)
	t.nodes[parent].Children = kept
	t.recompute(parent)
}

// Replace moves the content of the detached node with into id. id keeps its
// place under its own parent; with's children are reparented to id and with
// is left as an empty detached node.
func (t *Tree) Replace(id, with BranchID) {
	t.check(id)
	t.check(with)
	if id == with {
		return
	}
	if t.nodes[with].Parent != NoBranch {
		panic(fmt.Sprintf("ast: replacement node %d is still attached to %d", with, t.nodes[with].Parent))
	}
	for _, c := range t.nodes[id].Children {
		t.nodes[c].Parent = NoBranch
	}

	src := t.nodes[with]
	parent := t.nodes[id].Parent
	t.nodes[id] = Branch{
		Name:     src.Name,
		Pos:      src.Pos,
		EndPos:   src.EndPos,
		Children: src.Children,
		Scope:    src.Scope,
		Payload:  src.Payload,
		Parent:   parent,
	}
	for _, c := range t.nodes[id].Children {
		t.nodes[c].Parent = id
	}
	t.nodes[with] = Branch{Name: src.Name, Pos: src.Pos, EndPos: src.Pos + 1, Parent: NoBranch}
	t.recompute(id)
}

// Walk visits id and its descendants in pre-order until fn returns false.
func (t *Tree) Walk(id BranchID, fn func(BranchID) bool) bool {
	if !fn(id) {
		return false
	}
	for _, c := range t.nodes[id].Children {
		if !t.Walk(c, fn) {
			return false
		}
	}
	return true
}

// Path renders the ancestor chain of id, root first, for diagnostics.
func (t *Tree) Path(id BranchID) string {
	var names []string
	for cur := id; cur != NoBranch; cur = t.nodes[cur].Parent {
		names = append(names, fmt.Sprintf("%s@%d", t.nodes[cur].Name, t.nodes[cur].Pos))
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " > ")
}

// String renders the subtree rooted at id.
func (t *Tree) String(id BranchID) string {
	var sb strings.Builder
	t.write(&sb, id)
	return sb.String()
}

func (t *Tree) write(sb *strings.Builder, id BranchID) {
	n := &t.nodes[id]
	sb.WriteString(n.Name)
	if len(n.Children) == 0 {
		return
	}
	sb.WriteByte('(')
	for i, c := range n.Children {
		if i > 0 {
			sb.WriteString(", ")
		}
		t.write(sb, c)
	}
	sb.WriteByte(')')
}

func (t *Tree) attach(parent, child BranchID) {
	t.check(parent)
	t.check(child)
	if child == parent {
		panic(fmt.Sprintf("ast: node %d cannot own itself", child))
	}
	if owner := t.nodes[child].Parent; owner != NoBranch {
		panic(fmt.Sprintf("ast: node %d already belongs to %d", child, owner))
	}
	for cur := t.nodes[parent].Parent; cur != NoBranch; cur = t.nodes[cur].Parent {
		if cur == child {
			panic(fmt.Sprintf("ast: node %d is an ancestor of %d", child, parent))
		}
	}
	t.nodes[child].Parent = parent
}

func (t *Tree) recompute(id BranchID) {
	n := &t.nodes[id]
	if len(n.Children) == 0 {
		n.EndPos = n.Pos + 1
		return
	}
	n.Pos = t.nodes[n.Children[0]].Pos
	n.EndPos = t.nodes[n.Children[len(n.Children)-1]].EndPos
}

func (t *Tree) check(id BranchID) {
	if id < 0 || int(id) >= len(t.nodes) {
		panic(fmt.Sprintf("ast: invalid branch id %d", id))
	}
}
