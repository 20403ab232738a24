package typesystem

import (
	"strconv"

	"github.com/nstar-lang/nstar/internal/ast"
	"github.com/nstar-lang/nstar/internal/config"
	"github.com/nstar-lang/nstar/internal/scope"
)

// FromBranch builds the type denoted by a "type" branch.
//
// A branch whose payload already holds an NStarType is returned unchanged.
// Otherwise the payload must be the main scope.BlockStack and the children
// are the arguments: "type" branches for type arguments and "Value" branches
// (string payload) for literal ones. The result is stored back into the
// branch payload, so later calls are cheap.
func FromBranch(tree *ast.Tree, id ast.BranchID, limit int) (NStarType, error) {
	if limit <= 0 {
		limit = config.DefaultMaxDepth
	}
	return fromBranch(tree, id, 0, limit)
}

func fromBranch(tree *ast.Tree, id ast.BranchID, depth, limit int) (NStarType, error) {
	if depth > limit {
		return NStarType{}, NewTooComplexError("build", limit)
	}
	b := tree.Get(id)
	if b.Name != config.TypeBranchName {
		Invariant("branch %q at %d is not a %s branch", b.Name, b.Pos, config.TypeBranchName)
	}

	var main scope.BlockStack
	switch p := b.Payload.(type) {
	case NStarType:
		return p, nil
	case *NStarType:
		if p == nil {
			Invariant("type branch at %d has a nil type payload", b.Pos)
		}
		return *p, nil
	case scope.BlockStack:
		main = p
	default:
		Invariant("type branch at %d has payload %T", b.Pos, b.Payload)
	}

	children := tree.Children(id)
	var t NStarType
	switch {
	case main.Equal(listMain):
		elem, n, err := listArgs(tree, id, children, depth, limit)
		if err != nil {
			return NStarType{}, err
		}
		t = ListN(elem, n)
	case main.Equal(tupleMain):
		components := make([]NStarType, len(children))
		for i, c := range children {
			if tree.Get(c).Name != config.TypeBranchName {
				Invariant("tuple component %d at %d is not a type", i, tree.Get(c).Pos)
			}
			ct, err := fromBranch(tree, c, depth+1, limit)
			if err != nil {
				return NStarType{}, err
			}
			components[i] = ct
		}
		t = Tuple(components...)
	default:
		extras := make([]ExtraType, 0, len(children))
		for _, c := range children {
			e, err := extraFromBranch(tree, c, depth, limit)
			if err != nil {
				return NStarType{}, err
			}
			extras = append(extras, e)
		}
		t = NStarType{Main: main, Extra: Extras(extras...)}
		Validate(t)
	}

	tree.SetPayload(id, t)
	return t, nil
}

func listArgs(tree *ast.Tree, id ast.BranchID, children []ast.BranchID, depth, limit int) (NStarType, int, error) {
	switch len(children) {
	case 1:
		if tree.Get(children[0]).Name != config.TypeBranchName {
			Invariant("list element at %d is not a type", tree.Get(children[0]).Pos)
		}
		elem, err := fromBranch(tree, children[0], depth+1, limit)
		return elem, 1, err
	case 2:
		count, ok := tree.Get(children[0]).Payload.(string)
		if tree.Get(children[0]).Name != config.ValueBranchName || !ok {
			Invariant("list count at %d must be a value", tree.Get(children[0]).Pos)
		}
		n, err := strconv.Atoi(count)
		if err != nil || n < 1 {
			Invariant("list repeat count %q is not a positive decimal", count)
		}
		if tree.Get(children[1]).Name != config.TypeBranchName {
			Invariant("list element at %d is not a type", tree.Get(children[1]).Pos)
		}
		elem, err := fromBranch(tree, children[1], depth+1, limit)
		return elem, n, err
	default:
		Invariant("list at %d must have one or two arguments, got %d", tree.Get(id).Pos, len(children))
	}
	return NStarType{}, 0, nil
}

func extraFromBranch(tree *ast.Tree, id ast.BranchID, depth, limit int) (ExtraType, error) {
	b := tree.Get(id)
	switch b.Name {
	case config.ValueBranchName:
		v, ok := b.Payload.(string)
		if !ok {
			Invariant("value branch at %d has payload %T", b.Pos, b.Payload)
		}
		return ValueArg(v), nil
	case config.TypeBranchName:
		t, err := fromBranch(tree, id, depth+1, limit)
		if err != nil {
			return ExtraType{}, err
		}
		return TypeArg(t), nil
	default:
		Invariant("argument branch %q at %d is neither a type nor a value", b.Name, b.Pos)
	}
	return ExtraType{}, nil
}

// ToBranch synthesizes a "type" branch carrying t, for callers that need to
// attach a resolved type to a tree.
func ToBranch(tree *ast.Tree, t NStarType, pos int, sc scope.BlockStack) ast.BranchID {
	return tree.NewWithPayload(config.TypeBranchName, pos, sc, t)
}
