package analyzer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nstar-lang/nstar/internal/config"
	"github.com/nstar-lang/nstar/internal/symbols"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

// ConversionKind names the adapter a code generator must emit.
type ConversionKind int

const (
	// WrapList wraps the value in Count nested single-element lists.
	WrapList ConversionKind = iota
	// Stringify renders the value (or each leaf of a list) as a string.
	Stringify
	// ParseOrDefault parses a string, falling back to the target's default.
	ParseOrDefault
	// CheckedCast is a lossy numeric cast.
	CheckedCast
	// Convert is a lossless implicit conversion to Target.
	Convert
	// Tuple converts a tuple component-wise into Target.
	Tuple
	// Upcast widens to a base type or interface.
	Upcast
	// Each applies Components[0] to every leaf of a list.
	Each
)

var conversionNames = [...]string{
	WrapList:       "wrap",
	Stringify:      "stringify",
	ParseOrDefault: "parse",
	CheckedCast:    "cast",
	Convert:        "convert",
	Tuple:          "tuple",
	Upcast:         "upcast",
	Each:           "each",
}

func (k ConversionKind) String() string {
	if int(k) < len(conversionNames) {
		return conversionNames[k]
	}
	return "ConversionKind(" + strconv.Itoa(int(k)) + ")"
}

// Conversion describes how to adapt a value; Next runs on the result.
type Conversion struct {
	Kind       ConversionKind
	Target     typesystem.NStarType
	Count      int
	Components []*Conversion
	Next       *Conversion
}

func (c *Conversion) String() string {
	if c == nil {
		return "none"
	}
	var sb strings.Builder
	for step := c; step != nil; step = step.Next {
		if step != c {
			sb.WriteString(" -> ")
		}
		sb.WriteString(step.Kind.String())
		switch step.Kind {
		case WrapList:
			fmt.Fprintf(&sb, "(%d)", step.Count)
		case Tuple, Each:
			parts := make([]string, len(step.Components))
			for i, comp := range step.Components {
				parts[i] = comp.String()
			}
			fmt.Fprintf(&sb, "[%s]", strings.Join(parts, ", "))
			if !step.Target.IsZero() {
				fmt.Fprintf(&sb, "(%s)", step.Target)
			}
		case Stringify:
		default:
			fmt.Fprintf(&sb, "(%s)", step.Target)
		}
	}
	return sb.String()
}

// then appends next after c. Either may be nil.
func then(c, next *Conversion) *Conversion {
	if c == nil {
		return next
	}
	if next == nil {
		return c
	}
	out := *c
	out.Next = then(c.Next, next)
	return &out
}

// Compatibility is the answer of IsCompatible. ExtraMessage is a hint for
// the diagnostics layer, set when a specific limit caused the rejection.
type Compatibility struct {
	OK           bool
	Warning      bool
	Conversion   *Conversion
	ExtraMessage string
}

var (
	accepted = Compatibility{OK: true}
	rejected = Compatibility{}
)

// IsCompatible decides whether a value of type src may be used where dst
// is expected, and how to convert it.
func (e *Engine) IsCompatible(src, dst typesystem.NStarType) (Compatibility, error) {
	return e.compatible(src, dst, 0, true)
}

func (e *Engine) compatible(src, dst typesystem.NStarType, depth int, supers bool) (Compatibility, error) {
	if depth > e.maxDepth {
		return rejected, e.tooComplex("compatibility")
	}
	src, dst = typesystem.UnwrapSingleTuple(src), typesystem.UnwrapSingleTuple(dst)

	if src.Equal(dst) || src.Equal(typesystem.Null) {
		return accepted, nil
	}
	if c, ok := e.sink(src, dst); ok {
		return c, nil
	}

	if typesystem.IsTuple(dst) {
		return e.tupleToTuple(src, dst, depth)
	}
	if typesystem.IsList(dst) || typesystem.IsCollection(dst) {
		if typesystem.IsTuple(src) {
			return e.tupleToList(src, dst, depth)
		}
		c, err := e.depthAndLeaf(src, dst, depth)
		if err != nil || c.OK {
			return c, err
		}
	}
	if typesystem.IsFunc(src) && typesystem.IsFunc(dst) {
		return e.delegates(src, dst, depth)
	}
	if typesystem.IsReadOnlySpan(dst) {
		c, err := e.depthAndLeaf(src, dst, depth)
		if err != nil || c.OK {
			return c, err
		}
	}

	if supers {
		c, err := e.viaSupertypes(src, dst, depth)
		if err != nil || c.OK {
			return c, err
		}
	}
	return e.viaConversions(src, dst), nil
}

// sink handles destinations that accept anything.
func (e *Engine) sink(src, dst typesystem.NStarType) (Compatibility, bool) {
	switch {
	case dst.Equal(typesystem.Object), dst.Equal(typesystem.Null):
		return accepted, true
	case dst.Equal(typesystem.ListOf(typesystem.Object)):
		if _, ok := typesystem.PeelOne(src); ok {
			return accepted, true
		}
		return Compatibility{OK: true, Conversion: &Conversion{Kind: WrapList, Count: 1, Target: dst}}, true
	}
	return rejected, false
}

// strict requires a warning-free match.
func (e *Engine) strict(src, dst typesystem.NStarType, depth int) (*Conversion, bool, error) {
	c, err := e.compatible(src, dst, depth+1, true)
	if err != nil {
		return nil, false, err
	}
	return c.Conversion, c.OK && !c.Warning, nil
}

func (e *Engine) tupleToTuple(src, dst typesystem.NStarType, depth int) (Compatibility, error) {
	if !typesystem.IsTuple(src) {
		return rejected, nil
	}
	sc, dc := typesystem.TupleComponents(src), typesystem.TupleComponents(dst)
	if len(sc) != len(dc) {
		return rejected, nil
	}
	comps := make([]*Conversion, len(sc))
	needed := false
	for i := range sc {
		conv, ok, err := e.strict(sc[i], dc[i], depth)
		if err != nil || !ok {
			return rejected, err
		}
		comps[i] = conv
		needed = needed || conv != nil
	}
	if !needed {
		return accepted, nil
	}
	return Compatibility{OK: true, Conversion: &Conversion{Kind: Tuple, Target: dst, Components: comps}}, nil
}

func (e *Engine) tupleToList(src, dst typesystem.NStarType, depth int) (Compatibility, error) {
	comps := typesystem.TupleComponents(src)
	if len(comps) > e.tupleListLimit {
		return Compatibility{ExtraMessage: fmt.Sprintf(config.TupleTooLongHint, e.tupleListLimit)}, nil
	}
	elem, _ := typesystem.PeelOne(dst)
	convs := make([]*Conversion, len(comps))
	for i, comp := range comps {
		conv, ok, err := e.strict(comp, elem, depth)
		if err != nil || !ok {
			return rejected, err
		}
		convs[i] = conv
	}
	return Compatibility{OK: true, Conversion: &Conversion{Kind: Tuple, Target: dst, Components: convs}}, nil
}

// depthAndLeaf compares list-like types by nesting depth and leaf type.
func (e *Engine) depthAndLeaf(src, dst typesystem.NStarType, depth int) (Compatibility, error) {
	sd, sl := typesystem.PeelList(src)
	dd, dl := typesystem.PeelList(dst)

	charString := sl.Equal(typesystem.Char) && dl.Equal(typesystem.String) && sd == dd+1
	stringChars := sl.Equal(typesystem.String) && dl.Equal(typesystem.Char) && sd+1 == dd
	if charString || stringChars {
		return Compatibility{OK: true, Conversion: &Conversion{Kind: Convert, Target: dst}}, nil
	}
	if dl.Equal(typesystem.String) && sd >= dd && sd > 0 {
		return Compatibility{OK: true, Conversion: &Conversion{Kind: Stringify, Target: dst}}, nil
	}
	if sd <= dd {
		leaf, ok, err := e.strict(sl, dl, depth)
		if err != nil {
			return rejected, err
		}
		if ok {
			var conv *Conversion
			if leaf != nil {
				if sd == 0 {
					conv = leaf
				} else {
					conv = &Conversion{Kind: Each, Components: []*Conversion{leaf}}
				}
			}
			if dd > sd {
				conv = then(conv, &Conversion{Kind: WrapList, Count: dd - sd, Target: dst})
			}
			return Compatibility{OK: true, Conversion: conv}, nil
		}
	}
	return rejected, nil
}

// delegates compares function shapes: results flow from src to dst and
// parameters from dst to src.
func (e *Engine) delegates(src, dst typesystem.NStarType, depth int) (Compatibility, error) {
	sr, sp, _ := typesystem.FuncParts(src)
	dr, dp, _ := typesystem.FuncParts(dst)
	if len(sp) != len(dp) {
		return rejected, nil
	}
	out := accepted
	check := func(from, to typesystem.NStarType) (bool, error) {
		c, err := e.compatible(from, to, depth+1, true)
		if err != nil || !c.OK {
			return false, err
		}
		out.Warning = out.Warning || c.Warning
		return true, nil
	}
	if ok, err := check(sr, dr); !ok {
		return rejected, err
	}
	for i := range sp {
		if ok, err := check(dp[i], sp[i]); !ok {
			return rejected, err
		}
	}
	return out, nil
}

// viaSupertypes tries every transitive base type and interface of src.
func (e *Engine) viaSupertypes(src, dst typesystem.NStarType, depth int) (Compatibility, error) {
	seen := map[string]bool{src.Key(): true}
	frontier := []typesystem.NStarType{src}
	for len(frontier) > 0 {
		if depth++; depth > e.maxDepth {
			return rejected, e.tooComplex("supertypes")
		}
		var next []typesystem.NStarType
		for _, t := range frontier {
			supers, err := e.directSupertypes(t)
			if err != nil {
				return rejected, err
			}
			for _, s := range supers {
				if seen[s.t.Key()] {
					continue
				}
				seen[s.t.Key()] = true
				c, err := e.compatible(s.t, dst, depth, false)
				if err != nil {
					return rejected, err
				}
				if c.OK {
					c.Conversion = then(&Conversion{Kind: Upcast, Target: s.t}, c.Conversion)
					return c, nil
				}
				next = append(next, s.t)
			}
		}
		frontier = next
	}
	return rejected, nil
}

// viaConversions searches the implicit-conversion graph.
func (e *Engine) viaConversions(src, dst typesystem.NStarType) Compatibility {
	r := e.Reach(src, dst)
	if !r.Found {
		return rejected
	}
	var conv *Conversion
	from := src
	for _, step := range r.Path {
		kind := Convert
		if e.edgeWarning(from, step) {
			kind = CheckedCast
			if from.Equal(typesystem.String) {
				kind = ParseOrDefault
			}
		}
		conv = then(conv, &Conversion{Kind: kind, Target: step})
		from = step
	}
	return Compatibility{OK: true, Warning: r.Warning, Conversion: conv}
}

func (e *Engine) edgeWarning(from, to typesystem.NStarType) bool {
	warning := true
	for _, edge := range e.ctx.ConversionEdges(from) {
		if edge.Dest.Equal(to) {
			warning = warning && edge.Warning
		}
	}
	return warning
}

// Reach computes the conversion closure from src to dst breadth-first.
// Warning-free paths are preferred; otherwise the warning is the OR of the
// edges on the shortest path. Answers are memoised in the context.
func (e *Engine) Reach(src, dst typesystem.NStarType) symbols.Reachability {
	if r, ok := e.ctx.CachedClosure(src, dst); ok {
		return r
	}
	r := e.bfs(src, dst, false)
	if !r.Found {
		r = e.bfs(src, dst, true)
	}
	e.ctx.StoreClosure(src, dst, r)
	return r
}

func (e *Engine) bfs(src, dst typesystem.NStarType, allowWarnings bool) symbols.Reachability {
	type node struct {
		t       typesystem.NStarType
		warning bool
		prev    int
	}
	nodes := []node{{t: src, prev: -1}}
	visited := map[string]bool{src.Key(): true}
	for i := 0; i < len(nodes); i++ {
		cur := nodes[i]
		for _, edge := range e.ctx.ConversionEdges(cur.t) {
			if edge.Warning && !allowWarnings {
				continue
			}
			if visited[edge.Dest.Key()] {
				continue
			}
			visited[edge.Dest.Key()] = true
			nodes = append(nodes, node{t: edge.Dest, warning: cur.warning || edge.Warning, prev: i})
			if edge.Dest.Equal(dst) {
				last := len(nodes) - 1
				var path []typesystem.NStarType
				for j := last; j > 0; j = nodes[j].prev {
					path = append([]typesystem.NStarType{nodes[j].t}, path...)
				}
				return symbols.Reachability{Found: true, Warning: nodes[last].warning, Path: path}
			}
		}
	}
	return symbols.Reachability{}
}
