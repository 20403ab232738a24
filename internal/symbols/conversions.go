package symbols

import "github.com/nstar-lang/nstar/internal/typesystem"

// ConversionEdge is one implicit conversion from a source type. Warning marks
// a lossy conversion that needs a runtime adapter.
type ConversionEdge struct {
	Dest    typesystem.NStarType
	Warning bool
}

// Conversions is the implicit-conversion graph.
// Source main type key -> source extra types key -> edges
type Conversions struct {
	edges map[string]map[string][]ConversionEdge
	count int
}

func NewConversions() *Conversions {
	return &Conversions{edges: make(map[string]map[string][]ConversionEdge)}
}

// Add records src -> dst. A repeated edge keeps the warning-free variant.
func (c *Conversions) Add(src, dst typesystem.NStarType, warning bool) {
	byExtra, ok := c.edges[src.Main.Key()]
	if !ok {
		byExtra = make(map[string][]ConversionEdge)
		c.edges[src.Main.Key()] = byExtra
	}
	key := src.Extra.Key()
	for i, e := range byExtra[key] {
		if e.Dest.Equal(dst) {
			byExtra[key][i].Warning = e.Warning && warning
			return
		}
	}
	byExtra[key] = append(byExtra[key], ConversionEdge{Dest: dst, Warning: warning})
	c.count++
}

// Edges returns the direct conversions out of src, in insertion order.
func (c *Conversions) Edges(src typesystem.NStarType) []ConversionEdge {
	if c == nil {
		return nil
	}
	return c.edges[src.Main.Key()][src.Extra.Key()]
}

// Len is the number of distinct edges.
func (c *Conversions) Len() int {
	if c == nil {
		return 0
	}
	return c.count
}

// Reachability is a memoised conversion-closure answer. Path lists the
// types traversed after the source, ending with the destination.
type Reachability struct {
	Found   bool
	Warning bool
	Path    []typesystem.NStarType
}
