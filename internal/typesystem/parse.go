package typesystem

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/nstar-lang/nstar/internal/config"
	"github.com/nstar-lang/nstar/internal/scope"
)

// ParseType reads the display form produced by NStarType.String.
// Single-segment names listed in generics become generic parameters; other
// dotted paths are namespaces ending in a class.
func ParseType(s string, generics ...string) (NStarType, error) {
	p := &typeParser{input: s, generics: generics, limit: config.DefaultMaxDepth}
	p.skipSpace()
	t, err := p.parseType(0)
	if err != nil {
		return NStarType{}, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return NStarType{}, p.errorf("unexpected %q", p.input[p.pos:])
	}
	if inv := checkShape(t); inv != nil {
		return NStarType{}, &ParseError{Input: s, Pos: 0, Msg: inv.Msg}
	}
	return Canonical(t), nil
}

// checkShape runs Validate and hands back the invariant it tripped over.
func checkShape(t NStarType) (inv *InvariantError) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*InvariantError)
			if !ok {
				panic(r)
			}
			inv = e
		}
	}()
	Validate(t)
	return nil
}

// MustParseType is ParseType for literals known to be valid.
func MustParseType(s string, generics ...string) NStarType {
	t, err := ParseType(s, generics...)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	input    string
	pos      int
	generics []string
	limit    int
}

func (p *typeParser) parseType(depth int) (NStarType, error) {
	if depth > p.limit {
		return NStarType{}, NewTooComplexError("parse", p.limit)
	}
	p.skipSpace()
	if p.peek() == '(' {
		return p.parseTuple(depth)
	}

	name := p.ident()
	if name == "" {
		return NStarType{}, p.errorf("expected a type name")
	}
	if name == config.ListTypeName && p.peekAfterSpace() == '(' {
		return p.parseList(depth)
	}

	segments := []string{name}
	for p.peek() == '.' {
		p.pos++
		seg := p.ident()
		if seg == "" {
			return NStarType{}, p.errorf("expected a name after '.'")
		}
		segments = append(segments, seg)
	}
	t := NStarType{Main: p.mainPath(segments)}

	p.skipSpace()
	if p.peek() != '[' {
		return t, nil
	}
	p.pos++
	var extras []ExtraType
	for {
		p.skipSpace()
		if v, ok := p.value(); ok {
			extras = append(extras, ValueArg(v))
		} else {
			arg, err := p.parseType(depth + 1)
			if err != nil {
				return NStarType{}, err
			}
			extras = append(extras, TypeArg(arg))
		}
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case ']':
			p.pos++
			if IsList(t) {
				return p.bracketList(extras)
			}
			t.Extra = Extras(extras...)
			return t, nil
		default:
			return NStarType{}, p.errorf("expected ',' or ']'")
		}
	}
}

func (p *typeParser) parseList(depth int) (NStarType, error) {
	p.skipSpace()
	p.pos++ // '('
	p.skipSpace()
	n := 1
	if v, ok := p.number(); ok {
		count, err := strconv.Atoi(v)
		if err != nil || count < 1 {
			return NStarType{}, p.errorf("list repeat count must be a positive integer")
		}
		n = count
	}
	p.skipSpace()
	if p.peek() != ')' {
		return NStarType{}, p.errorf("expected ')' after list count")
	}
	p.pos++
	elem, err := p.parseType(depth + 1)
	if err != nil {
		return NStarType{}, err
	}
	return ListN(elem, n), nil
}

// bracketList builds list[T] and list[N, T] through ListN.
func (p *typeParser) bracketList(extras []ExtraType) (NStarType, error) {
	switch {
	case len(extras) == 1 && !extras[0].IsValue:
		return ListOf(extras[0].Type), nil
	case len(extras) == 2 && extras[0].IsValue && !extras[1].IsValue:
		n, err := strconv.Atoi(extras[0].Value)
		if err != nil || n < 1 {
			return NStarType{}, p.errorf("list repeat count %q must be a positive integer", extras[0].Value)
		}
		return ListN(extras[1].Type, n), nil
	}
	return NStarType{}, p.errorf("list takes an element type or a count and an element type")
}

func (p *typeParser) parseTuple(depth int) (NStarType, error) {
	p.pos++ // '('
	var components []NStarType
	for {
		c, err := p.parseType(depth + 1)
		if err != nil {
			return NStarType{}, err
		}
		run := 1
		p.skipSpace()
		if p.peek() == '^' {
			p.pos++
			p.skipSpace()
			v, ok := p.number()
			if !ok {
				return NStarType{}, p.errorf("expected a repeat count after '^'")
			}
			run, _ = strconv.Atoi(v)
			if run < 1 {
				return NStarType{}, p.errorf("tuple repeat count must be positive")
			}
		}
		if run > config.MaxTupleComponents-len(components) {
			return NStarType{}, p.errorf("tuple has more than %d components", config.MaxTupleComponents)
		}
		for i := 0; i < run; i++ {
			components = append(components, c)
		}
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return Tuple(components...), nil
		default:
			return NStarType{}, p.errorf("expected ',' or ')' in tuple")
		}
	}
}

func (p *typeParser) mainPath(segments []string) scope.BlockStack {
	if len(segments) == 1 {
		name := segments[0]
		for _, g := range p.generics {
			if g == name {
				return scope.ExtraStack(name)
			}
		}
		if config.IsPrimitiveName(name) {
			return scope.PrimitiveStack(name)
		}
	}
	blocks := make([]scope.Block, len(segments))
	for i, seg := range segments {
		kind := scope.Namespace
		if i == len(segments)-1 {
			kind = scope.Class
		}
		blocks[i] = scope.NewBlock(kind, seg)
	}
	return scope.NewStack(blocks...)
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		r := rune(p.input[p.pos])
		if r == '_' || unicode.IsLetter(r) || (p.pos > start && unicode.IsDigit(r)) {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func (p *typeParser) number() (string, bool) {
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	return p.input[start:p.pos], p.pos > start
}

// value reads a literal argument: a number or a double-quoted string.
func (p *typeParser) value() (string, bool) {
	if v, ok := p.number(); ok {
		return v, true
	}
	if p.peek() != '"' {
		return "", false
	}
	end := strings.IndexByte(p.input[p.pos+1:], '"')
	if end < 0 {
		return "", false
	}
	v := p.input[p.pos+1 : p.pos+1+end]
	p.pos += end + 2
	return v, true
}

func (p *typeParser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

func (p *typeParser) peekAfterSpace() byte {
	p.skipSpace()
	return p.peek()
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) errorf(format string, args ...any) error {
	return &ParseError{Input: p.input, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}
