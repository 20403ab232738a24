package analyzer

import (
	"github.com/nstar-lang/nstar/internal/config"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

// PrimitiveResultType is the type of a binary arithmetic expression over
// two primitives. The wider kind of the lattice wins, except that mixing
// an unsigned kind with a narrower signed one widens to the next signed
// kind. It is symmetric and has no side effects.
func (e *Engine) PrimitiveResultType(a, b typesystem.NStarType) (typesystem.NStarType, bool) {
	pa, ok := e.builtins.PrimitiveOf(a)
	if !ok || pa.Rank < 0 {
		return typesystem.NStarType{}, false
	}
	pb, ok := e.builtins.PrimitiveOf(b)
	if !ok || pb.Rank < 0 {
		return typesystem.NStarType{}, false
	}
	hi, lo := pa, pb
	if lo.Rank > hi.Rank || (lo.Rank == hi.Rank && lo.Name == config.UShortTypeName) {
		hi, lo = lo, hi
	}
	signedLo := lo.Integer && lo.Signed
	switch hi.Name {
	case config.ULongTypeName:
		if signedLo {
			return typesystem.BigInt, true
		}
	case config.UIntTypeName:
		if signedLo {
			return typesystem.Long, true
		}
	case config.UShortTypeName, config.CharTypeName:
		if signedLo {
			return typesystem.Int, true
		}
	}
	return typesystem.Primitive(hi.Name), true
}

// PromotionAdapters describes the conversions a caller may apply to each
// operand to bring it to the promoted type. A nil adapter means the operand
// already has that type.
func (e *Engine) PromotionAdapters(a, b typesystem.NStarType) (left, right *Conversion, ok bool) {
	result, ok := e.PrimitiveResultType(a, b)
	if !ok {
		return nil, nil, false
	}
	adapt := func(t typesystem.NStarType) *Conversion {
		switch {
		case t.Equal(result):
			return nil
		case result.Equal(typesystem.String):
			return &Conversion{Kind: Stringify, Target: result}
		case t.Equal(typesystem.Bool):
			return &Conversion{Kind: CheckedCast, Target: result}
		}
		return &Conversion{Kind: Convert, Target: result}
	}
	return adapt(a), adapt(b), true
}
