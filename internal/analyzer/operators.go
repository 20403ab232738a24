package analyzer

import (
	"github.com/nstar-lang/nstar/internal/scope"
	"github.com/nstar-lang/nstar/internal/symbols"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

var (
	arithmeticOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true, "pow": true}
	bitwiseOps    = map[string]bool{"&": true, "|": true, "^": true, ">>": true, "<<": true}
	comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true}
	logicalOps    = map[string]bool{"&&": true, "||": true}
)

func builtinOperator(ret typesystem.NStarType, params ...typesystem.NStarType) symbols.Overload {
	o := symbols.Overload{ReturnType: ret, Attributes: symbols.AttrStatic}
	for _, p := range params {
		o.Parameters = append(o.Parameters, symbols.Parameter{Type: p})
	}
	return o
}

// UnaryOperatorExists resolves op applied to operand: user operators of
// the operand's type first, then the primitive operators.
func (e *Engine) UnaryOperatorExists(op string, operand typesystem.NStarType) ([]ResolvedOverload, error) {
	args := []typesystem.NStarType{operand}
	if user := e.ctx.UnaryOperators(operand, op); len(user) > 0 {
		return e.userCandidates(user, nil, OriginUser, operand.Main, args)
	}
	info, ok := e.builtins.PrimitiveOf(operand)
	if !ok {
		return nil, nil
	}
	var o symbols.Overload
	switch {
	case op == "!" && operand.Equal(typesystem.Bool):
		o = builtinOperator(typesystem.Bool, typesystem.Bool)
	case (op == "+" || op == "-" || op == "++" || op == "--") && info.Numeric:
		o = builtinOperator(operand, operand)
	case op == "~" && info.Integer:
		o = builtinOperator(operand, operand)
	default:
		return nil, nil
	}
	return builtinResolved(o, operand.Main), nil
}

// BinaryOperatorExists resolves left op right: user operators declared by
// either operand type, then the primitive operators through promotion.
func (e *Engine) BinaryOperatorExists(op string, left, right typesystem.NStarType) ([]ResolvedOverload, error) {
	args := []typesystem.NStarType{left, right}
	for _, owner := range []typesystem.NStarType{left, right} {
		if user := e.ctx.BinaryOperators(owner, op); len(user) > 0 {
			found, err := e.userCandidates(user, nil, OriginUser, owner.Main, args)
			if err != nil || len(found) > 0 {
				return found, err
			}
		}
	}

	var o symbols.Overload
	switch {
	case logicalOps[op]:
		if !left.Equal(typesystem.Bool) || !right.Equal(typesystem.Bool) {
			return nil, nil
		}
		o = builtinOperator(typesystem.Bool, typesystem.Bool, typesystem.Bool)
	case comparisonOps[op]:
		if left.Equal(right) && (op == "==" || op == "!=") {
			o = builtinOperator(typesystem.Bool, left, right)
			break
		}
		result, ok := e.PrimitiveResultType(left, right)
		if !ok {
			return nil, nil
		}
		o = builtinOperator(typesystem.Bool, result, result)
	case arithmeticOps[op], bitwiseOps[op]:
		result, ok := e.PrimitiveResultType(left, right)
		if !ok {
			return nil, nil
		}
		if bitwiseOps[op] {
			if info, _ := e.builtins.PrimitiveOf(result); !info.Integer && !result.Equal(typesystem.Bool) {
				return nil, nil
			}
		}
		o = builtinOperator(result, result, result)
	default:
		return nil, nil
	}
	return builtinResolved(o, scope.BlockStack{}), nil
}

// builtinResolved wraps a primitive operator. Operands are adapted through
// promotion, not scored.
func builtinResolved(o symbols.Overload, at scope.BlockStack) []ResolvedOverload {
	return []ResolvedOverload{{
		Overload: o,
		Score:    len(o.Parameters),
		Complete: true,
		Origin:   OriginBuiltin,
		Scope:    at,
	}}
}
