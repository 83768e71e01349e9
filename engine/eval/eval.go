// Package eval evaluates script expressions against an environment.
// Evaluation is pure: no side effects, no environment writes.
package eval

import (
	"fmt"

	"github.com/nathoo/duskmire/script"
	"github.com/nathoo/duskmire/types"
)

// Env resolves variable reads for one speaker's evaluations.
type Env interface {
	Lookup(name string) types.Value
}

// Error is an evaluation failure, e.g. ordering a string against an int.
// Callers recover locally: the offending expression counts as false.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return "eval: " + e.Msg }

func errf(format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// Evaluate computes the value of an expression.
func Evaluate(e script.Expr, env Env) (types.Value, error) {
	switch e := e.(type) {
	case script.Lit:
		return e.Val, nil
	case script.VarRef:
		return env.Lookup(e.Name), nil
	case script.Compare:
		return compare(e, env)
	case script.Logic:
		return logic(e, env)
	default:
		return types.Value{}, errf("unknown expression %T", e)
	}
}

// Truth evaluates an expression as a boolean via standard truthiness.
func Truth(e script.Expr, env Env) (bool, error) {
	v, err := Evaluate(e, env)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

func compare(e script.Compare, env Env) (types.Value, error) {
	lhs, err := Evaluate(e.LHS, env)
	if err != nil {
		return types.Value{}, err
	}
	rhs, err := Evaluate(e.RHS, env)
	if err != nil {
		return types.Value{}, err
	}
	switch e.Op {
	case script.OpEq:
		return types.BoolVal(equal(lhs, rhs)), nil
	case script.OpNe:
		return types.BoolVal(!equal(lhs, rhs)), nil
	}
	// Ordering requires numeric operands on both sides.
	if lhs.Kind != types.IntKind || rhs.Kind != types.IntKind {
		return types.Value{}, errf("'%s' needs numeric operands, got %s and %s",
			e.Op, lhs.Kind, rhs.Kind)
	}
	var out bool
	switch e.Op {
	case script.OpGt:
		out = lhs.I > rhs.I
	case script.OpLt:
		out = lhs.I < rhs.I
	case script.OpGe:
		out = lhs.I >= rhs.I
	case script.OpLe:
		out = lhs.I <= rhs.I
	}
	return types.BoolVal(out), nil
}

// equal coerces both operands to a common type, then compares.
// Same kind compares directly; bool/int meet at int; anything meeting a
// string meets at the string rendering.
func equal(a, b types.Value) bool {
	if a.Kind == b.Kind {
		switch a.Kind {
		case types.BoolKind:
			return a.B == b.B
		case types.IntKind:
			return a.I == b.I
		case types.StringKind:
			return a.S == b.S
		}
	}
	if a.Kind == types.StringKind || b.Kind == types.StringKind {
		return a.Display() == b.Display()
	}
	return asInt(a) == asInt(b)
}

func asInt(v types.Value) int {
	if v.Kind == types.BoolKind {
		if v.B {
			return 1
		}
		return 0
	}
	return v.I
}

func logic(e script.Logic, env Env) (types.Value, error) {
	switch e.Op {
	case script.OpNot:
		t, err := Truth(e.Operands[0], env)
		if err != nil {
			return types.Value{}, err
		}
		return types.BoolVal(!t), nil
	case script.OpAnd:
		for _, op := range e.Operands {
			t, err := Truth(op, env)
			if err != nil {
				return types.Value{}, err
			}
			if !t {
				return types.BoolVal(false), nil
			}
		}
		return types.BoolVal(true), nil
	case script.OpOr:
		for _, op := range e.Operands {
			t, err := Truth(op, env)
			if err != nil {
				return types.Value{}, err
			}
			if t {
				return types.BoolVal(true), nil
			}
		}
		return types.BoolVal(false), nil
	default:
		return types.Value{}, errf("unknown logic op %d", e.Op)
	}
}
