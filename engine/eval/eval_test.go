package eval

import (
	"errors"
	"strings"
	"testing"

	"github.com/nathoo/duskmire/script"
	"github.com/nathoo/duskmire/types"
)

// mapEnv is a test environment: unbound names read as int 0.
type mapEnv map[string]types.Value

func (m mapEnv) Lookup(name string) types.Value {
	if v, ok := m[name]; ok {
		return v
	}
	return types.ZeroOf(types.IntKind)
}

func lit(v types.Value) script.Expr { return script.Lit{Val: v} }

func cmpExpr(op script.CompareOp, lhs, rhs script.Expr) script.Expr {
	return script.Compare{Op: op, LHS: lhs, RHS: rhs}
}

func mustTruth(t *testing.T, e script.Expr, env Env) bool {
	t.Helper()
	got, err := Truth(e, env)
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	return got
}

func TestEvaluate_Comparisons(t *testing.T) {
	env := mapEnv{"WALLET": types.IntVal(5)}
	w := script.VarRef{Name: "WALLET"}

	cases := []struct {
		op   script.CompareOp
		rhs  int
		want bool
	}{
		{script.OpEq, 5, true},
		{script.OpNe, 5, false},
		{script.OpGt, 4, true},
		{script.OpGt, 5, false},
		{script.OpLt, 6, true},
		{script.OpGe, 5, true},
		{script.OpLe, 4, false},
	}
	for _, c := range cases {
		got := mustTruth(t, cmpExpr(c.op, w, lit(types.IntVal(c.rhs))), env)
		if got != c.want {
			t.Errorf("WALLET %s %d: expected %v, got %v", c.op, c.rhs, c.want, got)
		}
	}
}

func TestEvaluate_EqualityCoercion(t *testing.T) {
	env := mapEnv{}
	// bool and int meet at int.
	if !mustTruth(t, cmpExpr(script.OpEq, lit(types.BoolVal(true)), lit(types.IntVal(1))), env) {
		t.Error("true = 1 should hold")
	}
	if !mustTruth(t, cmpExpr(script.OpEq, lit(types.BoolVal(false)), lit(types.IntVal(0))), env) {
		t.Error("false = 0 should hold")
	}
	// Anything meeting a string meets at the string rendering.
	if !mustTruth(t, cmpExpr(script.OpEq, lit(types.IntVal(3)), lit(types.StringVal("3"))), env) {
		t.Error(`3 = "3" should hold`)
	}
	if mustTruth(t, cmpExpr(script.OpEq, lit(types.StringVal("a")), lit(types.StringVal("b"))), env) {
		t.Error(`"a" = "b" should not hold`)
	}
}

func TestEvaluate_UnboundVarReadsAsZero(t *testing.T) {
	env := mapEnv{}
	got := mustTruth(t, cmpExpr(script.OpEq, script.VarRef{Name: "NEVER_SET"}, lit(types.IntVal(0))), env)
	if !got {
		t.Error("unbound variable should compare equal to 0")
	}
}

func TestEvaluate_OrderingRequiresNumbers(t *testing.T) {
	env := mapEnv{"NAME": types.StringVal("mara")}
	_, err := Evaluate(cmpExpr(script.OpGt, script.VarRef{Name: "NAME"}, lit(types.IntVal(2))), env)
	if err == nil {
		t.Fatal("expected EvalError for ordering a string")
	}
	var ee *Error
	if !errors.As(err, &ee) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !strings.Contains(ee.Msg, "numeric") {
		t.Errorf("expected numeric-operand message, got %q", ee.Msg)
	}
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	env := mapEnv{}
	// The bad operand (string ordering) is never reached.
	bad := cmpExpr(script.OpGt, lit(types.StringVal("x")), lit(types.IntVal(1)))

	and := script.Logic{Op: script.OpAnd, Operands: []script.Expr{lit(types.BoolVal(false)), bad}}
	if got := mustTruth(t, and, env); got {
		t.Error("and with false head should be false")
	}

	or := script.Logic{Op: script.OpOr, Operands: []script.Expr{lit(types.BoolVal(true)), bad}}
	if got := mustTruth(t, or, env); !got {
		t.Error("or with true head should be true")
	}
}

func TestEvaluate_NotTruthiness(t *testing.T) {
	env := mapEnv{}
	falsy := []types.Value{
		types.BoolVal(false),
		types.IntVal(0),
		types.StringVal(""),
	}
	for _, v := range falsy {
		not := script.Logic{Op: script.OpNot, Operands: []script.Expr{lit(v)}}
		if !mustTruth(t, not, env) {
			t.Errorf("(not %v) should be true", v)
		}
	}
	not := script.Logic{Op: script.OpNot, Operands: []script.Expr{lit(types.IntVal(7))}}
	if mustTruth(t, not, env) {
		t.Error("(not 7) should be false")
	}
}
