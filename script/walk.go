package script

// Walk calls fn for every node in the body, depth first, descending into
// cond clauses and option bodies. Used by the offline content lint.
func Walk(body []Node, fn func(Node)) {
	for _, n := range body {
		fn(n)
		switch n := n.(type) {
		case *Cond:
			for _, cl := range n.Clauses {
				Walk(cl.Body, fn)
			}
		case *Option:
			Walk(n.Body, fn)
		}
	}
}

// WalkExprs calls fn for every expression reachable from the body:
// cond tests, option guards, and set values, including their subexpressions.
func WalkExprs(body []Node, fn func(Expr)) {
	Walk(body, func(n Node) {
		switch n := n.(type) {
		case *Cond:
			for _, cl := range n.Clauses {
				if cl.Test != nil {
					walkExpr(cl.Test, fn)
				}
			}
		case *Option:
			if n.Guard != nil {
				walkExpr(n.Guard, fn)
			}
		case *Set:
			walkExpr(n.Value, fn)
		}
	})
}

func walkExpr(e Expr, fn func(Expr)) {
	fn(e)
	switch e := e.(type) {
	case Compare:
		walkExpr(e.LHS, fn)
		walkExpr(e.RHS, fn)
	case Logic:
		for _, op := range e.Operands {
			walkExpr(op, fn)
		}
	}
}

// Literals returns every literal string fragment in a text, including
// those inside pick alternatives. Used to lint placeholder tokens.
func Literals(t Text) []string {
	var out []string
	for _, part := range t.Parts {
		switch part := part.(type) {
		case LitPart:
			out = append(out, string(part))
		case *Pick:
			for _, alt := range part.Alts {
				out = append(out, Literals(alt)...)
			}
		}
	}
	return out
}
