package script

import (
	"fmt"

	"github.com/nathoo/duskmire/types"
)

// Reserved statement heads.
var statementHeads = map[string]bool{
	"cond": true, "else": true, "say": true, "pick": true, "option": true,
	"give": true, "set": true, "spend": true, "offer": true, "end": true,
}

// Reserved expression heads.
var expressionHeads = map[string]bool{
	"and": true, "or": true, "not": true,
	"=": true, "!=": true, ">": true, "<": true, ">=": true, "<=": true,
}

var compareOps = map[string]CompareOp{
	"=": OpEq, "!=": OpNe, ">": OpGt, "<": OpLt, ">=": OpGe, "<=": OpLe,
}

// Parse converts script source into a validated Script. A script that
// parses successfully is structurally executable: every form has been
// checked for shape, so the interpreter never re-validates.
func Parse(name, file, src string) (*Script, error) {
	r := newReader(file, src)
	forms, err := r.readAll()
	if err != nil {
		return nil, err
	}
	p := &parser{file: file}
	body, err := p.parseBody(forms)
	if err != nil {
		return nil, err
	}
	return &Script{Name: name, Body: body}, nil
}

type parser struct {
	file string
}

func (p *parser) errf(sx sexpr, format string, args ...any) *ParseError {
	return &ParseError{File: p.file, Line: sx.line, Col: sx.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseBody(forms []sexpr) ([]Node, error) {
	var body []Node
	for _, f := range forms {
		n, err := p.parseNode(f)
		if err != nil {
			return nil, err
		}
		body = append(body, n)
	}
	return body, nil
}

func (p *parser) parseNode(sx sexpr) (Node, error) {
	if sx.kind != sxList {
		return nil, p.errf(sx, "expected a form, got %s", describe(sx))
	}
	if len(sx.list) == 0 {
		return nil, p.errf(sx, "empty form")
	}
	head := sx.list[0]
	if head.kind != sxSymbol {
		return nil, p.errf(head, "form head must be a symbol, got %s", describe(head))
	}
	args := sx.list[1:]
	switch head.text {
	case "cond":
		return p.parseCond(sx, args)
	case "say":
		return p.parseSay(sx, args)
	case "option":
		return p.parseOption(sx, args)
	case "give":
		return p.parseGive(sx, args)
	case "offer":
		return p.parseOffer(sx, args)
	case "spend":
		return p.parseSpend(sx, args)
	case "set":
		return p.parseSet(sx, args)
	case "end":
		return p.parseEnd(sx, args)
	case "else":
		return nil, p.errf(head, "'else' is only valid as a cond clause")
	case "pick":
		return nil, p.errf(head, "'pick' is only valid inside text")
	default:
		if expressionHeads[head.text] {
			return nil, p.errf(head, "expression form '%s' cannot appear as a statement", head.text)
		}
		return nil, p.errf(head, "unknown form '%s'", head.text)
	}
}

func (p *parser) parseCond(sx sexpr, args []sexpr) (Node, error) {
	if len(args) == 0 {
		return nil, p.errf(sx, "cond needs at least one clause")
	}
	cond := &Cond{}
	for i, cl := range args {
		if cl.kind != sxList || len(cl.list) == 0 {
			return nil, p.errf(cl, "cond clause must be a (test body...) list")
		}
		test := cl.list[0]
		var clause Clause
		if test.kind == sxSymbol && test.text == "else" {
			if i != len(args)-1 {
				return nil, p.errf(test, "'else' must be the last cond clause")
			}
		} else {
			expr, err := p.parseExpr(test)
			if err != nil {
				return nil, err
			}
			clause.Test = expr
		}
		body, err := p.parseBody(cl.list[1:])
		if err != nil {
			return nil, err
		}
		clause.Body = body
		cond.Clauses = append(cond.Clauses, clause)
	}
	return cond, nil
}

func (p *parser) parseSay(sx sexpr, args []sexpr) (Node, error) {
	if len(args) == 0 {
		return nil, p.errf(sx, "say needs text")
	}
	text, err := p.parseText(args)
	if err != nil {
		return nil, err
	}
	return &Say{Content: text}, nil
}

// parseText assembles a Text from string literals and (pick ...) forms.
func (p *parser) parseText(args []sexpr) (Text, error) {
	var t Text
	for _, a := range args {
		part, err := p.parseTextPart(a)
		if err != nil {
			return Text{}, err
		}
		t.Parts = append(t.Parts, part)
	}
	return t, nil
}

func (p *parser) parseTextPart(sx sexpr) (TextPart, error) {
	switch sx.kind {
	case sxString:
		return LitPart(sx.text), nil
	case sxList:
		if len(sx.list) == 0 || sx.list[0].kind != sxSymbol || sx.list[0].text != "pick" {
			return nil, p.errf(sx, "text part must be a string or (pick ...)")
		}
		alts := sx.list[1:]
		if len(alts) == 0 {
			return nil, p.errf(sx, "pick needs at least one alternative")
		}
		pick := &Pick{}
		for _, alt := range alts {
			// An alternative is itself a text part: a string or a nested pick.
			part, err := p.parseTextPart(alt)
			if err != nil {
				return nil, err
			}
			pick.Alts = append(pick.Alts, Text{Parts: []TextPart{part}})
		}
		return pick, nil
	default:
		return nil, p.errf(sx, "text part must be a string or (pick ...), got %s", describe(sx))
	}
}

// parseOption parses (option "label" [guard] body...). The form after the
// label is a guard exactly when its head is an expression operator;
// statement heads and expression heads are disjoint, so the shapes never
// collide.
func (p *parser) parseOption(sx sexpr, args []sexpr) (Node, error) {
	if len(args) == 0 {
		return nil, p.errf(sx, "option needs a label")
	}
	label, err := p.parseTextPart(args[0])
	if err != nil {
		return nil, err
	}
	opt := &Option{Label: Text{Parts: []TextPart{label}}}
	rest := args[1:]
	if len(rest) > 0 && isExprForm(rest[0]) {
		guard, err := p.parseExpr(rest[0])
		if err != nil {
			return nil, err
		}
		opt.Guard = guard
		rest = rest[1:]
	}
	body, err := p.parseBody(rest)
	if err != nil {
		return nil, err
	}
	opt.Body = body
	return opt, nil
}

func (p *parser) parseGive(sx sexpr, args []sexpr) (Node, error) {
	if len(args) < 2 {
		return nil, p.errf(sx, "give needs an item and a message")
	}
	if args[0].kind != sxSymbol {
		return nil, p.errf(args[0], "give item must be a symbol, got %s", describe(args[0]))
	}
	msg, err := p.parseText(args[1:])
	if err != nil {
		return nil, err
	}
	return &Give{Item: args[0].text, Message: msg}, nil
}

func (p *parser) parseOffer(sx sexpr, args []sexpr) (Node, error) {
	if len(args) != 1 || args[0].kind != sxSymbol {
		return nil, p.errf(sx, "offer needs exactly one item symbol")
	}
	return &Offer{Item: args[0].text}, nil
}

func (p *parser) parseSpend(sx sexpr, args []sexpr) (Node, error) {
	if len(args) != 1 || args[0].kind != sxInt {
		return nil, p.errf(sx, "spend needs an integer amount")
	}
	return &Spend{Amount: args[0].num}, nil
}

func (p *parser) parseSet(sx sexpr, args []sexpr) (Node, error) {
	if len(args) != 2 {
		return nil, p.errf(sx, "set needs a variable name and a value")
	}
	if args[0].kind != sxSymbol {
		return nil, p.errf(args[0], "set variable must be a symbol, got %s", describe(args[0]))
	}
	if statementHeads[args[0].text] || expressionHeads[args[0].text] {
		return nil, p.errf(args[0], "reserved word '%s' cannot be a variable", args[0].text)
	}
	val, err := p.parseExpr(args[1])
	if err != nil {
		return nil, err
	}
	return &Set{Name: args[0].text, Value: val}, nil
}

func (p *parser) parseEnd(sx sexpr, args []sexpr) (Node, error) {
	if len(args) == 0 {
		return &End{}, nil
	}
	msg, err := p.parseText(args)
	if err != nil {
		return nil, err
	}
	return &End{Message: &msg}, nil
}

// isExprForm reports whether a raw form is an expression list.
func isExprForm(sx sexpr) bool {
	return sx.kind == sxList && len(sx.list) > 0 &&
		sx.list[0].kind == sxSymbol && expressionHeads[sx.list[0].text]
}

func (p *parser) parseExpr(sx sexpr) (Expr, error) {
	switch sx.kind {
	case sxInt:
		return Lit{Val: types.IntVal(sx.num)}, nil
	case sxString:
		return Lit{Val: types.StringVal(sx.text)}, nil
	case sxSymbol:
		switch sx.text {
		case "true":
			return Lit{Val: types.BoolVal(true)}, nil
		case "false":
			return Lit{Val: types.BoolVal(false)}, nil
		}
		if statementHeads[sx.text] || expressionHeads[sx.text] {
			return nil, p.errf(sx, "reserved word '%s' cannot be a variable", sx.text)
		}
		return VarRef{Name: sx.text}, nil
	case sxList:
		return p.parseExprList(sx)
	default:
		return nil, p.errf(sx, "expected an expression")
	}
}

func (p *parser) parseExprList(sx sexpr) (Expr, error) {
	if len(sx.list) == 0 {
		return nil, p.errf(sx, "empty expression")
	}
	head := sx.list[0]
	if head.kind != sxSymbol {
		return nil, p.errf(head, "expression head must be an operator")
	}
	args := sx.list[1:]
	if op, ok := compareOps[head.text]; ok {
		if len(args) != 2 {
			return nil, p.errf(sx, "'%s' needs exactly two operands", head.text)
		}
		lhs, err := p.parseExpr(args[0])
		if err != nil {
			return nil, err
		}
		rhs, err := p.parseExpr(args[1])
		if err != nil {
			return nil, err
		}
		return Compare{Op: op, LHS: lhs, RHS: rhs}, nil
	}
	switch head.text {
	case "and", "or":
		if len(args) < 2 {
			return nil, p.errf(sx, "'%s' needs at least two operands", head.text)
		}
		op := OpAnd
		if head.text == "or" {
			op = OpOr
		}
		operands, err := p.parseExprs(args)
		if err != nil {
			return nil, err
		}
		return Logic{Op: op, Operands: operands}, nil
	case "not":
		if len(args) != 1 {
			return nil, p.errf(sx, "'not' needs exactly one operand")
		}
		inner, err := p.parseExpr(args[0])
		if err != nil {
			return nil, err
		}
		return Logic{Op: OpNot, Operands: []Expr{inner}}, nil
	default:
		return nil, p.errf(head, "unknown operator '%s'", head.text)
	}
}

func (p *parser) parseExprs(args []sexpr) ([]Expr, error) {
	var out []Expr
	for _, a := range args {
		e, err := p.parseExpr(a)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func describe(sx sexpr) string {
	switch sx.kind {
	case sxList:
		return "a list"
	case sxSymbol:
		return "symbol '" + sx.text + "'"
	case sxString:
		return "a string"
	case sxInt:
		return "a number"
	default:
		return "an atom"
	}
}
