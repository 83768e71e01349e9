// Package script implements the dialogue scripting language: an s-expression
// reader, a validating parser, and the typed AST the interpreter walks.
// A Script is immutable once parsed and is shared by every NPC instance of
// its archetype.
package script

import "github.com/nathoo/duskmire/types"

// Script is the parsed dialogue tree for one NPC archetype. It holds no
// mutable state; all conversation continuity lives in the environment.
type Script struct {
	Name string // archetype name, from the file name
	Body []Node
}

// Expr is a boolean/comparison/logical expression. Expressions are pure:
// evaluating one never mutates the environment.
type Expr interface{ isExpr() }

// Lit is a literal bool, int, or string value.
type Lit struct {
	Val types.Value
}

// VarRef reads a script variable. Unbound variables read as their
// declared type's zero value.
type VarRef struct {
	Name string
}

// CompareOp is one of the six comparison operators.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNe
	OpGt
	OpLt
	OpGe
	OpLe
)

var compareOpNames = map[CompareOp]string{
	OpEq: "=", OpNe: "!=", OpGt: ">", OpLt: "<", OpGe: ">=", OpLe: "<=",
}

func (op CompareOp) String() string { return compareOpNames[op] }

// Compare applies a comparison operator to two operands.
type Compare struct {
	Op  CompareOp
	LHS Expr
	RHS Expr
}

// LogicOp is and, or, or not.
type LogicOp int

const (
	OpAnd LogicOp = iota
	OpOr
	OpNot
)

// Logic combines operands with and/or (short-circuit, left to right) or
// negates a single operand with not.
type Logic struct {
	Op       LogicOp
	Operands []Expr
}

func (Lit) isExpr()     {}
func (VarRef) isExpr()  {}
func (Compare) isExpr() {}
func (Logic) isExpr()   {}

// Node is one executable form in a script body.
type Node interface{ isNode() }

// Clause is one arm of a Cond. A nil Test is the else clause.
type Clause struct {
	Test Expr
	Body []Node
}

// Cond tests its clauses strictly in written order and executes the body
// of the first one whose test is true. With no match and no else clause
// it does nothing.
type Cond struct {
	Clauses []Clause
}

// TextPart is a piece of authored text: a literal string or a Pick.
type TextPart interface{ isPart() }

// LitPart is a literal text fragment. #NAME placeholders inside it are
// resolved at emission time, never at parse time.
type LitPart string

// Pick chooses one alternative at random every time its enclosing text is
// emitted. Selections are never cached between evaluations.
type Pick struct {
	Alts []Text
}

func (LitPart) isPart() {}
func (*Pick) isPart()   {}

// Text is authored text assembled from literal fragments and nested picks.
type Text struct {
	Parts []TextPart
}

// Say emits text to the player. It does not halt body execution.
type Say struct {
	Content Text
}

// Option is a menu choice. It is collected during body execution, shown
// only if Guard (when present) is true, and its Body runs only once the
// player picks it.
type Option struct {
	Label Text
	Guard Expr // nil when unguarded
	Body  []Node
}

// Give grants an item to the player with a flavor message.
type Give struct {
	Item    string
	Message Text
}

// Offer presents an item the player may accept or decline.
type Offer struct {
	Item string
}

// Spend deducts currency from the player. Inside an option body the
// deduction is all-or-nothing with the rest of the body.
type Spend struct {
	Amount int
}

// Set writes a script variable in whichever scope the manifest declares.
type Set struct {
	Name  string
	Value Expr
}

// End closes the conversation immediately, optionally saying a farewell.
type End struct {
	Message *Text // nil when no farewell text
}

func (*Cond) isNode()   {}
func (*Say) isNode()    {}
func (*Option) isNode() {}
func (*Give) isNode()   {}
func (*Offer) isNode()  {}
func (*Spend) isNode()  {}
func (*Set) isNode()    {}
func (*End) isNode()    {}
