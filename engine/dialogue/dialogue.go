// Package dialogue implements conversation sessions: the interpreter that
// walks an archetype's script against the environment, emits text, collects
// guarded options into a menu, and applies side effects.
//
// Sessions are stateless across turns. Every "talk" starts a fresh session
// that re-evaluates the script from its root; all continuity lives in
// environment variables (most commonly a per-speaker DIALOGUE_STATE int),
// never in a suspended call stack.
package dialogue

import (
	"fmt"

	"github.com/nathoo/duskmire/engine/eval"
	"github.com/nathoo/duskmire/engine/lore"
	"github.com/nathoo/duskmire/engine/state"
	"github.com/nathoo/duskmire/script"
	"github.com/nathoo/duskmire/types"
)

// RefusalLine is shown when an option's spends exceed the player's wallet.
const RefusalLine = "You don't have enough coin."

// Picker supplies random indices for pick resolution.
type Picker interface {
	PickIndex(n int) int
}

// Phase is the session state machine position.
type Phase int

const (
	Idle Phase = iota
	Presenting
	AwaitingChoice
	Resolving
	Closed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Presenting:
		return "presenting"
	case AwaitingChoice:
		return "awaiting-choice"
	case Resolving:
		return "resolving"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one ephemeral conversation interaction with a single NPC.
// It references the shared immutable script and the mutable environment;
// its only own state is the in-progress menu.
type Session struct {
	Script  *script.Script
	NPCID   string
	Env     *state.Env
	Lore    *lore.Context
	Economy types.Economy
	Rand    Picker

	phase Phase
	menu  []*script.Option
}

// New creates a session in the Idle phase.
func New(sc *script.Script, npcID string, env *state.Env, ctx *lore.Context, eco types.Economy, rand Picker) *Session {
	return &Session{
		Script:  sc,
		NPCID:   npcID,
		Env:     env,
		Lore:    ctx,
		Economy: eco,
		Rand:    rand,
	}
}

// Phase returns the current state machine position.
func (s *Session) Phase() Phase { return s.phase }

// Start runs one conversation turn from the script root. Side effects
// reached at turn level apply immediately. If the turn yields displayable
// options the session suspends in AwaitingChoice; otherwise it closes.
func (s *Session) Start() types.Turn {
	if s.phase != Idle {
		return types.Turn{Ended: true, Warnings: []string{"session already started"}}
	}
	s.phase = Presenting

	r := &runner{sess: s, store: s.Env}
	r.run(s.Script.Body)

	// A spend that failed at turn level halts the body mid-way.
	turn := types.Turn{Text: r.text, Ended: r.ended, Warnings: r.warnings}
	if !r.ended && len(r.menu) > 0 {
		s.menu = r.menu
		for i, opt := range r.menu {
			label, unresolved := s.renderText(opt.Label)
			for _, tok := range unresolved {
				turn.Warnings = append(turn.Warnings, "unresolved placeholder #"+tok)
			}
			turn.Options = append(turn.Options, types.MenuOption{Index: i, Label: label})
		}
		s.phase = AwaitingChoice
		return turn
	}
	s.phase = Closed
	turn.Ended = true
	return turn
}

// Choose resolves the menu option at the given index. The option body
// executes exactly once, atomically: it runs in an environment transaction
// collecting side effects, the total of its spends is checked against the
// wallet, and only then does anything commit. On an insufficient balance
// nothing commits and the refusal line is shown.
func (s *Session) Choose(index int) types.Turn {
	if s.phase != AwaitingChoice || index < 0 || index >= len(s.menu) {
		s.phase = Closed
		return types.Turn{Ended: true, Warnings: []string{"invalid choice"}}
	}
	s.phase = Resolving
	opt := s.menu[index]
	s.menu = nil

	txn := s.Env.Begin()
	r := &runner{sess: s, store: txn, collect: true}
	r.run(opt.Body)

	s.phase = Closed
	turn := types.Turn{Ended: true, Warnings: r.warnings}

	total := 0
	for _, eff := range r.effects {
		if eff.kind == effSpend {
			total += eff.amount
		}
	}
	if total > 0 && !s.Economy.SpendCurrency(total) {
		turn.Text = []string{RefusalLine}
		return turn
	}

	txn.Commit()
	for _, eff := range r.effects {
		switch eff.kind {
		case effGive:
			s.Economy.GiveItem(s.NPCID, eff.item, eff.flavor)
		case effOffer:
			s.Economy.OfferItem(eff.item)
		}
	}
	turn.Text = r.text
	return turn
}

// Cancel backs out of the menu. Zero side effects execute.
func (s *Session) Cancel() {
	s.menu = nil
	s.phase = Closed
}

// effKind tags a collected side effect.
type effKind int

const (
	effGive effKind = iota
	effOffer
	effSpend
)

type effect struct {
	kind   effKind
	item   string
	flavor string
	amount int
}

// runner executes a node body. At turn level (collect=false) give/offer/
// spend hit the economy as they are reached; during option resolution
// (collect=true) they are recorded and applied only after the spend check.
type runner struct {
	sess    *Session
	store   state.Store
	collect bool

	text     []string
	menu     []*script.Option
	effects  []effect
	warnings []string
	ended    bool
	halted   bool
}

// envView adapts the store to the evaluator's lookup interface, bound to
// the session's speaker.
type envView struct {
	store state.Store
	npcID string
}

func (v envView) Lookup(name string) types.Value {
	return v.store.Get(v.npcID, name)
}

func (r *runner) env() eval.Env {
	return envView{store: r.store, npcID: r.sess.NPCID}
}

func (r *runner) warnf(msg string) {
	r.warnings = append(r.warnings, msg)
}

// truth evaluates a test or guard, recovering from EvalError by treating
// the expression as false. A single bad clause never aborts the turn.
func (r *runner) truth(e script.Expr) bool {
	t, err := eval.Truth(e, r.env())
	if err != nil {
		r.warnf(err.Error())
		return false
	}
	return t
}

func (r *runner) run(body []script.Node) {
	for _, n := range body {
		if r.halted {
			return
		}
		r.exec(n)
	}
}

func (r *runner) exec(n script.Node) {
	switch n := n.(type) {
	case *script.Cond:
		r.execCond(n)
	case *script.Say:
		r.say(n.Content)
	case *script.Option:
		r.execOption(n)
	case *script.Give:
		flavor := r.render(n.Message)
		if r.collect {
			r.effects = append(r.effects, effect{kind: effGive, item: n.Item, flavor: flavor})
		} else {
			r.sess.Economy.GiveItem(r.sess.NPCID, n.Item, flavor)
		}
		r.text = append(r.text, flavor)
	case *script.Offer:
		if r.collect {
			r.effects = append(r.effects, effect{kind: effOffer, item: n.Item})
		} else {
			r.sess.Economy.OfferItem(n.Item)
		}
	case *script.Spend:
		// A non-positive amount would credit the wallet or cancel out
		// other spends in the same body. Skip it; lint flags the script.
		if n.Amount <= 0 {
			r.warnf(fmt.Sprintf("spend amount %d ignored", n.Amount))
			return
		}
		if r.collect {
			r.effects = append(r.effects, effect{kind: effSpend, amount: n.Amount})
		} else if !r.sess.Economy.SpendCurrency(n.Amount) {
			r.text = append(r.text, RefusalLine)
			r.halted = true
		}
	case *script.Set:
		v, err := eval.Evaluate(n.Value, r.env())
		if err != nil {
			r.warnf(err.Error())
			return
		}
		r.store.Set(r.sess.NPCID, n.Name, v)
	case *script.End:
		if n.Message != nil {
			r.say(*n.Message)
		}
		// end discards any options collected earlier this turn.
		r.menu = nil
		r.ended = true
		r.halted = true
	}
}

// execCond runs the body of the first clause whose test is true. A nil
// test is the else clause and always matches. No match, no output.
func (r *runner) execCond(c *script.Cond) {
	for _, cl := range c.Clauses {
		if cl.Test == nil || r.truth(cl.Test) {
			r.run(cl.Body)
			return
		}
	}
}

// execOption collects a displayable option. Options whose guard fails
// never appear in the menu. Options reached while another option's body
// is resolving are a content defect; they are skipped with a warning.
func (r *runner) execOption(o *script.Option) {
	if r.collect {
		r.warnf("option inside an option body ignored")
		return
	}
	if o.Guard != nil && !r.truth(o.Guard) {
		return
	}
	r.menu = append(r.menu, o)
}

func (r *runner) say(t script.Text) {
	r.text = append(r.text, r.render(t))
}

// render flattens a text: picks re-roll independently on every emission,
// then #NAME placeholders substitute from the lore context.
func (r *runner) render(t script.Text) string {
	out, unresolved := r.sess.renderText(t)
	for _, tok := range unresolved {
		r.warnf("unresolved placeholder #" + tok)
	}
	return out
}

// renderText resolves picks and placeholders, returning the finished text
// and any unresolved token names.
func (s *Session) renderText(t script.Text) (string, []string) {
	raw := s.flatten(t)
	return s.Lore.Resolve(raw)
}

func (s *Session) flatten(t script.Text) string {
	var out string
	for _, part := range t.Parts {
		switch part := part.(type) {
		case script.LitPart:
			out += string(part)
		case *script.Pick:
			alt := part.Alts[s.Rand.PickIndex(len(part.Alts))]
			out += s.flatten(alt)
		}
	}
	return out
}
