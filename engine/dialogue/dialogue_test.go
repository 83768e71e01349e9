package dialogue

import (
	"strings"
	"testing"

	"github.com/nathoo/duskmire/engine/lore"
	"github.com/nathoo/duskmire/engine/state"
	"github.com/nathoo/duskmire/script"
	"github.com/nathoo/duskmire/types"
)

// fakeEconomy records every effect so tests can assert exactly what
// committed. SpendCurrency honors the wallet like the real engine.
type fakeEconomy struct {
	wallet  int
	given   []string
	offered []string
	accept  bool
}

func (f *fakeEconomy) GiveItem(npcID, itemID, flavor string) {
	f.given = append(f.given, itemID)
}

func (f *fakeEconomy) SpendCurrency(amount int) bool {
	if amount > f.wallet {
		return false
	}
	f.wallet -= amount
	return true
}

func (f *fakeEconomy) OfferItem(itemID string) bool {
	f.offered = append(f.offered, itemID)
	return f.accept
}

// fixedPicker always resolves picks to the same alternative.
type fixedPicker struct{ n int }

func (p fixedPicker) PickIndex(n int) int { return p.n % n }

func mustParse(t *testing.T, src string) *script.Script {
	t.Helper()
	sc, err := script.Parse("warden", "warden.dlg", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return sc
}

func testEnv() *state.Env {
	return state.NewEnv(state.NewManifest([]types.VarDecl{
		{Name: "PLAYER_WALLET", Scope: types.GlobalScope, Type: types.IntKind},
		{Name: "DIALOGUE_STATE", Scope: types.SpeakerScope, Type: types.IntKind},
	}))
}

func newSession(sc *script.Script, env *state.Env, eco types.Economy) *Session {
	return New(sc, "warden", env, lore.NewContext(), eco, fixedPicker{})
}

const reentrantSrc = `
(cond ((= DIALOGUE_STATE 0)
       (say "hi")
       (option "bye" (set DIALOGUE_STATE 1)))
      (else (say "later")))
`

func TestSession_StatelessReentry(t *testing.T) {
	sc := mustParse(t, reentrantSrc)
	env := testEnv()
	eco := &fakeEconomy{}

	s := newSession(sc, env, eco)
	turn := s.Start()
	if len(turn.Text) != 1 || turn.Text[0] != "hi" {
		t.Fatalf("first turn text = %v", turn.Text)
	}
	if len(turn.Options) != 1 || turn.Options[0].Label != "bye" {
		t.Fatalf("first turn options = %v", turn.Options)
	}
	if s.Phase() != AwaitingChoice {
		t.Fatalf("phase = %v, want awaiting-choice", s.Phase())
	}

	turn = s.Choose(turn.Options[0].Index)
	if !turn.Ended || len(turn.Text) != 0 {
		t.Fatalf("resolution turn = %+v", turn)
	}
	if s.Phase() != Closed {
		t.Fatalf("phase = %v, want closed", s.Phase())
	}
	if v := env.Get("warden", "DIALOGUE_STATE"); v.I != 1 {
		t.Fatalf("DIALOGUE_STATE = %+v, want 1", v)
	}

	// A fresh session against the same environment takes the else branch.
	s2 := newSession(sc, env, eco)
	turn = s2.Start()
	if len(turn.Text) != 1 || turn.Text[0] != "later" {
		t.Fatalf("second visit text = %v", turn.Text)
	}
	if len(turn.Options) != 0 || !turn.Ended {
		t.Fatalf("second visit should end without options: %+v", turn)
	}
}

func TestSession_GuardFiltersMenu(t *testing.T) {
	sc := mustParse(t, `
(say "Wares for sale.")
(option "Buy bread" (>= PLAYER_WALLET 2) (spend 2) (give bread "Fresh bread."))
(option "Leave" (set DIALOGUE_STATE 1))
`)

	env := testEnv()
	env.Set("", "PLAYER_WALLET", types.IntVal(1))
	turn := newSession(sc, env, &fakeEconomy{}).Start()
	if len(turn.Options) != 1 || turn.Options[0].Label != "Leave" {
		t.Fatalf("with 1 coin, options = %v", turn.Options)
	}

	env.Set("", "PLAYER_WALLET", types.IntVal(2))
	turn = newSession(sc, env, &fakeEconomy{}).Start()
	if len(turn.Options) != 2 {
		t.Fatalf("with 2 coins, options = %v", turn.Options)
	}
	// Guarded-out options must not shift surviving indices out of range.
	if turn.Options[0].Label != "Buy bread" {
		t.Fatalf("options = %v", turn.Options)
	}
}

func TestSession_AtomicSpend(t *testing.T) {
	sc := mustParse(t, `
(say "Bread?")
(option "Buy" (spend 2) (give bread "Here you go.") (set DIALOGUE_STATE 5))
`)

	// Insufficient balance: nothing commits, only the refusal line shows.
	env := testEnv()
	eco := &fakeEconomy{wallet: 1}
	s := newSession(sc, env, eco)
	turn := s.Start()
	turn = s.Choose(turn.Options[0].Index)
	if len(turn.Text) != 1 || turn.Text[0] != RefusalLine {
		t.Fatalf("refusal turn text = %v", turn.Text)
	}
	if eco.wallet != 1 || len(eco.given) != 0 {
		t.Fatalf("effects leaked: wallet=%d given=%v", eco.wallet, eco.given)
	}
	if v := env.Get("warden", "DIALOGUE_STATE"); v.I != 0 {
		t.Fatalf("variable write leaked: %+v", v)
	}

	// Sufficient balance: everything commits exactly once.
	env = testEnv()
	eco = &fakeEconomy{wallet: 2}
	s = newSession(sc, env, eco)
	turn = s.Start()
	turn = s.Choose(turn.Options[0].Index)
	if eco.wallet != 0 {
		t.Fatalf("wallet = %d, want 0", eco.wallet)
	}
	if len(eco.given) != 1 || eco.given[0] != "bread" {
		t.Fatalf("given = %v", eco.given)
	}
	if v := env.Get("warden", "DIALOGUE_STATE"); v.I != 5 {
		t.Fatalf("DIALOGUE_STATE = %+v, want 5", v)
	}
	if got := strings.Join(turn.Text, "\n"); got != "Here you go." {
		t.Fatalf("turn text = %q", got)
	}
}

func TestSession_TurnLevelSpendHalts(t *testing.T) {
	sc := mustParse(t, `
(say "Toll bridge.")
(spend 5)
(say "You may pass.")
`)
	env := testEnv()
	eco := &fakeEconomy{wallet: 1}
	turn := newSession(sc, env, eco).Start()
	want := []string{"Toll bridge.", RefusalLine}
	if len(turn.Text) != 2 || turn.Text[0] != want[0] || turn.Text[1] != want[1] {
		t.Fatalf("turn text = %v, want %v", turn.Text, want)
	}
	if !turn.Ended {
		t.Fatal("failed turn-level spend should close the session")
	}
	if eco.wallet != 1 {
		t.Fatalf("wallet = %d, want untouched", eco.wallet)
	}
}

func TestSession_NegativeSpendNeverCredits(t *testing.T) {
	sc := mustParse(t, `
(say "Let me pay you to listen.")
(spend -3)
(say "Still here?")
`)
	eco := &fakeEconomy{wallet: 10}
	turn := newSession(sc, testEnv(), eco).Start()
	if eco.wallet != 10 {
		t.Fatalf("wallet = %d, want untouched 10", eco.wallet)
	}
	// The bad spend is skipped, not a halt: the rest of the body runs.
	if len(turn.Text) != 2 || turn.Text[1] != "Still here?" {
		t.Fatalf("turn text = %v", turn.Text)
	}
	if len(turn.Warnings) != 1 || !strings.Contains(turn.Warnings[0], "spend amount -3 ignored") {
		t.Fatalf("warnings = %v", turn.Warnings)
	}
}

func TestSession_NegativeSpendCannotOffsetOptionTotal(t *testing.T) {
	sc := mustParse(t, `
(say "A bargain, friend.")
(option "Deal" (spend 2) (spend -2) (give bread "Yours."))
`)
	eco := &fakeEconomy{wallet: 5}
	s := newSession(sc, testEnv(), eco)
	turn := s.Start()
	turn = s.Choose(turn.Options[0].Index)
	if eco.wallet != 3 {
		t.Fatalf("wallet = %d, want 3 (full charge of 2)", eco.wallet)
	}
	if len(eco.given) != 1 || eco.given[0] != "bread" {
		t.Fatalf("given = %v", eco.given)
	}
	if len(turn.Warnings) != 1 || !strings.Contains(turn.Warnings[0], "spend amount -2 ignored") {
		t.Fatalf("warnings = %v", turn.Warnings)
	}
}

func TestSession_CondFirstMatchOnly(t *testing.T) {
	sc := mustParse(t, `
(cond ((>= PLAYER_WALLET 0) (say "first"))
      ((>= PLAYER_WALLET 0) (say "second"))
      (else (say "third")))
`)
	turn := newSession(sc, testEnv(), &fakeEconomy{}).Start()
	if len(turn.Text) != 1 || turn.Text[0] != "first" {
		t.Fatalf("turn text = %v", turn.Text)
	}
}

func TestSession_CancelHasNoEffects(t *testing.T) {
	sc := mustParse(t, `
(say "hi")
(option "bye" (set DIALOGUE_STATE 1))
`)
	env := testEnv()
	eco := &fakeEconomy{}
	s := newSession(sc, env, eco)
	s.Start()
	s.Cancel()
	if s.Phase() != Closed {
		t.Fatalf("phase = %v, want closed", s.Phase())
	}
	if v := env.Get("warden", "DIALOGUE_STATE"); v.I != 0 {
		t.Fatalf("cancel leaked a write: %+v", v)
	}
	if len(eco.given) != 0 || eco.wallet != 0 {
		t.Fatal("cancel leaked an economy effect")
	}
}

func TestSession_EndDiscardsMenu(t *testing.T) {
	sc := mustParse(t, `
(say "hello")
(option "ignored" (set DIALOGUE_STATE 1))
(end "Begone.")
(say "unreachable")
`)
	turn := newSession(sc, testEnv(), &fakeEconomy{}).Start()
	if len(turn.Options) != 0 || !turn.Ended {
		t.Fatalf("end should discard options and close: %+v", turn)
	}
	want := []string{"hello", "Begone."}
	if len(turn.Text) != 2 || turn.Text[0] != want[0] || turn.Text[1] != want[1] {
		t.Fatalf("turn text = %v, want %v", turn.Text, want)
	}
}

func TestSession_NestedOptionWarns(t *testing.T) {
	sc := mustParse(t, `
(option "outer" (option "inner" (set DIALOGUE_STATE 1)) (say "done"))
`)
	s := newSession(sc, testEnv(), &fakeEconomy{})
	turn := s.Start()
	turn = s.Choose(turn.Options[0].Index)
	if len(turn.Warnings) != 1 || !strings.Contains(turn.Warnings[0], "option inside an option body") {
		t.Fatalf("warnings = %v", turn.Warnings)
	}
	if len(turn.Text) != 1 || turn.Text[0] != "done" {
		t.Fatalf("turn text = %v", turn.Text)
	}
}

func TestSession_EvalErrorIsFalseWithWarning(t *testing.T) {
	sc := mustParse(t, `
(cond ((> DIALOGUE_STATE "abc") (say "never"))
      (else (say "fallback")))
`)
	turn := newSession(sc, testEnv(), &fakeEconomy{}).Start()
	if len(turn.Text) != 1 || turn.Text[0] != "fallback" {
		t.Fatalf("turn text = %v", turn.Text)
	}
	if len(turn.Warnings) == 0 || !strings.Contains(turn.Warnings[0], "eval:") {
		t.Fatalf("warnings = %v", turn.Warnings)
	}
}

func TestSession_PickAndPlaceholders(t *testing.T) {
	sc := mustParse(t, `
(say (pick "Welcome to #TOWN_NAME." "Ah, #TOWN_NAME greets you."))
`)
	ctx := lore.NewContext()
	ctx.Bind("TOWN_NAME", "Duskmire")

	s := New(sc, "warden", testEnv(), ctx, &fakeEconomy{}, fixedPicker{n: 1})
	turn := s.Start()
	if len(turn.Text) != 1 || turn.Text[0] != "Ah, Duskmire greets you." {
		t.Fatalf("turn text = %v", turn.Text)
	}

	s = New(sc, "warden", testEnv(), ctx, &fakeEconomy{}, fixedPicker{n: 0})
	turn = s.Start()
	if turn.Text[0] != "Welcome to Duskmire." {
		t.Fatalf("turn text = %v", turn.Text)
	}
}

func TestSession_UnresolvedPlaceholderWarns(t *testing.T) {
	sc := mustParse(t, `(say "Seek #ELDER_NAME.")`)
	turn := newSession(sc, testEnv(), &fakeEconomy{}).Start()
	if turn.Text[0] != "Seek #ELDER_NAME." {
		t.Fatalf("turn text = %v", turn.Text)
	}
	if len(turn.Warnings) != 1 || !strings.Contains(turn.Warnings[0], "ELDER_NAME") {
		t.Fatalf("warnings = %v", turn.Warnings)
	}
}

func TestSession_InvalidChoiceCloses(t *testing.T) {
	sc := mustParse(t, `(say "hi") (option "bye" (set DIALOGUE_STATE 1))`)
	s := newSession(sc, testEnv(), &fakeEconomy{})
	s.Start()
	turn := s.Choose(7)
	if !turn.Ended || s.Phase() != Closed {
		t.Fatalf("invalid choice should close: %+v phase=%v", turn, s.Phase())
	}
}
