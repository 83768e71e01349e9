package loader

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nathoo/duskmire/engine/lore"
	"github.com/nathoo/duskmire/engine/state"
	"github.com/nathoo/duskmire/script"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// validate checks compiled defs for referential integrity plus the full
// content lint. Warnings go to stderr; only Errors fail the load.
func validate(defs *state.Defs) error {
	ve := &ValidationError{}

	if defs.Game.Title == "" {
		ve.Errors = append(ve.Errors, "Game.title is required")
	}
	if defs.Game.StartingCoins < 0 {
		ve.Errors = append(ve.Errors, "Game.starting_coins cannot be negative")
	}

	// Every NPC archetype must have a script, parsed or disabled.
	npcIDs := sortedKeys(defs.NPCs)
	for _, id := range npcIDs {
		npc := defs.NPCs[id]
		if _, ok := defs.Scripts[npc.Archetype]; ok {
			continue
		}
		if reason, ok := defs.Disabled[npc.Archetype]; ok {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"npc %q archetype %q disabled: %s", id, npc.Archetype, reason))
			continue
		}
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"npc %q references missing script %q", id, npc.Archetype))
	}

	Lint(defs, ve)

	for _, w := range ve.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// Lint runs the offline content checks over every parsed script: unknown
// item refs, undeclared variables, non-positive spend amounts, empty
// option labels, options nested in option bodies, and placeholder tokens
// no NPC of that archetype can resolve. Lint findings are warnings — they
// flag authoring defects that the runtime already survives.
func Lint(defs *state.Defs, ve *ValidationError) {
	for _, name := range sortedKeys(defs.Scripts) {
		sc := defs.Scripts[name]
		lintScript(defs, name, sc, ve)
	}
}

func lintScript(defs *state.Defs, name string, sc *script.Script, ve *ValidationError) {
	warnf := func(format string, args ...any) {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("script %s: ", name)+fmt.Sprintf(format, args...))
	}

	// Placeholder bindings any instance of this archetype can resolve:
	// game lore, engine builtins, and the union of its NPCs' lore.
	resolvable := map[string]bool{"NPC_NAME": true, "PLAYER_NAME": true}
	for tok := range defs.Game.Lore {
		resolvable[tok] = true
	}
	for _, npc := range defs.NPCs {
		if npc.Archetype != name {
			continue
		}
		for tok := range npc.Lore {
			resolvable[tok] = true
		}
	}

	checkText := func(t script.Text, where string) {
		for _, lit := range script.Literals(t) {
			for _, tok := range lore.Tokens(lit) {
				if !resolvable[tok] {
					warnf("%s has unresolvable placeholder #%s", where, tok)
				}
			}
		}
	}

	var inOption int
	var lintBody func(body []script.Node)
	lintBody = func(body []script.Node) {
		for _, n := range body {
			switch n := n.(type) {
			case *script.Cond:
				for _, cl := range n.Clauses {
					lintBody(cl.Body)
				}
			case *script.Say:
				checkText(n.Content, "say")
			case *script.Option:
				if inOption > 0 {
					warnf("option nested inside an option body is never shown")
				}
				if labelEmpty(n.Label) {
					warnf("option has an empty label")
				}
				checkText(n.Label, "option label")
				inOption++
				lintBody(n.Body)
				inOption--
			case *script.Give:
				if _, ok := defs.Items[n.Item]; !ok {
					warnf("give references unknown item %q", n.Item)
				}
				checkText(n.Message, "give message")
			case *script.Offer:
				if _, ok := defs.Items[n.Item]; !ok {
					warnf("offer references unknown item %q", n.Item)
				}
			case *script.Spend:
				if n.Amount <= 0 {
					warnf("spend amount %d is not positive", n.Amount)
				}
			case *script.End:
				if n.Message != nil {
					checkText(*n.Message, "end message")
				}
			}
		}
	}
	lintBody(sc.Body)

	// Every variable a script touches should be declared in the manifest.
	seen := map[string]bool{}
	script.WalkExprs(sc.Body, func(e script.Expr) {
		if ref, ok := e.(script.VarRef); ok && !seen[ref.Name] {
			seen[ref.Name] = true
			if _, ok := defs.Manifest.Declared(ref.Name); !ok {
				warnf("variable %s is not declared in the manifest", ref.Name)
			}
		}
	})
	script.Walk(sc.Body, func(n script.Node) {
		if set, ok := n.(*script.Set); ok && !seen[set.Name] {
			seen[set.Name] = true
			if _, ok := defs.Manifest.Declared(set.Name); !ok {
				warnf("variable %s is not declared in the manifest", set.Name)
			}
		}
	})
}

func labelEmpty(t script.Text) bool {
	for _, lit := range script.Literals(t) {
		if strings.TrimSpace(lit) != "" {
			return false
		}
	}
	return true
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
