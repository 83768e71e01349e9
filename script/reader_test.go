package script

import (
	"errors"
	"testing"
)

func readSrc(t *testing.T, src string) []sexpr {
	t.Helper()
	forms, err := newReader("test.dlg", src).readAll()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return forms
}

func TestReader_NestedLists(t *testing.T) {
	forms := readSrc(t, `(cond ((= DIALOGUE_STATE 0) (say "hi")))`)
	if len(forms) != 1 {
		t.Fatalf("expected 1 form, got %d", len(forms))
	}
	cond := forms[0]
	if cond.kind != sxList || len(cond.list) != 2 {
		t.Fatalf("expected 2-element list, got %+v", cond)
	}
	if cond.list[0].text != "cond" {
		t.Errorf("expected head 'cond', got %q", cond.list[0].text)
	}
	clause := cond.list[1]
	if clause.kind != sxList || len(clause.list) != 2 {
		t.Fatalf("expected clause with test and body, got %+v", clause)
	}
}

func TestReader_Atoms(t *testing.T) {
	forms := readSrc(t, `(set GREETED -3)`)
	list := forms[0].list
	if list[1].kind != sxSymbol || list[1].text != "GREETED" {
		t.Errorf("expected symbol GREETED, got %+v", list[1])
	}
	if list[2].kind != sxInt || list[2].num != -3 {
		t.Errorf("expected int -3, got %+v", list[2])
	}
}

func TestReader_StringEscapesAndPlaceholders(t *testing.T) {
	forms := readSrc(t, `(say "Welcome to #TOWN_NAME.\nStay a while, \"friend\".")`)
	got := forms[0].list[1].text
	want := "Welcome to #TOWN_NAME.\nStay a while, \"friend\"."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestReader_CommentsStripped(t *testing.T) {
	src := "; header comment\n(say \"hi\") ; trailing\n(end)\n"
	forms := readSrc(t, src)
	if len(forms) != 2 {
		t.Fatalf("expected 2 forms, got %d", len(forms))
	}
}

func TestReader_SemicolonInsideString(t *testing.T) {
	forms := readSrc(t, `(say "wares; finest in town")`)
	if got := forms[0].list[1].text; got != "wares; finest in town" {
		t.Errorf("comment started inside string: %q", got)
	}
}

func TestReader_UnbalancedParens(t *testing.T) {
	_, err := newReader("bad.dlg", "(say \"hi\"").readAll()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.File != "bad.dlg" || pe.Line != 1 || pe.Col != 1 {
		t.Errorf("expected bad.dlg:1:1, got %s:%d:%d", pe.File, pe.Line, pe.Col)
	}
}

func TestReader_StrayCloseParen(t *testing.T) {
	_, err := newReader("bad.dlg", "(end))").readAll()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestReader_UnterminatedString(t *testing.T) {
	_, err := newReader("bad.dlg", "(say \"oops)").readAll()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Line != 1 || pe.Col != 6 {
		t.Errorf("expected position 1:6 (string start), got %d:%d", pe.Line, pe.Col)
	}
}

func TestReader_PositionTracking(t *testing.T) {
	_, err := newReader("pos.dlg", "(say \"a\")\n(say \"b\"\n").readAll()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Line != 2 {
		t.Errorf("expected error on line 2, got line %d", pe.Line)
	}
}
