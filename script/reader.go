package script

import (
	"fmt"
	"strconv"
	"unicode"
)

// ParseError reports a malformed script with its source position.
type ParseError struct {
	File string
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Msg)
}

// sexprKind discriminates raw reader output.
type sexprKind int

const (
	sxList sexprKind = iota
	sxSymbol
	sxString
	sxInt
)

// sexpr is the raw nested-list form produced by the reader, before the
// parser turns it into typed AST nodes.
type sexpr struct {
	kind sexprKind
	list []sexpr
	text string // symbol name or string contents
	num  int
	line int
	col  int
}

// reader scans script source rune by rune, tracking line and column.
type reader struct {
	file string
	src  []rune
	pos  int
	line int
	col  int
}

func newReader(file, src string) *reader {
	return &reader{file: file, src: []rune(src), line: 1, col: 1}
}

func (r *reader) errf(line, col int, format string, args ...any) *ParseError {
	return &ParseError{File: r.file, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (r *reader) peek() (rune, bool) {
	if r.pos >= len(r.src) {
		return 0, false
	}
	return r.src[r.pos], true
}

func (r *reader) next() (rune, bool) {
	ch, ok := r.peek()
	if !ok {
		return 0, false
	}
	r.pos++
	if ch == '\n' {
		r.line++
		r.col = 1
	} else {
		r.col++
	}
	return ch, true
}

// skipBlank consumes whitespace and ; comments.
func (r *reader) skipBlank() {
	for {
		ch, ok := r.peek()
		if !ok {
			return
		}
		switch {
		case unicode.IsSpace(ch):
			r.next()
		case ch == ';':
			for {
				c, ok := r.next()
				if !ok || c == '\n' {
					break
				}
			}
		default:
			return
		}
	}
}

// readAll reads every top-level form in the source.
func (r *reader) readAll() ([]sexpr, error) {
	var forms []sexpr
	for {
		r.skipBlank()
		if _, ok := r.peek(); !ok {
			return forms, nil
		}
		form, err := r.readForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
}

func (r *reader) readForm() (sexpr, error) {
	r.skipBlank()
	line, col := r.line, r.col
	ch, ok := r.peek()
	if !ok {
		return sexpr{}, r.errf(line, col, "unexpected end of input")
	}
	switch {
	case ch == '(':
		return r.readList()
	case ch == ')':
		return sexpr{}, r.errf(line, col, "unexpected ')'")
	case ch == '"':
		return r.readString()
	default:
		return r.readAtom()
	}
}

func (r *reader) readList() (sexpr, error) {
	line, col := r.line, r.col
	r.next() // consume '('
	out := sexpr{kind: sxList, line: line, col: col}
	for {
		r.skipBlank()
		ch, ok := r.peek()
		if !ok {
			return sexpr{}, r.errf(line, col, "unterminated list")
		}
		if ch == ')' {
			r.next()
			return out, nil
		}
		form, err := r.readForm()
		if err != nil {
			return sexpr{}, err
		}
		out.list = append(out.list, form)
	}
}

// readString reads a quoted string. Escapes: \n \t \" \\. A '#' inside a
// string passes through verbatim; placeholders are a text-emission concern.
func (r *reader) readString() (sexpr, error) {
	line, col := r.line, r.col
	r.next() // consume opening quote
	var out []rune
	for {
		ch, ok := r.next()
		if !ok {
			return sexpr{}, r.errf(line, col, "unterminated string")
		}
		switch ch {
		case '"':
			return sexpr{kind: sxString, text: string(out), line: line, col: col}, nil
		case '\\':
			esc, ok := r.next()
			if !ok {
				return sexpr{}, r.errf(line, col, "unterminated string")
			}
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			default:
				return sexpr{}, r.errf(r.line, r.col-2, "unknown escape '\\%c'", esc)
			}
		default:
			out = append(out, ch)
		}
	}
}

func isAtomEnd(ch rune) bool {
	return unicode.IsSpace(ch) || ch == '(' || ch == ')' || ch == ';' || ch == '"'
}

func (r *reader) readAtom() (sexpr, error) {
	line, col := r.line, r.col
	var out []rune
	for {
		ch, ok := r.peek()
		if !ok || isAtomEnd(ch) {
			break
		}
		r.next()
		out = append(out, ch)
	}
	text := string(out)
	if n, err := strconv.Atoi(text); err == nil {
		return sexpr{kind: sxInt, num: n, line: line, col: col}, nil
	}
	return sexpr{kind: sxSymbol, text: text, line: line, col: col}, nil
}
