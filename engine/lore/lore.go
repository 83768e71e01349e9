// Package lore resolves #NAME placeholder tokens in outgoing dialogue text
// from a binding context supplied by the world state.
package lore

import "strings"

// Context is an immutable-after-build set of placeholder bindings for one
// NPC's conversation: the NPC's display name, town name, quest targets, etc.
type Context struct {
	bindings map[string]string
}

// NewContext creates an empty binding context.
func NewContext() *Context {
	return &Context{bindings: map[string]string{}}
}

// Bind adds or replaces a binding. Name is the bare token without '#'.
func (c *Context) Bind(name, value string) {
	c.bindings[name] = value
}

// Has reports whether a token name is bound.
func (c *Context) Has(name string) bool {
	_, ok := c.bindings[name]
	return ok
}

// Resolve substitutes every #NAME token in the text. Unresolved tokens are
// left verbatim — a content defect for the offline lint, never a crash —
// and returned so the caller can surface a warning.
func (c *Context) Resolve(text string) (string, []string) {
	if !strings.ContainsRune(text, '#') {
		return text, nil
	}
	var out strings.Builder
	var unresolved []string
	rest := text
	for {
		i := strings.IndexRune(rest, '#')
		if i < 0 {
			out.WriteString(rest)
			return out.String(), unresolved
		}
		out.WriteString(rest[:i])
		name, width := tokenAt(rest[i:])
		if name == "" {
			out.WriteByte('#')
			rest = rest[i+1:]
			continue
		}
		if v, ok := c.bindings[name]; ok {
			out.WriteString(v)
		} else {
			out.WriteString(rest[i : i+width])
			unresolved = append(unresolved, name)
		}
		rest = rest[i+width:]
	}
}

// Tokens returns every #NAME token name in the text, for the lint pass.
func Tokens(text string) []string {
	var names []string
	for i := 0; i < len(text); i++ {
		if text[i] != '#' {
			continue
		}
		name, width := tokenAt(text[i:])
		if name != "" {
			names = append(names, name)
			i += width - 1
		}
	}
	return names
}

// tokenAt parses a token at the start of s (which begins with '#').
// A token is '#' followed by an upper-case letter then upper-case letters,
// digits, or underscores. Returns ("", 0) when '#' starts no token.
func tokenAt(s string) (string, int) {
	if len(s) < 2 || !isTokenStart(s[1]) {
		return "", 0
	}
	end := 2
	for end < len(s) && isTokenRune(s[end]) {
		end++
	}
	return s[1:end], end
}

func isTokenStart(b byte) bool { return b >= 'A' && b <= 'Z' }

func isTokenRune(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}
