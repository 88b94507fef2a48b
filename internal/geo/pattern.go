package geo

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// pattern is a case-insensitive regular expression with optional Unicode word
// boundaries on either side of the match. RE2's \b only knows ASCII word
// characters, so boundaries around words like "česk" are checked by hand.
type pattern struct {
	re        *regexp.Regexp
	wordStart bool
	wordEnd   bool
	notAfter  string // lowercase text that must not immediately precede a match
}

// compile parses a pattern written with optional leading and trailing \b.
func compile(expr string) pattern {
	p := pattern{}
	if strings.HasPrefix(expr, `\b`) {
		p.wordStart = true
		expr = expr[2:]
	}
	if strings.HasSuffix(expr, `\b`) {
		p.wordEnd = true
		expr = expr[:len(expr)-2]
	}
	p.re = regexp.MustCompile(`(?i)` + expr)
	return p
}

// compileNotAfter is compile with a rejected prefix, e.g. "limited " before "remote".
func compileNotAfter(prefix, expr string) pattern {
	p := compile(expr)
	p.notAfter = strings.ToLower(prefix)
	return p
}

func patterns(exprs ...string) []pattern {
	ps := make([]pattern, len(exprs))
	for i, e := range exprs {
		ps[i] = compile(e)
	}
	return ps
}

func (p pattern) search(text string) bool {
	for _, loc := range p.re.FindAllStringIndex(text, -1) {
		if p.accepts(text, loc[0], loc[1]) {
			return true
		}
	}
	return false
}

func (p pattern) accepts(text string, start, end int) bool {
	if p.wordStart && !isBoundary(text, start) {
		return false
	}
	if p.wordEnd && !isBoundary(text, end) {
		return false
	}
	if p.notAfter != "" && strings.HasSuffix(strings.ToLower(text[:start]), p.notAfter) {
		return false
	}
	return true
}

func isBoundary(text string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:i])
		before = isWordRune(r)
	}
	if i < len(text) {
		r, _ := utf8.DecodeRuneInString(text[i:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
