package selection

import (
	"strconv"

	"github.com/molcore/chemfiles"
)

// lexer tokenizes a selection string. It is a small hand-rolled scanner
// in the style of the teacher package's hand-rolled binary-format
// scanners (id3v2.readFrames' byte-at-a-time loop), generalized to text.
type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func (l *lexer) peekByte() (byte, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t' || l.src[l.pos] == '\n') {
		l.pos++
	}
}

// next returns the next token, or a SelectionError if the input contains
// an unrecognized character.
func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	c, ok := l.peekByte()
	if !ok {
		return token{kind: tokEOF, offset: start}, nil
	}

	switch {
	case c == '(':
		l.pos++
		return token{kind: tokLParen, offset: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen, offset: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tokComma, offset: start}, nil
	case c == '.':
		l.pos++
		return token{kind: tokDot, offset: start}, nil
	case c == '#':
		l.pos++
		numStart := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		if l.pos == numStart {
			return token{}, chemfiles.NewSelectionError(start, "expected digits after '#'")
		}
		n, _ := strconv.Atoi(l.src[numStart:l.pos])
		return token{kind: tokSlot, slot: n, text: l.src[start:l.pos], offset: start}, nil
	case c == '=' || c == '!' || c == '<' || c == '>':
		l.pos++
		op := string(c)
		if next, ok := l.peekByte(); ok && next == '=' && (c == '=' || c == '!' || c == '<' || c == '>') {
			l.pos++
			op += "="
		}
		if op == "=" {
			return token{}, chemfiles.NewSelectionError(start, "unexpected '=', did you mean '=='?")
		}
		return token{kind: tokOp, text: op, offset: start}, nil
	case isDigit(c) || (c == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		l.pos++
		for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.' || l.src[l.pos] == 'e' || l.src[l.pos] == 'E' ||
			((l.src[l.pos] == '+' || l.src[l.pos] == '-') && l.pos > start && (l.src[l.pos-1] == 'e' || l.src[l.pos-1] == 'E'))) {
			l.pos++
		}
		text := l.src[start:l.pos]
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token{}, chemfiles.NewSelectionError(start, "invalid number %q", text)
		}
		return token{kind: tokNumber, number: n, text: text, offset: start}, nil
	case isIdentStart(c):
		l.pos++
		for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], offset: start}, nil
	default:
		return token{}, chemfiles.NewSelectionError(start, "unexpected character %q", string(c))
	}
}

// tokenize runs the lexer to completion, for callers (and tests) that
// want the whole token stream at once.
func tokenize(src string) ([]token, error) {
	l := newLexer(src)
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks, nil
		}
	}
}
