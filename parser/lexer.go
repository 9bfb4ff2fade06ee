package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokChar
	tokString
	tokPunct
)

type token struct {
	kind   tokenKind
	text   string
	file   string
	line   int
	system bool

	// doc is the documentation comment directly preceding the token.
	doc string
	// trailing is a member comment (/**< or ///<) following the token.
	trailing string
}

var puncts3 = []string{"...", "<<=", ">>="}
var puncts2 = []string{"<<", ">>", "->", "&&", "||", "==", "!=", "<=", ">=", "##", "++", "--", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^="}

type lexer struct {
	src    string
	pos    int
	file   string
	line   int
	system bool

	// bol is true while only whitespace has been seen on the current line.
	bol bool
	doc []string

	toks   []token
	macros map[string]string
}

// tokenize splits src into tokens. Preprocessor directives are consumed:
// line markers update the file, line and origin of the following tokens and
// object-like #defines are collected into the returned macro table.
func tokenize(file, src string) ([]token, map[string]string, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")

	lx := &lexer{
		src:    src,
		file:   file,
		line:   1,
		bol:    true,
		macros: make(map[string]string),
	}
	if err := lx.run(); err != nil {
		return nil, nil, err
	}
	lx.toks = append(lx.toks, token{kind: tokEOF, file: lx.file, line: lx.line, system: lx.system})
	return lx.toks, lx.macros, nil
}

func (lx *lexer) errorf(format string, args ...interface{}) error {
	return errors.Errorf("%s:%d: %s", lx.file, lx.line, fmt.Sprintf(format, args...))
}

func (lx *lexer) peekAt(off int) byte {
	if lx.pos+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

func (lx *lexer) run() error {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == '\n':
			lx.line++
			lx.pos++
			lx.bol = true
		case c == ' ' || c == '\t' || c == '\f' || c == '\v':
			lx.pos++
		case c == '\\' && lx.peekAt(1) == '\n':
			lx.pos += 2
			lx.line++
		case c == '#' && lx.bol:
			if err := lx.directive(); err != nil {
				return err
			}
		case c == '/' && lx.peekAt(1) == '*':
			if err := lx.blockComment(); err != nil {
				return err
			}
		case c == '/' && lx.peekAt(1) == '/':
			lx.lineComment()
		case isIdentStart(c):
			start := lx.pos
			for lx.pos < len(lx.src) && isIdentChar(lx.src[lx.pos]) {
				lx.pos++
			}
			lx.emit(tokIdent, lx.src[start:lx.pos])
		case isDigit(c) || (c == '.' && isDigit(lx.peekAt(1))):
			lx.emit(tokNumber, lx.number())
		case c == '\'' || c == '"':
			text, err := lx.quoted(c)
			if err != nil {
				return err
			}
			if c == '\'' {
				lx.emit(tokChar, text)
			} else {
				lx.emit(tokString, text)
			}
		default:
			lx.emit(tokPunct, lx.punct())
		}
	}
	return nil
}

func (lx *lexer) emit(kind tokenKind, text string) {
	lx.toks = append(lx.toks, token{
		kind:   kind,
		text:   text,
		file:   lx.file,
		line:   lx.line,
		system: lx.system,
		doc:    strings.Join(lx.doc, "\n"),
	})
	lx.doc = nil
	lx.bol = false
}

func (lx *lexer) number() string {
	start := lx.pos
	hex := strings.HasPrefix(lx.src[start:], "0x") || strings.HasPrefix(lx.src[start:], "0X")
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == '+' || c == '-' {
			prev := lx.src[lx.pos-1]
			if (!hex && (prev == 'e' || prev == 'E')) || (hex && (prev == 'p' || prev == 'P')) {
				lx.pos++
				continue
			}
			break
		}
		if !isIdentChar(c) && c != '.' {
			break
		}
		lx.pos++
	}
	return lx.src[start:lx.pos]
}

func (lx *lexer) quoted(q byte) (string, error) {
	start := lx.pos
	lx.pos++
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch c {
		case '\\':
			lx.pos += 2
			continue
		case '\n':
			return "", lx.errorf("unterminated literal")
		case q:
			lx.pos++
			return lx.src[start:lx.pos], nil
		}
		lx.pos++
	}
	return "", lx.errorf("unterminated literal")
}

func (lx *lexer) punct() string {
	rest := lx.src[lx.pos:]
	for _, p := range puncts3 {
		if strings.HasPrefix(rest, p) {
			lx.pos += len(p)
			return p
		}
	}
	for _, p := range puncts2 {
		if strings.HasPrefix(rest, p) {
			lx.pos += len(p)
			return p
		}
	}
	lx.pos++
	return rest[:1]
}

func (lx *lexer) blockComment() error {
	end := strings.Index(lx.src[lx.pos+2:], "*/")
	if end < 0 {
		return lx.errorf("unterminated comment")
	}
	text := lx.src[lx.pos : lx.pos+2+end+2]
	lx.pos += len(text)
	lx.line += strings.Count(text, "\n")

	switch {
	case strings.HasPrefix(text, "/**<"), strings.HasPrefix(text, "/*!<"):
		lx.trail(text)
	case (strings.HasPrefix(text, "/**") && text != "/**/") || strings.HasPrefix(text, "/*!"):
		lx.doc = []string{text}
	default:
		lx.doc = nil
	}
	return nil
}

func (lx *lexer) lineComment() {
	end := strings.IndexByte(lx.src[lx.pos:], '\n')
	if end < 0 {
		end = len(lx.src) - lx.pos
	}
	text := lx.src[lx.pos : lx.pos+end]
	lx.pos += end

	switch {
	case strings.HasPrefix(text, "///<"), strings.HasPrefix(text, "//!<"):
		lx.trail(text)
	case strings.HasPrefix(text, "///"), strings.HasPrefix(text, "//!"):
		lx.doc = append(lx.doc, text)
	default:
		lx.doc = nil
	}
}

// trail attaches a trailing member comment to the last token.
func (lx *lexer) trail(text string) {
	if len(lx.toks) == 0 {
		return
	}
	t := &lx.toks[len(lx.toks)-1]
	if t.trailing != "" {
		t.trailing += "\n"
	}
	t.trailing += text
}

// directive consumes one preprocessor line.
func (lx *lexer) directive() error {
	line := lx.line
	var b strings.Builder
	lx.pos++
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == '\\' && lx.peekAt(1) == '\n' {
			lx.pos += 2
			lx.line++
			b.WriteByte(' ')
			continue
		}
		if c == '\n' {
			break
		}
		if c == '/' && lx.peekAt(1) == '*' {
			end := strings.Index(lx.src[lx.pos+2:], "*/")
			if end < 0 {
				return lx.errorf("unterminated comment")
			}
			lx.line += strings.Count(lx.src[lx.pos:lx.pos+2+end+2], "\n")
			lx.pos += 2 + end + 2
			b.WriteByte(' ')
			continue
		}
		if c == '/' && lx.peekAt(1) == '/' {
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.pos++
			}
			break
		}
		b.WriteByte(c)
		lx.pos++
	}
	lx.doc = nil

	fields := strings.Fields(b.String())
	if len(fields) == 0 {
		return nil
	}
	switch {
	case fields[0] == "define" && len(fields) >= 2:
		name := fields[1]
		if !strings.Contains(name, "(") {
			rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(b.String()), "define"))
			lx.macros[name] = strings.TrimSpace(rest[len(name):])
		}
	case fields[0] == "undef" && len(fields) >= 2:
		delete(lx.macros, fields[1])
	case fields[0] == "line" && len(fields) >= 2:
		return lx.lineMarker(fields[1:], line)
	case isDigit(fields[0][0]):
		return lx.lineMarker(fields, line)
	}
	return nil
}

// lineMarker applies a GNU line marker: # linenum "filename" flags...
// Flag 3 marks the text that follows as coming from a system header.
func (lx *lexer) lineMarker(fields []string, line int) error {
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return errors.Errorf("%s:%d: bad line marker %q", lx.file, line, fields[0])
	}
	// The newline ending the directive has not been consumed yet.
	lx.line = n - 1
	if len(fields) < 2 {
		return nil
	}
	file, err := strconv.Unquote(fields[1])
	if err != nil {
		return errors.Errorf("%s:%d: bad line marker file %s", lx.file, line, fields[1])
	}
	lx.file = file
	lx.system = false
	for _, f := range fields[2:] {
		if f == "3" {
			lx.system = true
		}
	}
	return nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '$'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
