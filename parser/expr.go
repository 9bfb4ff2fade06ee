package parser

import (
	"strconv"
	"strings"
)

const maxMacroDepth = 32

var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

// constExpr evaluates an integer constant expression: enumerator values,
// array extents and bit-field widths.
func (p *parser) constExpr() (int64, error) {
	cond, err := p.binary(0)
	if err != nil {
		return 0, err
	}
	if !p.accept("?") {
		return cond, nil
	}
	a, err := p.constExpr()
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(":"); err != nil {
		return 0, err
	}
	b, err := p.constExpr()
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return a, nil
	}
	return b, nil
}

func (p *parser) binary(minPrec int) (int64, error) {
	lhs, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		t := p.peek()
		prec, ok := binaryPrec[t.text]
		if t.kind != tokPunct || !ok || prec <= minPrec {
			return lhs, nil
		}
		p.next()
		rhs, err := p.binary(prec)
		if err != nil {
			return 0, err
		}
		if lhs, err = p.apply(t, lhs, rhs); err != nil {
			return 0, err
		}
	}
}

func (p *parser) apply(op token, a, b int64) (int64, error) {
	switch op.text {
	case "||":
		return boolInt(a != 0 || b != 0), nil
	case "&&":
		return boolInt(a != 0 && b != 0), nil
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	case "==":
		return boolInt(a == b), nil
	case "!=":
		return boolInt(a != b), nil
	case "<":
		return boolInt(a < b), nil
	case ">":
		return boolInt(a > b), nil
	case "<=":
		return boolInt(a <= b), nil
	case ">=":
		return boolInt(a >= b), nil
	case "<<":
		if b < 0 || b > 63 {
			return 0, p.errorf(op, "shift count %d out of range", b)
		}
		return a << uint(b), nil
	case ">>":
		if b < 0 || b > 63 {
			return 0, p.errorf(op, "shift count %d out of range", b)
		}
		return a >> uint(b), nil
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/", "%":
		if b == 0 {
			return 0, p.errorf(op, "division by zero in constant expression")
		}
		if op.text == "/" {
			return a / b, nil
		}
		return a % b, nil
	}
	return 0, p.errorf(op, "unsupported operator %q", op.text)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (p *parser) unary() (int64, error) {
	t := p.peek()
	if t.kind == tokPunct {
		switch t.text {
		case "-", "+", "~", "!":
			p.next()
			v, err := p.unary()
			if err != nil {
				return 0, err
			}
			switch t.text {
			case "-":
				return -v, nil
			case "~":
				return ^v, nil
			case "!":
				return boolInt(v == 0), nil
			}
			return v, nil
		case "(":
			if p.startsType(p.peekN(1)) {
				// Cast: the value is kept as is.
				p.next()
				s, err := p.specifiers()
				if err != nil {
					return 0, err
				}
				if _, err := p.declarator(s.typ); err != nil {
					return 0, err
				}
				if _, err := p.expect(")"); err != nil {
					return 0, err
				}
				return p.unary()
			}
			p.next()
			v, err := p.constExpr()
			if err != nil {
				return 0, err
			}
			_, err = p.expect(")")
			return v, err
		}
	}
	return p.primary()
}

func (p *parser) primary() (int64, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := parseInteger(t.text)
		if err != nil {
			return 0, p.errorf(t, "%v", err)
		}
		return v, nil
	case tokChar:
		v, err := parseChar(t.text)
		if err != nil {
			return 0, p.errorf(t, "%v", err)
		}
		return v, nil
	case tokIdent:
		if v, ok := p.consts[t.text]; ok {
			return v, nil
		}
		if body, ok := p.macros[t.text]; ok && body != "" {
			return p.expandMacro(t, body)
		}
		if t.text == "sizeof" || t.text == "_Alignof" {
			return 0, p.errorf(t, "%s is not supported in constant expressions", t.text)
		}
		return 0, p.errorf(t, "unknown identifier %q in constant expression", t.text)
	case tokEOF:
		return 0, p.errorf(t, "expected constant expression, got end of input")
	}
	return 0, p.errorf(t, "unexpected %q in constant expression", t.text)
}

func (p *parser) expandMacro(t token, body string) (int64, error) {
	if p.depth >= maxMacroDepth {
		return 0, p.errorf(t, "macro %s expands too deeply", t.text)
	}
	toks, _, err := tokenize(t.file, body)
	if err != nil {
		return 0, err
	}
	for i := range toks {
		toks[i].line = t.line
	}

	sub := &parser{
		toks:     toks,
		header:   p.header,
		typedefs: p.typedefs,
		consts:   p.consts,
		macros:   p.macros,
		depth:    p.depth + 1,
	}
	v, err := sub.constExpr()
	if err != nil {
		return 0, err
	}
	if rest := sub.peek(); rest.kind != tokEOF {
		return 0, p.errorf(t, "macro %s is not a constant expression", t.text)
	}
	return v, nil
}

func parseInteger(text string) (int64, error) {
	s := strings.TrimRight(text, "uUlL")
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, &strconv.NumError{Func: "integer constant", Num: text, Err: strconv.ErrSyntax}
	}
	return int64(v), nil
}

func parseChar(text string) (int64, error) {
	bad := &strconv.NumError{Func: "character constant", Num: text, Err: strconv.ErrSyntax}
	if len(text) < 3 || text[0] != '\'' || text[len(text)-1] != '\'' {
		return 0, bad
	}
	inner := text[1 : len(text)-1]

	// C octal escapes take one to three digits.
	if len(inner) >= 2 && inner[0] == '\\' && inner[1] >= '0' && inner[1] <= '7' {
		v, err := strconv.ParseUint(inner[1:], 8, 16)
		if err != nil || len(inner) > 4 {
			return 0, bad
		}
		return int64(v), nil
	}

	r, _, tail, err := strconv.UnquoteChar(inner, '\'')
	if err != nil || tail != "" {
		return 0, bad
	}
	return int64(r), nil
}
