package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

type parser struct {
	toks []token
	pos  int

	header   *Header
	typedefs map[string]*Type
	consts   map[string]int64
	macros   map[string]string

	// nesting counts the record bodies being parsed.
	nesting int
	// extern counts open extern "C" blocks.
	extern int
	// depth counts macro expansions in constant expressions.
	depth int
}

// Parse parses the top-level declarations of a C header. The input is
// expected to be preprocessed, or to only include headers whose declarations
// are not needed: #include is not followed, object-like #defines are only
// used to evaluate constant expressions.
func Parse(content string) (*Header, error) {
	return parse("<input>", content)
}

// ParseFile parses the header at path.
func ParseFile(path string) (*Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return parse(path, string(data))
}

func parse(file, content string) (*Header, error) {
	toks, macros, err := tokenize(file, content)
	if err != nil {
		return nil, err
	}

	p := &parser{
		toks:     toks,
		header:   &Header{File: file},
		typedefs: make(map[string]*Type),
		consts:   make(map[string]int64),
		macros:   macros,
	}
	for p.peek().kind != tokEOF {
		if err := p.topLevel(); err != nil {
			return nil, err
		}
	}
	return p.header, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) peekN(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) is(text string) bool {
	t := p.peek()
	return (t.kind == tokPunct || t.kind == tokIdent) && t.text == text
}

func (p *parser) accept(text string) bool {
	if p.is(text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(text string) (token, error) {
	t := p.peek()
	if !p.is(text) {
		if t.kind == tokEOF {
			return t, p.errorf(t, "expected %q, got end of input", text)
		}
		return t, p.errorf(t, "expected %q, got %q", text, t.text)
	}
	return p.next(), nil
}

func (p *parser) errorf(t token, format string, args ...interface{}) error {
	return errors.Errorf("%s:%d: %s", t.file, t.line, fmt.Sprintf(format, args...))
}

// skipBalanced skips a bracketed token run starting at the current (, [ or {.
func (p *parser) skipBalanced() error {
	open := p.next()
	depth := 1
	for depth > 0 {
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return p.errorf(open, "unbalanced %q", open.text)
		case t.kind != tokPunct:
		case t.text == "(" || t.text == "[" || t.text == "{":
			depth++
		case t.text == ")" || t.text == "]" || t.text == "}":
			depth--
		}
	}
	return nil
}

func (p *parser) skipAttributes() error {
	for {
		t := p.peek()
		if t.kind != tokIdent || !attributeKeywords[t.text] {
			return nil
		}
		p.next()
		if p.is("(") {
			if err := p.skipBalanced(); err != nil {
				return err
			}
		}
	}
}

// trailingDoc returns the trailing member comment on the last two tokens
// consumed since start, the terminator of a member and the token before it.
func (p *parser) trailingDoc(start int) string {
	for i := p.pos - 1; i >= start && i >= p.pos-2; i-- {
		if t := p.toks[i].trailing; t != "" {
			return t
		}
	}
	return ""
}

func (p *parser) lookupTypedef(name string) *Type {
	if t, ok := p.typedefs[name]; ok {
		return t
	}
	return builtinTypedef(name)
}

func (p *parser) startsType(t token) bool {
	return keywordType(t) || t.kind == tokIdent && p.lookupTypedef(t.text) != nil
}

// keywordType reports whether t is a keyword that can begin a type.
func keywordType(t token) bool {
	if t.kind != tokIdent {
		return false
	}
	switch t.text {
	case "struct", "union", "enum":
		return true
	}
	return typeKeywords[t.text] || ignoredSpecifiers[t.text]
}

func (p *parser) topLevel() error {
	t := p.peek()
	switch {
	case p.accept(";"):
		return nil
	case t.kind == tokIdent && t.text == "extern" && p.peekN(1).kind == tokString:
		p.next()
		p.next()
		if p.accept("{") {
			p.extern++
		}
		return nil
	case p.extern > 0 && p.is("}"):
		p.next()
		p.extern--
		return nil
	case t.kind == tokIdent && (t.text == "_Static_assert" || t.text == "static_assert"):
		p.next()
		if err := p.skipBalanced(); err != nil {
			return err
		}
		_, err := p.expect(";")
		return err
	}
	return p.declaration()
}

func (p *parser) declaration() error {
	first := p.peek()
	s, err := p.specifiers()
	if err != nil {
		return err
	}

	doc := first.doc
	if s.tag != nil {
		if s.tag.Comment == "" {
			s.tag.Comment = doc
		}
		doc = ""
	}

	if p.accept(";") {
		if s.tag == nil && s.tagKind != "" && s.tagName != "" {
			p.header.Nodes = append(p.header.Nodes, &Node{
				Kind:    s.tagKind,
				Name:    s.tagName,
				Comment: doc,
				Forward: true,
				System:  first.system,
				File:    first.file,
				Line:    first.line,
			})
		}
		return nil
	}

	for {
		d, err := p.declarator(s.typ)
		if err != nil {
			return err
		}
		if d.name == "" {
			return p.errorf(first, "declaration without a name")
		}
		if err := p.skipAttributes(); err != nil {
			return err
		}

		node := &Node{
			Name:    d.name,
			Comment: doc,
			Type:    d.typ,
			System:  first.system,
			File:    first.file,
			Line:    first.line,
		}
		doc = ""

		switch {
		case s.typedef:
			node.Kind = NodeTypedef
			if s.tag != nil && s.tag.Name == "" && d.typ == s.typ {
				// typedef struct { ... } name; gives the record its name.
				s.tag.Name = d.name
				s.tagType.Decl = d.name
				s.typ.Spelling = strings.TrimSpace(s.typ.Spelling + " " + d.name)
			}
			p.typedefs[d.name] = &Type{Kind: KindTypedef, Spelling: d.name, Decl: d.name, Underlying: d.typ}
		case d.function:
			node.Kind = NodeFunction
			node.Result = d.typ.Result
			node.Children = d.params
		default:
			node.Kind = NodeVar
		}

		if node.Kind == NodeFunction && p.is("{") {
			if err := p.skipBalanced(); err != nil {
				return err
			}
			if !s.static {
				p.header.Nodes = append(p.header.Nodes, node)
			}
			return nil
		}
		if !(node.Kind == NodeFunction && s.static) {
			p.header.Nodes = append(p.header.Nodes, node)
		}

		if p.accept("=") {
			if err := p.skipInitializer(); err != nil {
				return err
			}
		}
		if p.accept(",") {
			continue
		}
		_, err = p.expect(";")
		return err
	}
}

func (p *parser) skipInitializer() error {
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return p.errorf(t, "unterminated initializer")
		case t.kind == tokPunct && (t.text == "," || t.text == ";"):
			return nil
		case t.kind == tokPunct && (t.text == "(" || t.text == "[" || t.text == "{"):
			if err := p.skipBalanced(); err != nil {
				return err
			}
		default:
			p.next()
		}
	}
}

type specs struct {
	typ     *Type
	typedef bool
	static  bool

	// tagKind and tagName describe a struct, union or enum specifier.
	tagKind NodeKind
	tagName string
	// tag is set when the specifier defined a body, tagType is the record or
	// enum type it declares.
	tag     *Node
	tagType *Type
}

func (p *parser) specifiers() (*specs, error) {
	s := &specs{}
	start := p.peek()

	var words []string
	guessed := false

loop:
	for {
		t := p.peek()
		if t.kind != tokIdent {
			break
		}
		switch {
		case t.text == "typedef":
			p.next()
			s.typedef = true
		case t.text == "static":
			p.next()
			s.static = true
		case ignoredSpecifiers[t.text]:
			p.next()
		case attributeKeywords[t.text]:
			if err := p.skipAttributes(); err != nil {
				return nil, err
			}
		case typeKeywords[t.text]:
			if guessed {
				// The unknown name before it was an annotation macro.
				s.typ, guessed = nil, false
			}
			if s.typ != nil {
				return nil, p.errorf(t, "unexpected %q after type", t.text)
			}
			p.next()
			words = append(words, t.text)
		case t.text == "struct" || t.text == "union" || t.text == "enum":
			if len(words) > 0 || (s.typ != nil && !guessed) {
				return nil, p.errorf(t, "unexpected %q after type", t.text)
			}
			guessed = false
			if err := p.tagSpecifier(s); err != nil {
				return nil, err
			}
		default:
			if len(words) > 0 || (s.typ != nil && !guessed) {
				break loop
			}
			if body, ok := p.macros[t.text]; ok && body == "" {
				p.next()
				continue
			}
			if td := p.lookupTypedef(t.text); td != nil {
				p.next()
				s.typ, guessed = td, false
				continue
			}
			if guessed {
				// Two unknown names in a row: the first one is an annotation
				// macro only when a declarator follows the second.
				n := p.peekN(1)
				declaratorNext := n.kind == tokIdent ||
					n.kind == tokPunct && (n.text == "*" || n.text == "(" && p.peekN(2).text == "*")
				if !declaratorNext {
					break loop
				}
			}
			p.next()
			s.typ = &Type{
				Kind:       KindTypedef,
				Spelling:   t.text,
				Decl:       t.text,
				Underlying: &Type{Kind: KindUnexposed, Spelling: t.text},
			}
			guessed = true
		}
	}

	if len(words) > 0 {
		s.typ = primitive(words)
	}
	if s.typ == nil {
		return nil, p.errorf(start, "expected a type, got %q", start.text)
	}
	return s, nil
}

func primitive(words []string) *Type {
	count := make(map[string]int)
	for _, w := range words {
		if w == "__signed" {
			w = "signed"
		}
		count[w]++
	}
	unsigned := count["unsigned"] > 0

	var kind Kind
	switch {
	case count["void"] > 0:
		kind = KindVoid
	case count["_Bool"] > 0:
		kind = KindBool
	case count["_Complex"] > 0:
		kind = KindComplex
	case count["__int128"] > 0:
		kind = pick(unsigned, KindUInt128, KindInt128)
	case count["char"] > 0:
		switch {
		case unsigned:
			kind = KindUChar
		case count["signed"] > 0:
			kind = KindSChar
		default:
			kind = KindCharS
		}
	case count["short"] > 0:
		kind = pick(unsigned, KindUShort, KindShort)
	case count["float"] > 0:
		kind = KindFloat
	case count["double"] > 0:
		kind = KindDouble
		if count["long"] > 0 {
			kind = KindLongDouble
		}
	case count["long"] >= 2:
		kind = pick(unsigned, KindULongLong, KindLongLong)
	case count["long"] == 1:
		kind = pick(unsigned, KindULong, KindLong)
	default:
		kind = pick(unsigned, KindUInt, KindInt)
	}
	return &Type{Kind: kind, Spelling: strings.Join(words, " ")}
}

func pick(cond bool, a, b Kind) Kind {
	if cond {
		return a
	}
	return b
}

func (p *parser) tagSpecifier(s *specs) error {
	kw := p.next()

	kind, typeKind := NodeStruct, KindRecord
	switch kw.text {
	case "union":
		kind = NodeUnion
	case "enum":
		kind, typeKind = NodeEnum, KindEnum
	}

	if err := p.skipAttributes(); err != nil {
		return err
	}
	name := ""
	if p.peek().kind == tokIdent {
		name = p.next().text
	}
	if err := p.skipAttributes(); err != nil {
		return err
	}

	decl := &Type{Kind: typeKind, Decl: name, Spelling: strings.TrimSpace(kw.text + " " + name)}
	s.typ = &Type{Kind: KindElaborated, Spelling: decl.Spelling, Underlying: decl}
	s.tagKind, s.tagName, s.tagType = kind, name, decl

	var fixed *Type
	if kind == NodeEnum && p.is(":") && p.startsType(p.peekN(1)) {
		p.next()
		base, err := p.specifiers()
		if err != nil {
			return err
		}
		fixed = base.typ
	}
	if !p.is("{") {
		return nil
	}
	p.next()

	node := &Node{
		Kind:   kind,
		Name:   name,
		Type:   fixed,
		System: kw.system,
		File:   kw.file,
		Line:   kw.line,
	}
	var err error
	if kind == NodeEnum {
		err = p.enumBody(node)
	} else {
		err = p.recordBody(node)
	}
	if err != nil {
		return err
	}
	if err := p.skipAttributes(); err != nil {
		return err
	}

	s.tag = node
	// Nested anonymous records only exist through the member that uses them.
	if name != "" || p.nesting == 0 {
		p.header.Nodes = append(p.header.Nodes, node)
	}
	return nil
}

func (p *parser) enumBody(e *Node) error {
	next := int64(0)
	for !p.accept("}") {
		start := p.pos
		t := p.next()
		if t.kind != tokIdent {
			return p.errorf(t, "expected enumerator in enum %s, got %q", e.Name, t.text)
		}
		if err := p.skipAttributes(); err != nil {
			return err
		}
		value := next
		if p.accept("=") {
			v, err := p.constExpr()
			if err != nil {
				return err
			}
			value = v
		}
		p.consts[t.text] = value
		c := &Node{
			Kind:    NodeEnumConstant,
			Name:    t.text,
			Value:   value,
			Comment: t.doc,
			System:  t.system,
			File:    t.file,
			Line:    t.line,
		}
		e.Children = append(e.Children, c)
		next = value + 1

		more := p.accept(",")
		if c.Comment == "" {
			c.Comment = p.trailingDoc(start)
		}
		if !more {
			if _, err := p.expect("}"); err != nil {
				return err
			}
			break
		}
	}
	return nil
}

func (p *parser) recordBody(rec *Node) error {
	p.nesting++
	defer func() { p.nesting-- }()

	for !p.accept("}") {
		first := p.peek()
		switch {
		case first.kind == tokEOF:
			return p.errorf(first, "unterminated %s %s", rec.Kind, rec.Name)
		case p.accept(";"):
			continue
		case first.kind == tokIdent && (first.text == "_Static_assert" || first.text == "static_assert"):
			p.next()
			if err := p.skipBalanced(); err != nil {
				return err
			}
			if _, err := p.expect(";"); err != nil {
				return err
			}
			continue
		}

		start := p.pos
		s, err := p.specifiers()
		if err != nil {
			return err
		}
		doc := first.doc
		if p.accept(";") {
			// Anonymous struct or union member.
			if doc == "" {
				doc = p.trailingDoc(start)
			}
			rec.Children = append(rec.Children, &Node{
				Kind:    NodeField,
				Type:    s.typ,
				Comment: doc,
				System:  first.system,
				File:    first.file,
				Line:    first.line,
			})
			continue
		}

		for {
			f := &Node{
				Kind:    NodeField,
				Type:    s.typ,
				Comment: doc,
				System:  first.system,
				File:    first.file,
				Line:    first.line,
			}
			doc = ""
			if !p.is(":") {
				d, err := p.declarator(s.typ)
				if err != nil {
					return err
				}
				f.Name, f.Type = d.name, d.typ
			}
			if p.accept(":") {
				w, err := p.constExpr()
				if err != nil {
					return err
				}
				if w < 0 {
					return p.errorf(first, "negative width for bit-field %s", f.Name)
				}
				width := int(w)
				f.BitWidth = &width
			}
			if err := p.skipAttributes(); err != nil {
				return err
			}
			rec.Children = append(rec.Children, f)

			more := p.accept(",")
			if !more {
				if _, err := p.expect(";"); err != nil {
					return err
				}
			}
			if f.Comment == "" {
				f.Comment = p.trailingDoc(start)
			}
			if !more {
				break
			}
			start = p.pos
		}
	}
	return nil
}

type declarator struct {
	name string
	typ  *Type

	// function is set when the name itself is declared as a function, in
	// which case params are its parameters.
	function bool
	params   []*Node
}

func (p *parser) declarator(base *Type) (*declarator, error) {
	for {
		if err := p.skipAttributes(); err != nil {
			return nil, err
		}
		if !p.accept("*") {
			break
		}
		base = &Type{Kind: KindPointer, Pointee: base}
		for t := p.peek(); t.kind == tokIdent && ignoredSpecifiers[t.text]; t = p.peek() {
			p.next()
		}
	}

	if p.is("(") && p.nestedDeclaratorAhead() {
		p.next()
		hole := &Type{}
		inner, err := p.declarator(hole)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		outer, err := p.suffixes(base)
		if err != nil {
			return nil, err
		}
		*hole = *outer.typ

		d := &declarator{name: inner.name, typ: inner.typ}
		switch {
		case inner.function:
			d.function, d.params = true, inner.params
		case inner.typ == hole:
			d.function, d.params = outer.function, outer.params
		}
		return d, nil
	}

	// The base type is settled, so a typedef name here is the declared name.
	name := ""
	if t := p.peek(); t.kind == tokIdent && !keywordType(t) && !attributeKeywords[t.text] {
		name = p.next().text
	}
	d, err := p.suffixes(base)
	if err != nil {
		return nil, err
	}
	d.name = name
	return d, nil
}

func (p *parser) nestedDeclaratorAhead() bool {
	n := p.peekN(1)
	switch {
	case n.kind == tokPunct:
		return n.text == "*" || n.text == "(" || n.text == "^"
	case n.kind == tokIdent:
		return !p.startsType(n)
	}
	return false
}

type suffix struct {
	array      bool
	incomplete bool
	size       int64

	proto    bool
	variadic bool
	types    []*Type
	params   []*Node
}

func (p *parser) suffixes(base *Type) (*declarator, error) {
	var list []*suffix
loop:
	for {
		if err := p.skipAttributes(); err != nil {
			return nil, err
		}
		switch {
		case p.accept("["):
			s := &suffix{array: true}
			for t := p.peek(); t.kind == tokIdent && (ignoredSpecifiers[t.text] || t.text == "static"); t = p.peek() {
				p.next()
			}
			if p.accept("]") {
				s.incomplete = true
			} else {
				v, err := p.constExpr()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect("]"); err != nil {
					return nil, err
				}
				s.size = v
			}
			list = append(list, s)
		case p.accept("("):
			s, err := p.paramList()
			if err != nil {
				return nil, err
			}
			list = append(list, s)
		default:
			break loop
		}
	}

	t := base
	for i := len(list) - 1; i >= 0; i-- {
		s := list[i]
		switch {
		case s.array && s.incomplete:
			t = &Type{Kind: KindIncompleteArray, Element: t}
		case s.array:
			t = &Type{Kind: KindConstantArray, Element: t, Size: s.size}
		case s.proto:
			t = &Type{Kind: KindFunctionProto, Result: t, Params: s.types, Variadic: s.variadic}
		default:
			t = &Type{Kind: KindFunctionNoProto, Result: t}
		}
	}

	d := &declarator{typ: t}
	if len(list) > 0 && !list[0].array {
		d.function = true
		d.params = list[0].params
	}
	return d, nil
}

// paramList parses a parameter list after its opening parenthesis.
func (p *parser) paramList() (*suffix, error) {
	s := &suffix{}
	if p.accept(")") {
		return s, nil
	}
	s.proto = true
	if p.is("void") && p.peekN(1).kind == tokPunct && p.peekN(1).text == ")" {
		p.next()
		p.next()
		return s, nil
	}

	for {
		if p.accept("...") {
			s.variadic = true
			_, err := p.expect(")")
			return s, err
		}

		first := p.peek()
		spec, err := p.specifiers()
		if err != nil {
			return nil, err
		}
		d, err := p.declarator(spec.typ)
		if err != nil {
			return nil, err
		}
		t := adjustParam(d.typ)
		s.types = append(s.types, t)
		s.params = append(s.params, &Node{
			Kind:   NodeParam,
			Name:   d.name,
			Type:   t,
			System: first.system,
			File:   first.file,
			Line:   first.line,
		})

		if p.accept(",") {
			continue
		}
		_, err = p.expect(")")
		return s, err
	}
}

// adjustParam applies parameter type adjustment: arrays decay to pointers to
// their element and functions to pointers to functions.
func adjustParam(t *Type) *Type {
	switch t.Kind {
	case KindConstantArray, KindIncompleteArray:
		return &Type{Kind: KindPointer, Pointee: t.Element}
	case KindFunctionProto, KindFunctionNoProto:
		return &Type{Kind: KindPointer, Pointee: t}
	}
	return t
}
