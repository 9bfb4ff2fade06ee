package generator

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ardanlabs/cjbindgen/parser"
)

// Options controls one generation run.
type Options struct {
	// Package is the Cangjie package of the generated file.
	Package string

	// Strict turns declarations that would be replaced by a placeholder into
	// a failure of the whole run.
	Strict bool

	// ReservedSuffix is appended to identifiers that collide with Cangjie
	// keywords.
	ReservedSuffix string

	// Skip lists C declaration names to leave out of the output.
	Skip []string
}

type Generator struct {
	opts   Options
	header *parser.Header
}

func New(opts Options, header *parser.Header) *Generator {
	if opts.ReservedSuffix == "" {
		opts.ReservedSuffix = "_"
	}
	return &Generator{
		opts:   opts,
		header: header,
	}
}

// Result is the output of a successful run. Diagnostics lists the
// declarations that were replaced by placeholders.
type Result struct {
	Source      string
	Diagnostics []error
}

var preamble = template.Must(template.New("preamble").Parse(`// This file is automatically generated. DO NOT EDIT.

package {{.Package}}

`))

// Generate translates the header in three passes: enums and functions with
// typedefs buffered, then structs, then the typedef aliases that name an
// emitted struct. Structs must all be registered before aliases resolve.
func (g *Generator) Generate() (*Result, error) {
	s := newSession(g.opts)

	if err := preamble.Execute(&s.buf, g.opts); err != nil {
		return nil, errors.Wrap(err, "generating preamble")
	}

	if err := s.pass(g.header, 1, s.enumsAndFunctions); err != nil {
		return nil, err
	}
	if err := s.pass(g.header, 2, s.structs); err != nil {
		return nil, err
	}

	aliases := s.registry.ResolveAliases()
	glog.V(1).Infof("pass 3: %d aliases", len(aliases))
	for _, a := range aliases {
		writeAlias(&s.buf, a)
	}

	if g.opts.Strict && len(s.diags) > 0 {
		return nil, errors.Wrapf(multierr.Combine(s.diags...), "%d declarations cannot be translated", len(s.diags))
	}

	return &Result{
		Source:      strings.TrimRight(s.buf.String(), "\n") + "\n",
		Diagnostics: s.diags,
	}, nil
}

// session is the state of one run.
type session struct {
	registry *Registry
	names    namer
	globals  scope
	types    mapper
	skip     map[string]bool
	diags    []error
	buf      bytes.Buffer
}

func newSession(opts Options) *session {
	s := session{
		registry: NewRegistry(),
		names:    namer{suffix: opts.ReservedSuffix},
		globals:  make(scope),
		skip:     make(map[string]bool),
	}
	s.types = mapper{ident: s.names.ident}
	for _, name := range opts.Skip {
		s.skip[name] = true
	}
	return &s
}

func (s *session) pass(h *parser.Header, n int, visit func(*parser.Node) error) error {
	visited := 0
	for _, node := range h.Nodes {
		if node.System || s.skip[node.Name] {
			continue
		}
		if err := visit(node); err != nil {
			return err
		}
		visited++
	}
	glog.V(1).Infof("pass %d: %d declarations", n, visited)
	return nil
}

func (s *session) enumsAndFunctions(n *parser.Node) error {
	switch n.Kind {
	case parser.NodeEnum:
		if n.Forward {
			return nil
		}
		stub, err := s.emitEnum(n)
		if err := s.check(n, err); err != nil {
			return err
		}
		if stub != nil {
			writeEnum(&s.buf, stub)
		}
	case parser.NodeFunction:
		return s.check(n, s.emitFunction(n))
	case parser.NodeTypedef:
		s.bufferTypedef(n)
	}
	return nil
}

func (s *session) structs(n *parser.Node) error {
	if n.Kind != parser.NodeStruct || n.Forward {
		return nil
	}
	stub, err := s.emitStruct(n)
	if err := s.check(n, err); err != nil {
		return err
	}
	if stub != nil {
		writeStruct(&s.buf, stub)
	}
	return nil
}

// check applies the placeholder policy to the error of one declaration.
func (s *session) check(n *parser.Node, err error) error {
	if err == nil {
		return nil
	}
	derr := &DeclError{Kind: string(n.Kind), Name: n.Name, File: n.File, Line: n.Line, Err: err}
	if !recoverable(err) {
		return derr
	}
	glog.Warningf("%v", derr)
	s.diags = append(s.diags, derr)
	writePlaceholder(&s.buf, string(n.Kind), n.Name, err)
	return nil
}

// emitEnum writes the enum for n. When it fails after claiming the name, the
// returned stub is written after the placeholder so uses of the name resolve.
func (s *session) emitEnum(n *parser.Node) (*EnumDecl, error) {
	if n.Name == "" {
		return nil, &MissingNameError{What: "enum"}
	}
	name := s.names.ident(n.Name)
	if err := s.globals.claim(name, n.Name); err != nil {
		return nil, err
	}
	if !s.registry.RegisterEnum(name) {
		glog.V(2).Infof("enum %s already emitted", name)
		return nil, nil
	}
	stub := &EnumDecl{Name: name, Type: intType(32, true)}

	typ := stub.Type
	if n.Type != nil {
		t, err := s.types.Map(n.Type)
		if err != nil {
			return stub, err
		}
		if t.Kind != Int {
			return stub, &UnsupportedCTypeError{Kind: fmt.Sprintf("enum integer type %s", t)}
		}
		typ = t
	}

	d := EnumDecl{Name: name, Type: typ, Comment: n.Comment}
	for _, c := range n.Children {
		if c.Kind != parser.NodeEnumConstant {
			continue
		}
		cname := s.names.ident(c.Name)
		if err := s.globals.claim(cname, c.Name); err != nil {
			return stub, errors.Wrapf(err, "enumerator %s", c.Name)
		}
		d.Constants = append(d.Constants, EnumConstant{
			Name:    cname,
			Value:   c.Value,
			Comment: c.Comment,
		})
	}

	writeEnum(&s.buf, &d)
	glog.V(2).Infof("enum %s: %d constants", name, len(d.Constants))
	return nil, nil
}

// emitStruct writes the struct for n. A struct that cannot be translated
// after claiming its name returns an empty stub, which keeps by-value uses
// of the record default-constructible.
func (s *session) emitStruct(n *parser.Node) (*StructDecl, error) {
	if n.Name == "" {
		return nil, &MissingNameError{What: "struct"}
	}
	name := s.names.ident(n.Name)
	if err := s.globals.claim(name, n.Name); err != nil {
		return nil, err
	}
	if !s.registry.RegisterRecord(name) {
		glog.V(2).Infof("struct %s already emitted", name)
		return nil, nil
	}

	d, err := s.structDecl(name, n)
	if err != nil {
		return &StructDecl{Name: name}, err
	}

	writeStruct(&s.buf, d)
	glog.V(2).Infof("struct %s: %d members", name, len(d.Members))
	return nil, nil
}

func (s *session) structDecl(name string, n *parser.Node) (*StructDecl, error) {
	d := StructDecl{Name: name, Comment: n.Comment}
	fields := make(scope)

	var run []*parser.Node
	groups := 0
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		g, err := packBitfields(bitfieldName(groups), run)
		if err != nil {
			return err
		}
		if err := fields.claim(g.Name, "bit-field storage"); err != nil {
			return err
		}
		d.Members = append(d.Members, g)
		groups++
		run = nil
		return nil
	}

	for _, f := range n.Children {
		if f.Kind != parser.NodeField {
			continue
		}
		if f.IsBitfield() {
			run = append(run, f)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}

		if f.Name == "" {
			return nil, &MissingNameError{What: "field"}
		}
		t, err := s.types.Map(f.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}
		fname := s.names.ident(f.Name)
		if err := fields.claim(fname, f.Name); err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}
		d.Members = append(d.Members, &Field{
			Name:    fname,
			Type:    t,
			Comment: f.Comment,
		})
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return &d, nil
}

func (s *session) emitFunction(n *parser.Node) error {
	if n.Type != nil && n.Type.Variadic {
		return &UnsupportedCTypeError{Kind: "variadic function"}
	}

	d := FunctionDecl{Name: s.names.ident(n.Name), Comment: n.Comment}
	if err := s.globals.claim(d.Name, n.Name); err != nil {
		return err
	}
	names := make(scope)
	params := 0
	for _, p := range n.Children {
		if p.Kind != parser.NodeParam {
			continue
		}
		pname := fmt.Sprintf("arg%d", params)
		if p.Name != "" {
			pname = s.names.ident(p.Name)
		}
		if err := names.claim(pname, p.Name); err != nil {
			return errors.Wrapf(err, "parameter %s", pname)
		}
		t, err := s.types.Map(p.Type)
		if err != nil {
			return errors.Wrapf(err, "parameter %s", pname)
		}
		d.Params = append(d.Params, Param{Name: pname, Type: t})
		params++
	}

	result, err := s.types.Map(n.Result)
	if err != nil {
		return errors.Wrap(err, "result")
	}
	d.Result = result

	writeFunction(&s.buf, &d)
	glog.V(2).Infof("function %s: %d parameters", d.Name, len(d.Params))
	return nil
}

// bufferTypedef queues a typedef for alias resolution. A typedef whose type
// cannot be mapped can never become an alias, so it only adds a diagnostic.
func (s *session) bufferTypedef(n *parser.Node) {
	t, err := s.types.Map(n.Type)
	if err != nil {
		derr := &DeclError{Kind: string(n.Kind), Name: n.Name, File: n.File, Line: n.Line, Err: err}
		glog.Warningf("%v", derr)
		s.diags = append(s.diags, derr)
		return
	}
	s.registry.BufferAlias(&TypedefDecl{
		Name:       s.names.ident(n.Name),
		Underlying: t,
		Comment:    n.Comment,
	})
}
