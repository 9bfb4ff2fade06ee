package generator

import (
	"bytes"
	"fmt"
	"strings"
)

// EnumDecl is an enum rendered as an integer alias plus named constants.
type EnumDecl struct {
	Name      string
	Type      *Type
	Constants []EnumConstant
	Comment   string
}

type EnumConstant struct {
	Name    string
	Value   int64
	Comment string
}

// StructDecl is a C-layout struct. Members keep declaration order.
type StructDecl struct {
	Name    string
	Members []Member
	Comment string
}

// Member is a *Field or a *BitfieldGroup.
type Member interface {
	member()
}

type Field struct {
	Name    string
	Type    *Type
	Comment string
}

func (*Field) member() {}

// FunctionDecl is a foreign function signature.
type FunctionDecl struct {
	Name    string
	Params  []Param
	Result  *Type
	Comment string
}

type Param struct {
	Name string
	Type *Type
}

// TypedefDecl is a typedef waiting for alias resolution.
type TypedefDecl struct {
	Name       string
	Underlying *Type
	Comment    string
}

const indent = "    "

func writeComment(buf *bytes.Buffer, comment string) {
	if comment != "" {
		fmt.Fprintf(buf, "%s\n", comment)
	}
}

// writeMemberComment indents every line of a doc comment to the member level.
// Continuation lines of block comments keep the conventional " *" alignment.
func writeMemberComment(buf *bytes.Buffer, comment string) {
	if comment == "" {
		return
	}
	for i, line := range strings.Split(comment, "\n") {
		line = strings.TrimLeft(line, " \t")
		if i > 0 && strings.HasPrefix(line, "*") {
			line = " " + line
		}
		fmt.Fprintf(buf, "%s%s\n", indent, line)
	}
}

func writeEnum(buf *bytes.Buffer, d *EnumDecl) {
	writeComment(buf, d.Comment)
	fmt.Fprintf(buf, "type %s = %s\n\n", d.Name, d.Type)
	for _, c := range d.Constants {
		writeComment(buf, c.Comment)
		fmt.Fprintf(buf, "const %s: %s = %d\n\n", c.Name, d.Name, c.Value)
	}
}

func writeStruct(buf *bytes.Buffer, d *StructDecl) {
	writeComment(buf, d.Comment)
	fmt.Fprintf(buf, "@C\n")
	fmt.Fprintf(buf, "struct %s {\n", d.Name)
	for _, m := range d.Members {
		switch m := m.(type) {
		case *Field:
			writeMemberComment(buf, m.Comment)
			fmt.Fprintf(buf, "%svar %s: %s = %s\n", indent, m.Name, m.Type, defaultLiteral(m.Type))
		case *BitfieldGroup:
			writeBitfields(buf, m)
		}
	}
	fmt.Fprintf(buf, "}\n\n")
}

func writeBitfields(buf *bytes.Buffer, g *BitfieldGroup) {
	fmt.Fprintf(buf, "%s// bitfields\n", indent)
	for _, m := range g.Members {
		fmt.Fprintf(buf, "%s// %s %s : %d\n", indent, m.Name, m.CType, m.Width)
	}
	if g.Size == 0 {
		return
	}
	t := g.Type()
	fmt.Fprintf(buf, "%svar %s: %s = %s\n", indent, g.Name, t, defaultLiteral(t))
}

func writeFunction(buf *bytes.Buffer, d *FunctionDecl) {
	writeComment(buf, d.Comment)

	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = fmt.Sprintf("%s: %s", p.Name, p.Type)
	}
	fmt.Fprintf(buf, "foreign func %s(%s): %s\n\n", d.Name, strings.Join(params, ", "), d.Result)
}

func writeAlias(buf *bytes.Buffer, d *TypedefDecl) {
	writeComment(buf, d.Comment)
	fmt.Fprintf(buf, "type %s = %s\n", d.Name, d.Underlying)
}

// writePlaceholder marks a declaration that was left out of the output.
func writePlaceholder(buf *bytes.Buffer, kind, name string, err error) {
	if name == "" {
		name = "<anonymous>"
	}
	reason := strings.ReplaceAll(err.Error(), "\n", " ")
	fmt.Fprintf(buf, "// cjbindgen: %s %s omitted: %s\n\n", kind, name, reason)
}
