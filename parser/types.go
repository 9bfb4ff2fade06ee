package parser

// Kind identifies the shape of a C type.
type Kind string

const (
	KindVoid            Kind = "void"
	KindBool            Kind = "bool"
	KindCharS           Kind = "char_s"
	KindCharU           Kind = "char_u"
	KindSChar           Kind = "schar"
	KindUChar           Kind = "uchar"
	KindShort           Kind = "short"
	KindUShort          Kind = "ushort"
	KindInt             Kind = "int"
	KindUInt            Kind = "uint"
	KindLong            Kind = "long"
	KindULong           Kind = "ulong"
	KindLongLong        Kind = "longlong"
	KindULongLong       Kind = "ulonglong"
	KindFloat           Kind = "float"
	KindDouble          Kind = "double"
	KindLongDouble      Kind = "long_double"
	KindInt128          Kind = "int128"
	KindUInt128         Kind = "uint128"
	KindComplex         Kind = "complex"
	KindPointer         Kind = "pointer"
	KindConstantArray   Kind = "constant_array"
	KindIncompleteArray Kind = "incomplete_array"
	KindFunctionProto   Kind = "function_proto"
	KindFunctionNoProto Kind = "function_no_proto"
	KindRecord          Kind = "record"
	KindEnum            Kind = "enum"
	KindTypedef         Kind = "typedef"
	KindElaborated      Kind = "elaborated"
	KindUnexposed       Kind = "unexposed"
)

// Type is a resolved C type. Which fields are set depends on Kind.
type Type struct {
	Kind     Kind   `yaml:"kind"`
	Spelling string `yaml:"spelling,omitempty"`

	// Pointer.
	Pointee *Type `yaml:"pointee,omitempty"`

	// Constant and incomplete arrays.
	Element *Type `yaml:"element,omitempty"`
	Size    int64 `yaml:"size,omitempty"`

	// Function prototypes.
	Result   *Type   `yaml:"result,omitempty"`
	Params   []*Type `yaml:"params,omitempty"`
	Variadic bool    `yaml:"variadic,omitempty"`

	// Record, enum and typedef: the referenced declaration name. Empty for
	// anonymous records and enums.
	Decl string `yaml:"decl,omitempty"`

	// Typedef and elaborated: the type being named.
	Underlying *Type `yaml:"underlying,omitempty"`
}

// Canonical strips typedef and elaborated wrappers.
func (t *Type) Canonical() *Type {
	for t != nil && (t.Kind == KindTypedef || t.Kind == KindElaborated) && t.Underlying != nil {
		t = t.Underlying
	}
	return t
}

// NodeKind identifies a declaration.
type NodeKind string

const (
	NodeEnum         NodeKind = "enum"
	NodeEnumConstant NodeKind = "enum_constant"
	NodeStruct       NodeKind = "struct"
	NodeUnion        NodeKind = "union"
	NodeField        NodeKind = "field"
	NodeFunction     NodeKind = "function"
	NodeParam        NodeKind = "param"
	NodeTypedef      NodeKind = "typedef"
	NodeVar          NodeKind = "var"
)

// Node is one declaration in a parsed header. Forward marks a struct, union
// or enum declaration without a body.
//
// Type holds the field or parameter type, the underlying type of a typedef,
// the integer type of an enum, or the prototype of a function. Result is the
// function return type.
type Node struct {
	Kind     NodeKind `yaml:"kind"`
	Name     string   `yaml:"name,omitempty"`
	Comment  string   `yaml:"comment,omitempty"`
	Type     *Type    `yaml:"type,omitempty"`
	Result   *Type    `yaml:"result,omitempty"`
	Value    int64    `yaml:"value,omitempty"`
	BitWidth *int     `yaml:"bit_width,omitempty"`
	System   bool     `yaml:"system,omitempty"`
	Forward  bool     `yaml:"forward,omitempty"`
	File     string   `yaml:"file,omitempty"`
	Line     int      `yaml:"line,omitempty"`
	Children []*Node  `yaml:"children,omitempty"`
}

// IsBitfield reports whether n is a bit-field member.
func (n *Node) IsBitfield() bool {
	return n.Kind == NodeField && n.BitWidth != nil
}

// Header is a translation unit: the top-level declarations of one header in
// source order, including those pulled in from system headers.
type Header struct {
	File  string  `yaml:"file,omitempty"`
	Nodes []*Node `yaml:"decls"`
}
