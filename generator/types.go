package generator

import (
	"fmt"
	"strings"
)

// TypeKind tags the variants of a target type.
type TypeKind int

const (
	Unit TypeKind = iota
	Bool
	Int
	Float
	Pointer
	CString
	FixedArray
	FunctionSignature
	NamedRecord
	NamedEnum
)

// Type is a Cangjie type. Records and enums are referenced by name only, so
// a struct can point to itself without the mapping recursing.
type Type struct {
	Kind TypeKind

	// Int and Float.
	Width  int
	Signed bool

	// Pointer and FixedArray.
	Elem  *Type
	Count int64

	// FunctionSignature.
	Params []*Type
	Result *Type

	// NamedRecord and NamedEnum.
	Name string
}

var (
	unitType = &Type{Kind: Unit}
	boolType = &Type{Kind: Bool}
	byteType = &Type{Kind: Int, Width: 8}
)

func intType(width int, signed bool) *Type {
	return &Type{Kind: Int, Width: width, Signed: signed}
}

func floatType(width int) *Type {
	return &Type{Kind: Float, Width: width}
}

func pointerTo(elem *Type) *Type {
	return &Type{Kind: Pointer, Elem: elem}
}

func arrayOf(elem *Type, count int64) *Type {
	return &Type{Kind: FixedArray, Elem: elem, Count: count}
}

// String returns the Cangjie spelling of t.
func (t *Type) String() string {
	switch t.Kind {
	case Unit:
		return "Unit"
	case Bool:
		return "Bool"
	case Int:
		if t.Signed {
			return fmt.Sprintf("Int%d", t.Width)
		}
		return fmt.Sprintf("UInt%d", t.Width)
	case Float:
		return fmt.Sprintf("Float%d", t.Width)
	case Pointer:
		return fmt.Sprintf("CPointer<%s>", t.Elem)
	case CString:
		return "CString"
	case FixedArray:
		return fmt.Sprintf("VArray<%s, $%d>", t.Elem, t.Count)
	case FunctionSignature:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = p.String()
		}
		return fmt.Sprintf("CFunc<(%s) -> %s>", strings.Join(params, ", "), t.Result)
	case NamedRecord, NamedEnum:
		return t.Name
	}
	return fmt.Sprintf("<invalid type kind %d>", t.Kind)
}
