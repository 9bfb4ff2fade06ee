package generator

import "fmt"

// defaultLiteral returns the zero value of t. Every emitted struct has a
// default for each field, so NamedRecord defaults can call the no-argument
// constructor.
func defaultLiteral(t *Type) string {
	switch t.Kind {
	case Unit:
		return "()"
	case Bool:
		return "false"
	case Int, NamedEnum:
		return "0"
	case Float:
		return "0.0"
	case FixedArray:
		return fmt.Sprintf("%s(repeat: %s)", t, defaultLiteral(t.Elem))
	case Pointer:
		return "CPointer()"
	case CString:
		return "CString(CPointer<UInt8>())"
	case FunctionSignature:
		return fmt.Sprintf("%s(CPointer<Int8>())", t)
	case NamedRecord:
		return t.Name + "()"
	}
	return fmt.Sprintf("<invalid type kind %d>", t.Kind)
}
