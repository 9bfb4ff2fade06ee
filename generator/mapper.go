package generator

import (
	"github.com/pkg/errors"

	"github.com/ardanlabs/cjbindgen/parser"
)

// mapper converts C types to Cangjie types. ident shapes the names of
// referenced records and enums the same way their declarations are named.
type mapper struct {
	ident func(string) string
}

func (m mapper) Map(ct *parser.Type) (*Type, error) {
	if ct == nil {
		return nil, &UnsupportedCTypeError{Kind: "<missing>"}
	}

	switch ct.Kind {
	case parser.KindVoid:
		return unitType, nil
	case parser.KindBool:
		return boolType, nil
	case parser.KindCharS, parser.KindSChar:
		return intType(8, true), nil
	case parser.KindCharU, parser.KindUChar:
		return intType(8, false), nil
	case parser.KindShort:
		return intType(16, true), nil
	case parser.KindUShort:
		return intType(16, false), nil
	case parser.KindInt:
		return intType(32, true), nil
	case parser.KindUInt:
		return intType(32, false), nil
	case parser.KindLong, parser.KindLongLong:
		return intType(64, true), nil
	case parser.KindULong, parser.KindULongLong:
		return intType(64, false), nil
	case parser.KindFloat:
		return floatType(32), nil
	case parser.KindDouble:
		return floatType(64), nil

	case parser.KindPointer:
		pointee := ct.Pointee.Canonical()
		if pointee == nil {
			return nil, &UnsupportedCTypeError{Kind: "pointer without pointee"}
		}
		switch pointee.Kind {
		case parser.KindCharS:
			return &Type{Kind: CString}, nil
		case parser.KindFunctionProto, parser.KindFunctionNoProto:
			// Function pointers are callable values, not pointers.
			return m.Map(pointee)
		}
		elem, err := m.Map(ct.Pointee)
		if err != nil {
			return nil, err
		}
		return pointerTo(elem), nil

	case parser.KindTypedef, parser.KindElaborated:
		canonical := ct.Canonical()
		if canonical.Kind == parser.KindTypedef || canonical.Kind == parser.KindElaborated {
			return nil, &UnsupportedCTypeError{Kind: string(ct.Kind) + " " + ct.Spelling}
		}
		return m.Map(canonical)

	case parser.KindConstantArray:
		elem, err := m.Map(ct.Element)
		if err != nil {
			return nil, err
		}
		return arrayOf(elem, ct.Size), nil

	case parser.KindRecord:
		if ct.Decl == "" {
			return nil, &MissingNameError{What: "record"}
		}
		return &Type{Kind: NamedRecord, Name: m.ident(ct.Decl)}, nil
	case parser.KindEnum:
		if ct.Decl == "" {
			return nil, &MissingNameError{What: "enum"}
		}
		return &Type{Kind: NamedEnum, Name: m.ident(ct.Decl)}, nil

	case parser.KindFunctionProto:
		if ct.Variadic {
			return nil, &UnsupportedCTypeError{Kind: "variadic function_proto"}
		}
		sig := &Type{Kind: FunctionSignature}
		for i, p := range ct.Params {
			pt, err := m.Map(p)
			if err != nil {
				return nil, errors.Wrapf(err, "parameter %d", i)
			}
			sig.Params = append(sig.Params, pt)
		}
		result, err := m.Map(ct.Result)
		if err != nil {
			return nil, errors.Wrap(err, "result")
		}
		sig.Result = result
		return sig, nil
	case parser.KindFunctionNoProto:
		result, err := m.Map(ct.Result)
		if err != nil {
			return nil, errors.Wrap(err, "result")
		}
		return &Type{Kind: FunctionSignature, Result: result}, nil
	}

	return nil, &UnsupportedCTypeError{Kind: string(ct.Kind)}
}
