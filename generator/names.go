package generator

// keywords are the Cangjie reserved words and builtin type names that cannot
// be used as identifiers in generated code.
var keywords = map[string]bool{
	"as": true, "abstract": true, "break": true, "case": true, "catch": true,
	"class": true, "const": true, "continue": true, "do": true, "else": true,
	"enum": true, "extend": true, "false": true, "finally": true, "for": true,
	"foreign": true, "from": true, "func": true, "if": true, "import": true,
	"in": true, "init": true, "interface": true, "is": true, "let": true,
	"macro": true, "main": true, "match": true, "mut": true, "open": true,
	"operator": true, "override": true, "package": true, "private": true,
	"prop": true, "protected": true, "public": true, "quote": true,
	"redef": true, "return": true, "sealed": true, "spawn": true,
	"static": true, "struct": true, "super": true, "synchronized": true,
	"this": true, "This": true, "throw": true, "true": true, "try": true,
	"type": true, "unsafe": true, "var": true, "where": true, "while": true,

	"Bool": true, "Rune": true, "Unit": true, "Nothing": true,
	"Int8": true, "Int16": true, "Int32": true, "Int64": true, "IntNative": true,
	"UInt8": true, "UInt16": true, "UInt32": true, "UInt64": true, "UIntNative": true,
	"Float16": true, "Float32": true, "Float64": true,
	"CPointer": true, "CString": true, "CFunc": true, "VArray": true,
}

// namer turns C identifiers into Cangjie identifiers.
type namer struct {
	suffix string
}

func (n namer) ident(name string) string {
	if keywords[name] {
		return name + n.suffix
	}
	return name
}

// scope maps the identifiers of one namespace to the C names they came from.
type scope map[string]string

// claim records that cname is emitted as name. Claiming a name again for the
// same C name is allowed.
func (sc scope) claim(name, cname string) error {
	if prev, ok := sc[name]; ok && prev != cname {
		return &NameCollisionError{Name: name, First: prev, Second: cname}
	}
	sc[name] = cname
	return nil
}
