package parser

// builtinTypedefs are the <stdint.h>, <stddef.h> and <stdbool.h> names a
// header may use without the parser having seen their definitions. Widths
// follow LP64.
var builtinTypedefs = map[string]Kind{
	"int8_t":    KindSChar,
	"uint8_t":   KindUChar,
	"int16_t":   KindShort,
	"uint16_t":  KindUShort,
	"int32_t":   KindInt,
	"uint32_t":  KindUInt,
	"int64_t":   KindLong,
	"uint64_t":  KindULong,
	"intptr_t":  KindLong,
	"uintptr_t": KindULong,
	"intmax_t":  KindLong,
	"uintmax_t": KindULong,
	"ptrdiff_t": KindLong,
	"size_t":    KindULong,
	"ssize_t":   KindLong,
	"off_t":     KindLong,
	"wchar_t":   KindInt,
	"char16_t":  KindUShort,
	"char32_t":  KindUInt,
	"bool":      KindBool,
}

// builtinTypedef returns the typedef type for a builtin name, or nil.
func builtinTypedef(name string) *Type {
	kind, ok := builtinTypedefs[name]
	if !ok {
		return nil
	}
	return &Type{
		Kind:       KindTypedef,
		Spelling:   name,
		Decl:       name,
		Underlying: &Type{Kind: kind, Spelling: primitiveSpelling[kind]},
	}
}

var primitiveSpelling = map[Kind]string{
	KindVoid:       "void",
	KindBool:       "_Bool",
	KindCharS:      "char",
	KindCharU:      "char",
	KindSChar:      "signed char",
	KindUChar:      "unsigned char",
	KindShort:      "short",
	KindUShort:     "unsigned short",
	KindInt:        "int",
	KindUInt:       "unsigned int",
	KindLong:       "long",
	KindULong:      "unsigned long",
	KindLongLong:   "long long",
	KindULongLong:  "unsigned long long",
	KindFloat:      "float",
	KindDouble:     "double",
	KindLongDouble: "long double",
	KindInt128:     "__int128",
	KindUInt128:    "unsigned __int128",
	KindComplex:    "_Complex double",
}

// ignoredSpecifiers are qualifiers, storage classes and function specifiers
// that carry no layout information.
var ignoredSpecifiers = map[string]bool{
	"const":         true,
	"__const":       true,
	"__const__":     true,
	"volatile":      true,
	"__volatile__":  true,
	"restrict":      true,
	"__restrict":    true,
	"__restrict__":  true,
	"extern":        true,
	"static":        true,
	"inline":        true,
	"__inline":      true,
	"__inline__":    true,
	"register":      true,
	"auto":          true,
	"_Noreturn":     true,
	"__extension__": true,
	"_Atomic":       true,
	"_Thread_local": true,
	"__thread":      true,
}

// attributeKeywords introduce a parenthesized list that is skipped.
var attributeKeywords = map[string]bool{
	"__attribute__": true,
	"__attribute":   true,
	"__declspec":    true,
	"__asm__":       true,
	"__asm":         true,
	"asm":           true,
	"_Alignas":      true,
	"alignas":       true,
}

var typeKeywords = map[string]bool{
	"void":     true,
	"char":     true,
	"short":    true,
	"int":      true,
	"long":     true,
	"signed":   true,
	"__signed": true,
	"unsigned": true,
	"float":    true,
	"double":   true,
	"_Bool":    true,
	"_Complex": true,
	"__int128": true,
}
