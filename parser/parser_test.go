package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// describe renders a type compactly for comparisons.
func describe(t *Type) string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindPointer:
		return "*" + describe(t.Pointee)
	case KindConstantArray:
		return fmt.Sprintf("[%d]%s", t.Size, describe(t.Element))
	case KindIncompleteArray:
		return "[]" + describe(t.Element)
	case KindFunctionProto:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = describe(p)
		}
		if t.Variadic {
			params = append(params, "...")
		}
		return fmt.Sprintf("func(%s) %s", strings.Join(params, ", "), describe(t.Result))
	case KindFunctionNoProto:
		return "func?() " + describe(t.Result)
	case KindRecord, KindEnum:
		return string(t.Kind) + " " + t.Decl
	case KindTypedef:
		return t.Decl + "=" + describe(t.Underlying)
	case KindElaborated:
		return describe(t.Underlying)
	}
	return string(t.Kind)
}

func describeNode(n *Node) string {
	s := fmt.Sprintf("%s %s %s", n.Kind, n.Name, describe(n.Type))
	if n.BitWidth != nil {
		s += fmt.Sprintf(" :%d", *n.BitWidth)
	}
	return s
}

func mustParse(t *testing.T, src string) *Header {
	t.Helper()
	h, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return h
}

func TestParseEnum(t *testing.T) {
	h := mustParse(t, `
#define BASE 0x10
#define NEXT (BASE + 1)
enum E {
    A,
    B = 5,
    C,
    D = A + C * 2,
    F = 1 << 3 | 1,
    G = 'a',
    H = NEXT,
    I = -1,
    J = ~0u & 0xff,
    K = (int)3 ? 2 : 4,
    L = 010,
    M = '\n' + '\101',
    N = 10 % 4 - 20 / 3 + (1 < 2) + !0 + (3 >= 3 && 0 || 1),
};
`)
	if len(h.Nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(h.Nodes))
	}

	var got []string
	for _, c := range h.Nodes[0].Children {
		got = append(got, fmt.Sprintf("%s=%d", c.Name, c.Value))
	}
	want := []string{"A=0", "B=5", "C=6", "D=12", "F=9", "G=97", "H=17", "I=-1", "J=255", "K=2", "L=8", "M=75", "N=-1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("enumerators mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEnumFixedType(t *testing.T) {
	h := mustParse(t, "enum Small : unsigned char { X, Y };\nstruct S { enum Small s : 4; enum Small t : 4; };")
	var got []string
	for _, n := range h.Nodes {
		got = append(got, describeNode(n))
		for _, c := range n.Children {
			got = append(got, "  "+describeNode(c))
		}
	}
	want := []string{
		"enum Small uchar",
		"  enum_constant X <nil>",
		"  enum_constant Y <nil>",
		"struct S <nil>",
		"  field s enum Small :4",
		"  field t enum Small :4",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStruct(t *testing.T) {
	h := mustParse(t, `
typedef unsigned int color;
/** A node. */
struct node {
    /// Value.
    int value;
    struct node *next;
    const char *name, **aliases;
    unsigned int flag : 1, kind : 7;
    unsigned : 0;
    uint32_t ids[2][3];
    void (*cb)(void *, size_t);
    union { int i; float f; } u;
    long double ld;
    signed char sc;
    unsigned long long ull;
    _Bool ok;
    color color;
};
`)
	if len(h.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(h.Nodes))
	}
	n := h.Nodes[1]
	if n.Comment != "/** A node. */" {
		t.Errorf("comment %q", n.Comment)
	}
	if n.Forward {
		t.Error("struct with a body is not a forward declaration")
	}

	var got []string
	for _, c := range n.Children {
		got = append(got, describeNode(c))
	}
	want := []string{
		"field value int",
		"field next *record node",
		"field name *char_s",
		"field aliases **char_s",
		"field flag uint :1",
		"field kind uint :7",
		"field  uint :0",
		"field ids [2][3]uint32_t=uint",
		"field cb *func(*void, size_t=ulong) void",
		"field u record ",
		"field ld long_double",
		"field sc schar",
		"field ull ulonglong",
		"field ok bool",
		"field color color=uint",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if c := n.Children[0].Comment; c != "/// Value." {
		t.Errorf("field comment %q", c)
	}
	if s := n.Children[4].Type.Spelling; s != "unsigned int" {
		t.Errorf("bit-field spelling %q", s)
	}
}

func TestParseTypedefs(t *testing.T) {
	h := mustParse(t, `
struct fwd;
typedef struct { int x; } Anon;
typedef Anon *AnonPtr;
typedef int (*handler)(int, ...);
typedef enum { OFF, ON } state;
typedef unsigned long word, *wordp;
typedef struct fwd fwd_t;
`)
	var got []string
	for _, n := range h.Nodes {
		s := describeNode(n)
		if n.Forward {
			s += " forward"
		}
		got = append(got, s)
	}
	want := []string{
		"struct fwd <nil> forward",
		"struct Anon <nil>",
		"typedef Anon record Anon",
		"typedef AnonPtr *Anon=record Anon",
		"typedef handler *func(int, ...) int",
		"enum state <nil>",
		"typedef state enum state",
		"typedef word ulong",
		"typedef wordp *ulong",
		"typedef fwd_t record fwd",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFunctions(t *testing.T) {
	h := mustParse(t, `
#ifdef __cplusplus
extern "C" {
#endif
int add(int a, int b);
void noargs(void);
int old();
static int hidden(int x);
static inline int helper(void) { return 1; }
inline int visible(void) { return 2; }
char *dup(const char *s, int (*cmp)(const void *, const void *));
int sum(int n, ...);
void fill(int buf[16]);
extern int counter;
typedef unsigned int color;
void paint(color color, color);
#ifdef __cplusplus
}
#endif
`)
	var got []string
	for _, n := range h.Nodes {
		var params []string
		for _, p := range n.Children {
			params = append(params, p.Name)
		}
		got = append(got, fmt.Sprintf("%s %s %s %v", n.Kind, n.Name, describe(n.Type), params))
	}
	want := []string{
		"function add func(int, int) int [a b]",
		"function noargs func() void []",
		"function old func?() int []",
		"function visible func() int []",
		"function dup func(*char_s, *func(*void, *void) int) *char_s [s cmp]",
		"function sum func(int, ...) int [n]",
		"function fill func(*int) void [buf]",
		"var counter int []",
		"typedef color uint []",
		"function paint func(color=uint, color=uint) void [color ]",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if r := describe(h.Nodes[4].Result); r != "*char_s" {
		t.Errorf("dup result %s", r)
	}
}

func TestParseExternC(t *testing.T) {
	h := mustParse(t, `extern "C" { int f(void); }
extern "C" int g(void);`)
	var got []string
	for _, n := range h.Nodes {
		got = append(got, n.Name)
	}
	if diff := cmp.Diff([]string{"f", "g"}, got); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSystemHeaders(t *testing.T) {
	h := mustParse(t, `# 1 "/usr/include/stdio.h" 1 3
typedef struct _IO_FILE FILE;
int printf(const char *, ...);
# 3 "app.h" 2
void log_to(FILE *f);
`)
	type origin struct {
		Name   string
		File   string
		Line   int
		System bool
	}
	var got []origin
	for _, n := range h.Nodes {
		got = append(got, origin{n.Name, n.File, n.Line, n.System})
	}
	want := []origin{
		{"FILE", "/usr/include/stdio.h", 1, true},
		{"printf", "/usr/include/stdio.h", 2, true},
		{"log_to", "app.h", 3, false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
	if p := describe(h.Nodes[2].Children[0].Type); p != "*FILE=record _IO_FILE" {
		t.Errorf("param type %s", p)
	}
}

func TestParseComments(t *testing.T) {
	h := mustParse(t, `
// plain comment
int a(void);
/** Doc for b. */
int b(void);
/** Stale. */
#define X 1
int c(void);
/// Line one.
/// Line two.
int d(void);
/*! Qt style. */
int e(void);
struct s {
    int x; ///< trailing
    int y;
    /** Leading. */
    int z; ///< ignored
    int a, b; /**< Second. */
    struct { int in; } nested; /*!< Outer. */
};
enum e {
    E1, ///< First.
    E2 = 2 /**< Last. */
};
`)
	var got []string
	for _, n := range h.Nodes {
		got = append(got, n.Name+":"+n.Comment)
		for _, c := range n.Children {
			got = append(got, n.Name+"."+c.Name+":"+c.Comment)
		}
	}
	want := []string{
		"a:",
		"b:/** Doc for b. */",
		"c:",
		"d:/// Line one.\n/// Line two.",
		"e:/*! Qt style. */",
		"s:",
		"s.x:///< trailing",
		"s.y:",
		"s.z:/** Leading. */",
		"s.a:",
		"s.b:/**< Second. */",
		"s.nested:/*!< Outer. */",
		"e:",
		"e.E1:///< First.",
		"e.E2:/**< Last. */",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("comments mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAnnotations(t *testing.T) {
	h := mustParse(t, `
#define API
#define DEPRECATED __attribute__((deprecated))
API int f(void);
DEPRECATED int g(void);
MYLIB_EXPORT int h(void) __attribute__((nonnull));
__attribute__((visibility("default"))) int i(void);
my_handle open_handle(const char *path);
struct __attribute__((packed)) packed { char c; };
`)
	var got []string
	for _, n := range h.Nodes {
		got = append(got, describeNode(n))
	}
	want := []string{
		"function f func() int",
		"function g func() int",
		"function h func() int",
		"function i func() int",
		"function open_handle func(*char_s) my_handle=unexposed",
		"struct packed <nil>",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unterminated struct", "struct s { int x; ", "unterminated struct s"},
		{"division by zero", "enum E { A = 1 / 0 };", "division by zero"},
		{"sizeof", "enum E { A = sizeof(int) };", "sizeof is not supported"},
		{"unknown enumerator", "enum E { A = B };", `unknown identifier "B"`},
		{"bad parameter list", "int f(int;", `expected ")"`},
		{"unterminated comment", "/* open", "unterminated comment"},
		{"shift", "enum E { A = 1 << 64 };", "out of range"},
		{"negative width", "struct s { int x : -1; };", "negative width"},
		{"recursive macro", "#define LOOP LOOP\nenum E { A = LOOP };", "expands too deeply"},
		{"no name", "int *;", "declaration without a name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
			if !strings.HasPrefix(err.Error(), "<input>:") {
				t.Errorf("error %q has no location", err)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	h, err := ParseFile("../testdata/points.h")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if h.File != "../testdata/points.h" {
		t.Errorf("file %q", h.File)
	}
	if len(h.Nodes) != 4 {
		t.Errorf("got %d nodes, want 4", len(h.Nodes))
	}

	if _, err := ParseFile("../testdata/missing.h"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
