package asm

import (
	"strings"
	"testing"

	"github.com/hassan/minirust/internal/diag"
	"github.com/hassan/minirust/internal/parser"
	"github.com/hassan/minirust/internal/parser/ast"
	"github.com/hassan/minirust/internal/semantic/types"
)

func generate(t *testing.T, source string) string {
	t.Helper()
	prog, err := parser.Parse(source, "test.rs")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Generate(prog)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return out
}

func generateErr(t *testing.T, source string) *diag.Error {
	t.Helper()
	prog, err := parser.Parse(source, "test.rs")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = Generate(prog)
	if err == nil {
		t.Fatal("expected a codegen error")
	}
	de, ok := diag.AsError(err)
	if !ok {
		t.Fatalf("error %v is not a *diag.Error", err)
	}
	if de.Stage != diag.StageCodegen {
		t.Errorf("stage = %s, want %s", de.Stage, diag.StageCodegen)
	}
	return de
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "arithmetic and print",
			source: `fn main() { let x: i32 = 2 + 3 * 4; println!("{}", x); }`,
			want: []string{
				"global main",
				"extern printf",
				"main:",
				"sub rsp, 16",
				"imul rax, rcx",
				"mov [rbp-8], rax",
				`fmt_0: db "%ld", 10, 0`,
				"lea rdi, [rel fmt_0]",
				"mov eax, 0",
				"call printf wrt ..plt",
				"section .note.GNU-stack",
			},
		},
		{
			name: "function call",
			source: `fn add(x: i32, y: i32) -> i32 { return x + y; }
				fn main() { let r = add(2, 3); println!("r = {}", r); }`,
			want: []string{
				"fn_add:",
				"mov [rbp-8], rdi",
				"mov [rbp-16], rsi",
				"mov rdi, [rsp+8]",
				"mov rsi, [rsp+0]",
				"call fn_add",
				"add rsp, 16",
				`fmt_0: db "r = %ld", 10, 0`,
			},
		},
		{
			name:   "for loop",
			source: `fn main() { for i in 0..3 { println!("i = {}", i); } }`,
			want: []string{
				"jmp cond_0",
				"loop_0:",
				"inc qword [rbp-8]",
				"cond_0:",
				"jl loop_0",
				`fmt_0: db "i = %ld", 10, 0`,
			},
		},
		{
			name:   "while loop",
			source: `fn main() { let mut n = 3; while n > 0 { n = n - 1; } }`,
			want:   []string{"loop_0:", "cond_0:", "setg al", "jne loop_0"},
		},
		{
			name:   "if else",
			source: `fn main() { let x = 1; if x == 1 { println!("one"); } else { println!("other"); } }`,
			want: []string{
				"je else_0",
				"jmp end_0",
				"else_0:",
				"end_0:",
				`fmt_0: db "one", 10, 0`,
				`fmt_1: db "other", 10, 0`,
			},
		},
		{
			name:   "float print",
			source: `fn main() { let f: f64 = 2.5; println!("{}", f * 2.0); }`,
			want:   []string{"mulsd xmm0, xmm1", "movq xmm0, rax", "mov eax, 1", `fmt_0: db "%g", 10, 0`},
		},
		{
			name:   "int widened to float",
			source: `fn main() { let f: f64 = 1; println!("{}", f); }`,
			want:   []string{"cvtsi2sd xmm0, rax"},
		},
		{
			name:   "bool print",
			source: `fn main() { let b = true && false; println!("{}", b); }`,
			want:   []string{`str_true: db "true", 0`, `str_false: db "false", 0`, "cmovnz rax, rcx", `fmt_0: db "%s", 10, 0`},
		},
		{
			name:   "string equality",
			source: `fn main() { let a = "x"; if a == "y" { println!("same"); } }`,
			want:   []string{"extern strcmp", "call strcmp wrt ..plt", `str_0: db "x", 0`, `str_1: db "y", 0`},
		},
		{
			name: "globals",
			source: `let limit: i32 = 10;
				fn main() { println!("{}", limit); }`,
			want: []string{"section .bss", "g_limit: resq 1", "mov [rel g_limit], rax", "mov rax, [rel g_limit]"},
		},
		{
			name:   "percent in literal text",
			source: `fn main() { println!("100%"); }`,
			want:   []string{`fmt_0: db "100%%", 10, 0`},
		},
		{
			name:   "empty println",
			source: `fn main() { println!(); }`,
			want:   []string{`fmt_0: db 10, 0`},
		},
		{
			name:   "negation",
			source: `fn main() { let a = -3; let b = -1.5; let c = !true; }`,
			want:   []string{"neg rax", "btc rax, 63", "xor rax, 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := generate(t, tt.source)
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q\n%s", want, out)
				}
			}
		})
	}
}

func TestGenerate_NoStrcmpExtern(t *testing.T) {
	out := generate(t, `fn main() { println!("hi"); }`)
	if strings.Contains(out, "extern strcmp") {
		t.Errorf("strcmp declared without a string comparison:\n%s", out)
	}
}

func TestGenerate_StackArguments(t *testing.T) {
	out := generate(t, `
		fn sum(a: i32, b: i32, c: i32, d: i32, e: i32, f: i32, g: i32, h: i32) -> i32 {
			return a + b + c + d + e + f + g + h;
		}
		fn main() { println!("{}", sum(1, 2, 3, 4, 5, 6, 7, 8)); }`)

	for _, want := range []string{
		"mov [rbp-48], r9",
		"mov rax, [rbp+16]",
		"mov [rbp-56], rax",
		"mov rax, [rbp+24]",
		"mov [rbp-64], rax",
		"mov rdi, [rsp+56]",
		"mov r9, [rsp+16]",
		"push qword [rsp+0]",
		"push qword [rsp+16]",
		"call fn_sum",
		"add rsp, 80",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"no main", `fn helper() {}`, "no main function"},
		{"main with params", `fn main(x: i32) {}`, "main must not take parameters"},
		{"float remainder", `fn main() { let f = 1.5 % 2.0; }`, "operator % is not supported for f64 operands"},
		{"template not a literal", `fn main() { let s = "hi"; println!(s); }`, "print template must be a string literal"},
		{"placeholder count", `fn main() { println!("{} {}", 1); }`, "format string has 2 placeholders but 1 arguments were provided"},
		{"string arithmetic", `fn main() { let s = "a" + "b"; }`, "operator + is not supported for str and str"},
		{"string ordering", `fn main() { let b = "a" < "b"; }`, "string operands are not supported for operator <"},
		{"undefined variable", `fn main() { println!("{}", y); }`, "undefined variable y"},
		{"undefined function", `fn main() { nope(); }`, "undefined function nope"},
		{"float range", `fn main() { for i in 0.0..3.0 {} }`, "range bounds must be integers, found f64"},
		{"float into int", `fn main() { let x: i32 = 1.5; }`, "cannot convert f64 to i32"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := generateErr(t, tt.source)
			if !strings.Contains(err.Message, tt.want) {
				t.Errorf("message = %q, want it to contain %q", err.Message, tt.want)
			}
		})
	}
}

func TestGenerate_UnknownAnnotation(t *testing.T) {
	prog, err := parser.Parse(`fn main() { let x: i32 = 1; }`, "test.rs")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	decl := prog.Function("main").Body.Stmts[0].(*ast.VarDecl)
	decl.Type.Name = "u8"

	_, err = Generate(prog)
	if err == nil || !strings.Contains(err.Error(), "unknown type u8") {
		t.Fatalf("Generate error = %v, want unknown type u8", err)
	}
}

func TestLayoutFrame(t *testing.T) {
	prog, err := parser.Parse(`
		fn f(a: i32, b: i32) {
			let x = 1;
			if a > b { let y = 2; } else { let z = 3; }
			while false { let w = 4; }
			for i in 0..2 { let v = i; }
		}`, "test.rs")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := layoutFrame(prog.Function("f"))

	if got, want := f.params, []int{8, 16}; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("params = %v, want %v", got, want)
	}
	// x, y, z, w, i, v
	if len(f.slots) != 6 {
		t.Errorf("len(slots) = %d, want 6", len(f.slots))
	}
	seen := make(map[int]bool)
	for _, off := range f.slots {
		if off <= 16 || seen[off] {
			t.Errorf("slot offset %d reused or overlaps a parameter", off)
		}
		seen[off] = true
	}
	if f.size != 64 {
		t.Errorf("size = %d, want 64", f.size)
	}
}

func TestChildPath(t *testing.T) {
	if got := childPath("", 2); got != "2" {
		t.Errorf(`childPath("", 2) = %q`, got)
	}
	if got := childPath("3.t", 0); got != "3.t.0" {
		t.Errorf(`childPath("3.t", 0) = %q`, got)
	}
}

func TestNasmBytes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "0"},
		{"i = %ld\n", `"i = %ld", 10, 0`},
		{`say "hi"`, `"say ", 34, "hi", 34, 0`},
		{"\ttab", `9, "tab", 0`},
	}
	for _, tt := range tests {
		if got := nasmBytes(tt.in); got != tt.want {
			t.Errorf("nasmBytes(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPrintfFormat(t *testing.T) {
	pieces, err := ast.ParseTemplate("{}% of {} and {}")
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	got := printfFormat(pieces, []types.Type{types.Int, types.Float, types.Bool}, true)
	if want := "%ld%% of %g and %s\n"; got != want {
		t.Errorf("printfFormat = %q, want %q", got, want)
	}
}
