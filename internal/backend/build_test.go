package backend

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hassan/minirust/internal/codegen"
	"github.com/hassan/minirust/internal/compiler"
)

var endToEnd = []struct {
	name   string
	source string
	want   string
}{
	{
		name:   "scenario A",
		source: `fn main() { let x: i32 = 2 + 3 * 4; println!("{}", x); }`,
		want:   "14\n",
	},
	{
		name:   "scenario B",
		source: `fn main() { for i in 0..3 { println!("i = {}", i); } }`,
		want:   "i = 0\ni = 1\ni = 2\n",
	},
	{
		name: "functions",
		source: `
			fn add(x: i32, y: i32) -> i32 { return x + y; }
			fn main() { let r = add(2, 3); println!("r = {}", r); }`,
		want: "r = 5\n",
	},
	{
		name: "mixed program",
		source: `
			let base: i32 = 100;

			fn fib(n: i32) -> i32 {
				if n < 2 { return n; }
				return fib(n - 1) + fib(n - 2);
			}

			fn sum8(a: i32, b: i32, c: i32, d: i32, e: i32, f: i32, g: i32, h: i32) -> i32 {
				return a + b + c + d + e + f + g + h;
			}

			fn half(x: f64) -> f64 { return x / 2.0; }

			fn main() {
				println!("fib = {}", fib(10));
				println!("sum = {}", sum8(1, 2, 3, 4, 5, 6, 7, 8));
				println!("half = {}", half(5.0));
				let mut n = 3;
				while n > 0 {
					print!("{} ", n);
					n = n - 1;
				}
				println!();
				let x = 1;
				{
					let x = x + 1;
					println!("inner = {}", x);
				}
				println!("outer = {}", x);
				let s = "abc";
				println!("{} {}", s == "abc", s != "abc");
				println!("{}% of {}", 50, base);
				println!("{{}} {}", -7 % 3);
			}`,
		want: "fib = 55\nsum = 36\nhalf = 2.5\n3 2 1 \ninner = 2\nouter = 1\ntrue false\n50% of 100\n{} -1\n",
	},
}

func TestBuildAndRun(t *testing.T) {
	for _, target := range []codegen.Target{codegen.TargetC, codegen.TargetAsm} {
		t.Run(target.String(), func(t *testing.T) {
			if !Available(target) {
				t.Skipf("toolchain for %s not found", target)
			}
			for _, tt := range endToEnd {
				t.Run(tt.name, func(t *testing.T) {
					ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
					defer cancel()

					out, err := compiler.Compile(tt.source, compiler.Options{Filename: "e2e.rs", Target: target})
					if err != nil {
						t.Fatalf("Compile: %v", err)
					}
					opts := DefaultOptions(target)
					opts.Dir = t.TempDir()
					res, err := Build(ctx, out.Text, opts)
					if err != nil {
						t.Fatalf("Build: %v\n%s", err, out.Text)
					}

					stdout, status, err := Run(ctx, res.Executable)
					if err != nil {
						t.Fatalf("Run: %v", err)
					}
					if status != 0 {
						t.Errorf("exit status = %d, want 0", status)
					}
					if stdout != tt.want {
						t.Errorf("stdout = %q, want %q", stdout, tt.want)
					}
				})
			}
		})
	}
}

func TestBuild_WritesSource(t *testing.T) {
	if !Available(codegen.TargetC) {
		t.Skip("cc not found")
	}
	dir := t.TempDir()
	opts := DefaultOptions(codegen.TargetC)
	opts.Dir = dir
	opts.Name = "prog"

	res, err := Build(context.Background(), "int main(void) { return 3; }\n", opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Source != filepath.Join(dir, "prog.c") {
		t.Errorf("Source = %s", res.Source)
	}
	if res.Executable != filepath.Join(dir, "prog") {
		t.Errorf("Executable = %s", res.Executable)
	}
	_, status, err := Run(context.Background(), res.Executable)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != 3 {
		t.Errorf("exit status = %d, want 3", status)
	}
}

func TestBuild_ToolFailure(t *testing.T) {
	if !Available(codegen.TargetC) {
		t.Skip("cc not found")
	}
	opts := DefaultOptions(codegen.TargetC)
	opts.Dir = t.TempDir()

	_, err := Build(context.Background(), "this is not C\n", opts)
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("Build error = %v, want *ToolError", err)
	}
	if te.Output == "" {
		t.Error("ToolError should carry the compiler output")
	}
}

func TestDefaultOptions_EnvOverrides(t *testing.T) {
	t.Setenv("NASM", "/opt/nasm")
	t.Setenv("CC", "clang")
	opts := DefaultOptions(codegen.TargetAsm)
	if opts.Assembler != "/opt/nasm" || opts.CC != "clang" {
		t.Errorf("tools = %s, %s", opts.Assembler, opts.CC)
	}
}

func TestRun_MissingExecutable(t *testing.T) {
	_, _, err := Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil || !strings.Contains(err.Error(), "running") {
		t.Errorf("Run error = %v", err)
	}
}
