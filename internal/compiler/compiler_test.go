package compiler

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/hassan/minirust/internal/codegen"
	"github.com/hassan/minirust/internal/diag"
)

const scenarioA = `fn main() { let x: i32 = 2 + 3 * 4; println!("{}", x); }`

func TestCompile_Targets(t *testing.T) {
	tests := []struct {
		target codegen.Target
		want   string
	}{
		{codegen.TargetAsm, "call printf wrt ..plt"},
		{codegen.TargetC, "int main(void) {"},
	}
	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			out, err := Compile(scenarioA, Options{Filename: "dir/prog.rs", Target: tt.target})
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if !strings.Contains(out.Text, tt.want) {
				t.Errorf("output missing %q\n%s", tt.want, out.Text)
			}
			if out.BaseName != "prog" {
				t.Errorf("BaseName = %q, want prog", out.BaseName)
			}
			if out.Program == nil || out.Info == nil {
				t.Error("Program and Info must be set")
			}
		})
	}
}

func TestCompile_StageErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		stage  diag.Stage
	}{
		{"lexer", `fn main() { let s = "open; }`, diag.StageLexer},
		{"parser", `fn main() { let x = (1 + 2; }`, diag.StageParser},
		{"type check", `fn main() { let x: i32 = true; }`, diag.StageTypeCheck},
		{"codegen", `fn helper() {}`, diag.StageCodegen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source, Options{Filename: "test.rs"})
			de, ok := diag.AsError(err)
			if !ok {
				t.Fatalf("Compile error = %v, want a *diag.Error", err)
			}
			if de.Stage != tt.stage {
				t.Errorf("stage = %s, want %s (%v)", de.Stage, tt.stage, de)
			}
		})
	}
}

func TestCompile_SkipCheck(t *testing.T) {
	// The checker rejects comparing a bool with an integer; the generator
	// compares them as 0/1.
	src := `fn main() { let b = true; let c = b == 1; }`
	if _, err := Compile(src, Options{Filename: "test.rs"}); err == nil {
		t.Fatal("expected a type error with checking enabled")
	}
	out, err := Compile(src, Options{Filename: "test.rs", SkipCheck: true})
	if err != nil {
		t.Fatalf("Compile with SkipCheck: %v", err)
	}
	if out.Info != nil {
		t.Error("Info should be nil when checking is skipped")
	}
}

func TestCompile_LogsWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Compile(`fn main() { let unused = 1; }`, Options{Filename: "test.rs", Logger: logger})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	logs := buf.String()
	for _, want := range []string{"level=WARN", "unused variable: unused", "level=DEBUG", "msg=generated"} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %q\n%s", want, logs)
		}
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"prog.rs":          "prog",
		"/tmp/a/b/main.rs": "main",
		"noext":            "noext",
		"":                 "out",
	}
	for in, want := range tests {
		if got := BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}
