// Package backend turns generated code into an executable with the system
// toolchain: nasm and cc for assembly, cc alone for C.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hassan/minirust/internal/codegen"
)

// Options configures how to build the executable.
type Options struct {
	Target codegen.Target
	// Dir receives the intermediate files. Empty means a fresh temporary
	// directory.
	Dir string
	// Name is the stem of the intermediate files. Default "out".
	Name string
	// Output is the executable path. Default Dir/Name.
	Output string

	Assembler string   // nasm
	AsFlags   []string // -f elf64
	CC        string   // cc
	// CFlags are passed to CC when compiling C; LinkFlags when linking an
	// assembled object.
	CFlags    []string
	LinkFlags []string

	Logger *slog.Logger
}

// DefaultOptions returns options for target with the tools taken from the
// NASM and CC environment variables when set.
func DefaultOptions(target codegen.Target) Options {
	assembler := os.Getenv("NASM")
	if assembler == "" {
		assembler = "nasm"
	}
	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	return Options{
		Target:    target,
		Name:      "out",
		Assembler: assembler,
		AsFlags:   []string{"-f", "elf64"},
		CC:        cc,
		CFlags:    []string{"-std=c99", "-fwrapv", "-w"},
		LinkFlags: []string{"-no-pie"},
	}
}

// Result describes a successful build.
type Result struct {
	Executable string
	// Source is the path the generated text was written to.
	Source string
}

// ToolError reports a failing external tool together with what it printed.
type ToolError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", filepath.Base(e.Tool), e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Build writes text to Dir/Name.asm or Dir/Name.c and produces an executable.
// Unset fields of opts are filled from DefaultOptions.
func Build(ctx context.Context, text string, opts Options) (*Result, error) {
	opts = withDefaults(opts)
	log := opts.Logger

	if opts.Dir == "" {
		dir, err := os.MkdirTemp("", "minirust-")
		if err != nil {
			return nil, fmt.Errorf("creating build directory: %w", err)
		}
		opts.Dir = dir
	} else if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating build directory: %w", err)
	}

	source := filepath.Join(opts.Dir, opts.Name+opts.Target.Extension())
	if err := os.WriteFile(source, []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", source, err)
	}
	log.Debug("wrote source", "path", source)

	exe := opts.Output
	if exe == "" {
		exe = filepath.Join(opts.Dir, opts.Name)
	}

	switch opts.Target {
	case codegen.TargetAsm:
		obj := filepath.Join(opts.Dir, opts.Name+".o")
		args := append(append([]string{}, opts.AsFlags...), "-o", obj, source)
		if err := runTool(ctx, log, opts.Assembler, args); err != nil {
			return nil, err
		}
		args = append(append([]string{}, opts.LinkFlags...), "-o", exe, obj)
		if err := runTool(ctx, log, opts.CC, args); err != nil {
			return nil, err
		}
	case codegen.TargetC:
		args := append(append([]string{}, opts.CFlags...), "-o", exe, source)
		if err := runTool(ctx, log, opts.CC, args); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported target %s", opts.Target)
	}

	log.Debug("built", "executable", exe)
	return &Result{Executable: exe, Source: source}, nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions(opts.Target)
	if opts.Name == "" {
		opts.Name = def.Name
	}
	if opts.Assembler == "" {
		opts.Assembler = def.Assembler
	}
	if opts.AsFlags == nil {
		opts.AsFlags = def.AsFlags
	}
	if opts.CC == "" {
		opts.CC = def.CC
	}
	if opts.CFlags == nil {
		opts.CFlags = def.CFlags
	}
	if opts.LinkFlags == nil {
		opts.LinkFlags = def.LinkFlags
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opts
}

func runTool(ctx context.Context, log *slog.Logger, tool string, args []string) error {
	log.Debug("running", "tool", tool, "args", args)
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return &ToolError{Tool: tool, Args: args, Output: out.String(), Err: err}
	}
	return nil
}

// Available reports whether every tool target needs can be found on PATH.
func Available(target codegen.Target) bool {
	opts := DefaultOptions(target)
	tools := []string{opts.CC}
	if target == codegen.TargetAsm {
		tools = append(tools, opts.Assembler)
	}
	for _, t := range tools {
		if _, err := exec.LookPath(t); err != nil {
			return false
		}
	}
	return true
}

// Run executes exe and returns its standard output and exit status. A
// non-zero exit is not an error; failing to start it is.
func Run(ctx context.Context, exe string) (string, int, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, exe)
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()

	var exit *exec.ExitError
	switch {
	case err == nil:
		return stdout.String(), 0, nil
	case errors.As(err, &exit):
		return stdout.String(), exit.ExitCode(), nil
	default:
		return stdout.String(), -1, fmt.Errorf("running %s: %w", exe, err)
	}
}
