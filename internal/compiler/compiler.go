// Package compiler runs the front end and one code generator over a single
// source file.
package compiler

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/hassan/minirust/internal/codegen"
	"github.com/hassan/minirust/internal/codegen/asm"
	"github.com/hassan/minirust/internal/codegen/cgen"
	"github.com/hassan/minirust/internal/parser"
	"github.com/hassan/minirust/internal/parser/ast"
	"github.com/hassan/minirust/internal/semantic"
)

// Options configures a compilation.
type Options struct {
	// Filename is used in spans and to derive Output.BaseName.
	Filename string
	Target   codegen.Target
	// SkipCheck sends the parsed program straight to the generator.
	SkipCheck bool
	// Logger receives stage progress at debug level and checker warnings.
	// Nil discards.
	Logger *slog.Logger
}

// Output is a successful compilation.
type Output struct {
	// Text is the generated assembly or C source.
	Text string
	// BaseName is the file stem of Options.Filename, "out" if there is none.
	BaseName string
	Program  *ast.Program
	// Info is nil when checking was skipped.
	Info *semantic.Info
}

// Compile lexes, parses, checks and generates code for source. The first
// error of the first failing stage is returned as a *diag.Error.
func Compile(source string, opts Options) (*Output, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = log.With("file", opts.Filename)

	prog, err := parser.Parse(source, opts.Filename)
	if err != nil {
		log.Debug("parse failed", "error", err)
		return nil, err
	}
	log.Debug("parsed", "functions", len(prog.Functions()), "globals", len(prog.Globals()))

	var info *semantic.Info
	if opts.SkipCheck {
		log.Debug("type check skipped")
	} else {
		info, err = semantic.Check(prog)
		if err != nil {
			log.Debug("type check failed", "error", err)
			return nil, err
		}
		for _, w := range info.Warnings {
			log.Warn(w.Message, "at", w.Span.String())
		}
		log.Debug("type checked", "warnings", len(info.Warnings))
	}

	gen := generatorFor(opts.Target)
	text, err := gen.Generate(prog)
	if err != nil {
		log.Debug("code generation failed", "target", opts.Target, "error", err)
		return nil, err
	}
	log.Debug("generated", "target", opts.Target, "bytes", len(text))

	return &Output{
		Text:     text,
		BaseName: BaseName(opts.Filename),
		Program:  prog,
		Info:     info,
	}, nil
}

func generatorFor(t codegen.Target) codegen.Generator {
	if t == codegen.TargetC {
		return cgen.New()
	}
	return asm.New()
}

// BaseName returns the file name of path without directory or extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "out"
	}
	return base
}
