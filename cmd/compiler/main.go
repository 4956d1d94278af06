// Command minirust compiles a single source file to x86-64 assembly or C and,
// unless asked to stop there, on to a native executable.
//
//	minirust [--target asm|c] [-o out] [--emit-only] [--no-check] FILE
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"

	"github.com/sanity-io/litter"
	cli "github.com/urfave/cli/v2"

	"github.com/hassan/minirust/internal/backend"
	"github.com/hassan/minirust/internal/codegen"
	"github.com/hassan/minirust/internal/compiler"
	"github.com/hassan/minirust/internal/diag"
	"github.com/hassan/minirust/internal/lexer"
)

// errReported means the failure has already been written to stderr.
var errReported = errors.New("compilation failed")

// astDump hides spans so the tree reads as structure only.
var astDump = litter.Options{
	HidePrivateFields: true,
	FieldExclusions:   regexp.MustCompile(`Loc$`),
}

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "minirust",
		Usage:     "compile a small Rust-like language to NASM assembly or C",
		ArgsUsage: "FILE",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Value:   "asm",
				Usage:   "code generator: asm or c",
				EnvVars: []string{"MINIRUST_TARGET"},
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "path of the executable, or of the listing with --emit-only",
			},
			&cli.BoolFlag{
				Name:  "emit-only",
				Usage: "write the generated listing and stop",
			},
			&cli.BoolFlag{
				Name:  "no-check",
				Usage: "skip type checking",
			},
			&cli.BoolFlag{
				Name:  "dump-tokens",
				Usage: "print the token stream",
			},
			&cli.BoolFlag{
				Name:  "dump-ast",
				Usage: "print the syntax tree",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log each stage",
			},
		},
		ExitErrHandler: func(*cli.Context, error) {},
		Action: func(c *cli.Context) error {
			return run(c, stdout, stderr)
		},
	}
}

func run(c *cli.Context, stdout, stderr io.Writer) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one source file, got %d", c.NArg())
	}
	filename := c.Args().First()

	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	target, err := codegen.ParseTarget(c.String("target"))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}
	source := string(data)

	report := diag.NewFormatter(stderr)
	report.AddSource(filename, source)

	if c.Bool("dump-tokens") {
		tokens, err := lexer.Tokenize(source, filename)
		if err != nil {
			report.Format(err)
			return errReported
		}
		for _, tok := range tokens {
			fmt.Fprintln(stdout, tok)
		}
	}

	out, err := compiler.Compile(source, compiler.Options{
		Filename:  filename,
		Target:    target,
		SkipCheck: c.Bool("no-check"),
		Logger:    logger,
	})
	if err != nil {
		report.Format(err)
		return errReported
	}

	if c.Bool("dump-ast") {
		fmt.Fprintln(stdout, astDump.Sdump(out.Program))
	}

	if c.Bool("emit-only") {
		path := c.String("output")
		if path == "" {
			path = out.BaseName + target.Extension()
		}
		if err := os.WriteFile(path, []byte(out.Text), 0o644); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
		logger.Info("wrote listing", "path", path)
		return nil
	}

	dir, err := os.MkdirTemp("", "minirust-")
	if err != nil {
		return fmt.Errorf("creating build directory: %w", err)
	}
	defer os.RemoveAll(dir)

	opts := backend.DefaultOptions(target)
	opts.Dir = dir
	opts.Name = out.BaseName
	opts.Output = c.String("output")
	if opts.Output == "" {
		opts.Output = out.BaseName
	}
	opts.Logger = logger

	res, err := backend.Build(context.Background(), out.Text, opts)
	if err != nil {
		return err
	}
	logger.Info("built executable", "path", res.Executable)
	return nil
}
