package diag

import (
	"fmt"
	"io"
	"strings"
)

// Formatter renders errors Rust-style: a header line, the file location and
// the offending source line with a caret underline.
//
//	error[TypeError]: Undefined variable: y
//	  --> main.rs:3:13
//	   |
//	 3 |     let x = y + 1;
//	   |             ^
//	   |
type Formatter struct {
	w       io.Writer
	sources map[string]string
}

// NewFormatter returns a Formatter writing to w.
func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w, sources: make(map[string]string)}
}

// AddSource registers the text of filename so snippets can be shown.
func (f *Formatter) AddSource(filename, source string) {
	f.sources[filename] = source
}

// Format writes err. Errors that are not *Error are written as a plain
// "error: ..." line.
func (f *Formatter) Format(err error) {
	de, ok := AsError(err)
	if !ok {
		fmt.Fprintf(f.w, "error: %v\n", err)
		return
	}

	fmt.Fprintf(f.w, "error[%s]: %s\n", de.Stage.Kind(), de.Message)
	if !de.Span.IsValid() {
		return
	}
	fmt.Fprintf(f.w, "  --> %s\n", de.Span)

	src, ok := f.sources[de.Span.Filename]
	if !ok {
		return
	}
	lines := strings.Split(src, "\n")
	if de.Span.Line > len(lines) {
		return
	}
	line := strings.TrimRight(lines[de.Span.Line-1], "\r")

	num := fmt.Sprintf("%d", de.Span.Line)
	gutter := strings.Repeat(" ", len(num))
	fmt.Fprintf(f.w, " %s |\n", gutter)
	fmt.Fprintf(f.w, " %s | %s\n", num, line)
	fmt.Fprintf(f.w, " %s | %s\n", gutter, underline(line, de.Span))
	fmt.Fprintf(f.w, " %s |\n", gutter)
}

// underline builds the caret line for span within line. Tabs in the prefix
// are kept so the carets stay aligned with the source.
func underline(line string, span Span) string {
	col := span.Column - 1
	runes := []rune(line)
	if col > len(runes) {
		col = len(runes)
	}

	var b strings.Builder
	for _, r := range runes[:col] {
		if r == '\t' {
			b.WriteRune('\t')
		} else {
			b.WriteByte(' ')
		}
	}

	width := span.End - span.Start
	if width < 1 {
		width = 1
	}
	if rest := len(runes) - col; width > rest && rest > 0 {
		width = rest
	}
	b.WriteString(strings.Repeat("^", width))
	return b.String()
}
