package ast

import (
	"errors"
	"fmt"
	"strings"
)

// Piece is one part of a print template: literal text, or a hole that the
// next argument fills.
type Piece struct {
	Text string
	Hole bool
}

// ParseTemplate splits a print template into pieces. `{}` is a hole, `{{`
// and `}}` are literal braces, and any other use of a brace is an error.
// Adjacent literal text is merged into a single piece.
func ParseTemplate(s string) ([]Piece, error) {
	var (
		pieces []Piece
		text   strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			pieces = append(pieces, Piece{Text: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				text.WriteByte('{')
				i++
				continue
			}
			if i+1 < len(s) && s[i+1] == '}' {
				flush()
				pieces = append(pieces, Piece{Hole: true})
				i++
				continue
			}
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return nil, errors.New("unterminated placeholder in format string")
			}
			return nil, fmt.Errorf("unsupported placeholder %q in format string: only {} is allowed", s[i:i+end+1])
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				text.WriteByte('}')
				i++
				continue
			}
			return nil, errors.New("unmatched '}' in format string")
		default:
			text.WriteByte(c)
		}
	}
	flush()
	return pieces, nil
}

// CountHoles returns the number of holes in pieces.
func CountHoles(pieces []Piece) int {
	n := 0
	for _, p := range pieces {
		if p.Hole {
			n++
		}
	}
	return n
}
