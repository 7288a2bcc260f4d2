// Package scanner tokenizes ActionScript source for the compiler to
// consume. It is byte-oriented with a single character of lookahead;
// tokens keep a slice of the source as their lexeme.
package scanner

import (
	"fmt"

	"github.com/asc-lang/asc/lang/token"
)

// Scanner tokenizes a source buffer one token at a time.
type Scanner struct {
	src string

	// mutable scanning state; off is the byte offset of the next
	// unread character, line/col its 1-based position.
	off  int
	line int
	col  int
}

// Init initializes the scanner to tokenize a new source buffer.
func (s *Scanner) Init(src string) {
	s.src = src
	s.off = 0
	s.line = 1
	s.col = 1
}

// advance consumes the current character. At end of input it is a
// no-op, which keeps the final position sticky for the EOF token.
func (s *Scanner) advance() {
	if s.off >= len(s.src) {
		return
	}
	if s.src[s.off] == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	s.off++
}

// advance only if the current character matches c.
func (s *Scanner) advanceIf(c byte) bool {
	if s.off < len(s.src) && s.src[s.off] == c {
		s.advance()
		return true
	}
	return false
}

func (s *Scanner) skipTrivia() {
	for {
		for s.off < len(s.src) && isWhitespace(s.src[s.off]) {
			s.advance()
		}
		if s.off+1 < len(s.src) && s.src[s.off] == '/' {
			switch s.src[s.off+1] {
			case '/':
				for s.off < len(s.src) && s.src[s.off] != '\n' {
					s.advance()
				}
				continue
			case '*':
				s.advance()
				s.advance()
				// an unterminated block comment consumes to EOF
				for s.off < len(s.src) {
					if s.src[s.off] == '*' && s.off+1 < len(s.src) && s.src[s.off+1] == '/' {
						s.advance()
						s.advance()
						break
					}
					s.advance()
				}
				continue
			}
		}
		return
	}
}

// ReadToken returns the next token in the source. Once the end of the
// source is reached it keeps returning EOF tokens positioned just past
// the last character.
func (s *Scanner) ReadToken() (token.Token, error) {
	s.skipTrivia()

	line, col := s.line, s.col
	start := s.off

	if s.off >= len(s.src) {
		return token.Token{Kind: token.EOF, Line: line, Col: col}, nil
	}

	c := s.src[s.off]
	s.advance()

	var kind token.Kind
	switch {
	case isLetter(c):
		for s.off < len(s.src) && (isLetter(s.src[s.off]) || isDigit(s.src[s.off])) {
			s.advance()
		}
		kind = token.LookupKw(s.src[start:s.off])

	case isDigit(c):
		// TODO: decimal dot and exponent notation
		for s.off < len(s.src) && isDigit(s.src[s.off]) {
			s.advance()
		}
		kind = token.NUMBER

	case c == '"' || c == '\'':
		// no escape processing, the quote always terminates
		for {
			if s.off >= len(s.src) {
				return token.Token{}, &Error{Message: "Unclosed string", Line: line, Col: col}
			}
			q := s.src[s.off]
			s.advance()
			if q == c {
				break
			}
		}
		kind = token.STRING

	default:
		s.operator(c)
		kind = token.LookupPunct(s.src[start:s.off])
		if kind == token.ILLEGAL {
			return token.Token{}, &Error{
				Message: fmt.Sprintf("Unknown character '%c'", c),
				Line:    line,
				Col:     col,
			}
		}
	}

	return token.Token{Kind: kind, Lexeme: s.src[start:s.off], Line: line, Col: col}, nil
}

// operator consumes the remaining characters of a maximal-munch
// operator whose first character c has already been consumed. The
// scanned slice is then classified with token.LookupPunct.
func (s *Scanner) operator(c byte) {
	switch c {
	case '=':
		// = == ===
		if s.advanceIf('=') {
			s.advanceIf('=')
		}
	case '>':
		// > >= >> >>= >>> >>>=
		if s.advanceIf('>') {
			s.advanceIf('>')
			s.advanceIf('=')
		} else {
			s.advanceIf('=')
		}
	case '<':
		// < <= << <<=
		if s.advanceIf('<') {
			s.advanceIf('=')
		} else {
			s.advanceIf('=')
		}
	case '+':
		if !s.advanceIf('+') {
			s.advanceIf('=')
		}
	case '-':
		if !s.advanceIf('-') {
			s.advanceIf('=')
		}
	case '*', '/', '%', '&', '|', '^', '!':
		s.advanceIf('=')
	}
	// everything else is single-character punctuation or unknown
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_' || c == '$'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
