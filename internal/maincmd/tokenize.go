package maincmd

import (
	"fmt"

	"github.com/asc-lang/asc/lang/scanner"
	"github.com/asc-lang/asc/lang/token"
	"github.com/mna/mainer"
)

// TokenizeFile prints the token stream of path, one token per line.
func TokenizeFile(stdio mainer.Stdio, path string) error {
	source, err := readSource(stdio, path)
	if err != nil {
		return err
	}

	var s scanner.Scanner
	s.Init(source)
	for {
		tok, err := s.ReadToken()
		if err != nil {
			renderError(stdio.Stderr, path, source, err)
			return err
		}
		fmt.Fprintf(stdio.Stdout, "%d:%d: %s", tok.Line, tok.Col, tok.Kind)
		switch tok.Kind {
		case token.IDENT, token.NUMBER, token.STRING:
			fmt.Fprintf(stdio.Stdout, " %s", tok.Lexeme)
		}
		fmt.Fprintln(stdio.Stdout)
		if tok.Kind == token.EOF {
			return nil
		}
	}
}
