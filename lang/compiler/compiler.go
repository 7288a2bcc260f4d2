// Package compiler translates ActionScript source into an AVM1 action
// byte stream in a single pass, with no intermediate syntax tree. A
// precedence-climbing expression parser emits actions as it consumes
// tokens; statements with control flow compile their sub-bodies into
// side buffers and splice them back with exact branch offsets.
package compiler

import (
	"fmt"

	"github.com/asc-lang/asc/lang/avm1"
	"github.com/asc-lang/asc/lang/scanner"
	"github.com/asc-lang/asc/lang/token"
)

type compiler struct {
	sc  scanner.Scanner
	cur token.Token  // one-token lookahead
	buf *avm1.Writer // active action buffer
}

// Compile translates source into AVM1 action bytes. Compilation is a
// pure function of the source text; the first failure aborts and is
// returned as a *scanner.Error.
func Compile(source string) ([]byte, error) {
	c := &compiler{buf: new(avm1.Writer)}
	c.sc.Init(source)

	// prime the lookahead
	if _, err := c.readToken(); err != nil {
		return nil, err
	}
	for c.cur.Kind != token.EOF {
		if err := c.declaration(); err != nil {
			return nil, err
		}
	}
	return c.buf.Bytes(), nil
}

// readToken returns the current lookahead token and replaces it with
// the next one from the scanner.
func (c *compiler) readToken() (token.Token, error) {
	next, err := c.sc.ReadToken()
	if err != nil {
		return token.Token{}, err
	}
	tok := c.cur
	c.cur = next
	return tok, nil
}

// consume advances past the lookahead only if it is of kind k.
func (c *compiler) consume(k token.Kind) (bool, error) {
	if c.cur.Kind != k {
		return false, nil
	}
	if _, err := c.readToken(); err != nil {
		return false, err
	}
	return true, nil
}

// expect consumes and returns the lookahead, or fails with msg at its
// position if it is not of kind k.
func (c *compiler) expect(k token.Kind, msg string) (token.Token, error) {
	if c.cur.Kind != k {
		return token.Token{}, c.errorf(c.cur, msg)
	}
	return c.readToken()
}

func (c *compiler) errorf(tok token.Token, format string, args ...any) error {
	return &scanner.Error{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Col:     tok.Col,
	}
}

// nested compiles fn into a fresh buffer and returns its bytes. The
// active buffer is restored even when fn fails, so buffer nesting is
// stack-disciplined by construction.
func (c *compiler) nested(fn func() error) ([]byte, error) {
	outer := c.buf
	c.buf = new(avm1.Writer)
	err := fn()
	b := c.buf.Bytes()
	c.buf = outer
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (c *compiler) declaration() error {
	switch c.cur.Kind {
	case token.VAR:
		return c.varDeclaration()
	case token.FUNCTION:
		return c.functionDeclaration()
	default:
		return c.statement()
	}
}

func (c *compiler) varDeclaration() error {
	if _, err := c.readToken(); err != nil { // var
		return err
	}
	name, err := c.expect(token.IDENT, "Expected variable name")
	if err != nil {
		return err
	}
	c.buf.Push(avm1.Str(name.Lexeme))

	init, err := c.consume(token.EQ)
	if err != nil {
		return err
	}
	if init {
		if err := c.expression(); err != nil {
			return err
		}
	}
	if _, err := c.expect(token.SEMI, "Expected ';'"); err != nil {
		return err
	}
	if init {
		c.buf.Action(avm1.DefineLocal)
	} else {
		c.buf.Action(avm1.DefineLocal2)
	}
	return nil
}

func (c *compiler) functionDeclaration() error {
	if _, err := c.readToken(); err != nil { // function
		return err
	}
	name, err := c.expect(token.IDENT, "Expected function name")
	if err != nil {
		return err
	}
	return c.functionBody(name.Lexeme)
}

// functionBody compiles the parameter list and block of a function and
// emits the DefineFunction record. name is empty for function
// expressions.
func (c *compiler) functionBody(name string) error {
	if _, err := c.expect(token.LPAREN, "Expected '(' before parameters"); err != nil {
		return err
	}
	var params []string
	if c.cur.Kind != token.RPAREN {
		for {
			p, err := c.expect(token.IDENT, "Expected parameter name")
			if err != nil {
				return err
			}
			params = append(params, p.Lexeme)
			more, err := c.consume(token.COMMA)
			if err != nil {
				return err
			}
			if !more {
				break
			}
		}
	}
	if _, err := c.expect(token.RPAREN, "Expected ')' after parameters"); err != nil {
		return err
	}
	if _, err := c.expect(token.LBRACE, "Expected '{' before function body"); err != nil {
		return err
	}
	body, err := c.nested(c.block)
	if err != nil {
		return err
	}
	c.buf.DefineFunction(name, params, body)
	return nil
}

// block compiles declarations up to the closing brace; the opening
// brace has already been consumed.
func (c *compiler) block() error {
	for c.cur.Kind != token.RBRACE && c.cur.Kind != token.EOF {
		if err := c.declaration(); err != nil {
			return err
		}
	}
	_, err := c.expect(token.RBRACE, "Expected '}'")
	return err
}

func (c *compiler) statement() error {
	switch c.cur.Kind {
	case token.LBRACE:
		if _, err := c.readToken(); err != nil {
			return err
		}
		return c.block()
	case token.IF:
		return c.ifStatement()
	case token.WHILE:
		return c.whileStatement()
	case token.TRY:
		return c.tryStatement()
	case token.TRACE:
		return c.traceStatement()
	default:
		if err := c.expression(); err != nil {
			return err
		}
		if _, err := c.expect(token.SEMI, "Expected ';'"); err != nil {
			return err
		}
		c.buf.Action(avm1.Pop)
		return nil
	}
}

func (c *compiler) traceStatement() error {
	if _, err := c.readToken(); err != nil { // trace
		return err
	}
	if _, err := c.expect(token.LPAREN, "Expected '(' before expression"); err != nil {
		return err
	}
	if err := c.expression(); err != nil {
		return err
	}
	if _, err := c.expect(token.RPAREN, "Expected ')' after expression"); err != nil {
		return err
	}
	if _, err := c.expect(token.SEMI, "Expected ';'"); err != nil {
		return err
	}
	c.buf.Action(avm1.Trace)
	return nil
}

func (c *compiler) ifStatement() error {
	if _, err := c.readToken(); err != nil { // if
		return err
	}
	if _, err := c.expect(token.LPAREN, "Expected '(' after 'if'"); err != nil {
		return err
	}
	if err := c.expression(); err != nil {
		return err
	}
	if _, err := c.expect(token.RPAREN, "Expected ')' after condition"); err != nil {
		return err
	}

	// the If branch is taken when the condition is false
	c.buf.Action(avm1.Not)
	then, err := c.nested(c.statement)
	if err != nil {
		return err
	}

	hasElse, err := c.consume(token.ELSE)
	if err != nil {
		return err
	}
	if !hasElse {
		c.buf.If(len(then))
		c.buf.Splice(then)
		return nil
	}

	els, err := c.nested(c.statement)
	if err != nil {
		return err
	}
	// the then branch ends with a jump over the else branch
	c.buf.If(len(then) + avm1.JumpSize)
	c.buf.Splice(then)
	c.buf.Jump(len(els))
	c.buf.Splice(els)
	return nil
}

func (c *compiler) whileStatement() error {
	if _, err := c.readToken(); err != nil { // while
		return err
	}
	if _, err := c.expect(token.LPAREN, "Expected '(' after 'while'"); err != nil {
		return err
	}
	cond, err := c.nested(func() error {
		if err := c.expression(); err != nil {
			return err
		}
		if _, err := c.expect(token.RPAREN, "Expected ')' after condition"); err != nil {
			return err
		}
		c.buf.Action(avm1.Not)
		return nil
	})
	if err != nil {
		return err
	}
	body, err := c.nested(c.statement)
	if err != nil {
		return err
	}

	c.buf.Splice(cond)
	// exit over the body and the back jump when the condition is false
	c.buf.If(len(body) + avm1.JumpSize)
	c.buf.Splice(body)
	// back to the start of the condition, crossing both branch records
	c.buf.Jump(-(len(cond) + len(body) + 2*avm1.JumpSize))
	return nil
}

func (c *compiler) tryStatement() error {
	tryTok, err := c.readToken() // try
	if err != nil {
		return err
	}
	if _, err := c.expect(token.LBRACE, "Expected '{' after 'try'"); err != nil {
		return err
	}
	var tb avm1.TryBlock
	if tb.TryBody, err = c.nested(c.block); err != nil {
		return err
	}

	hasCatch, err := c.consume(token.CATCH)
	if err != nil {
		return err
	}
	if hasCatch {
		if _, err := c.expect(token.LPAREN, "Expected '(' after 'catch'"); err != nil {
			return err
		}
		name, err := c.expect(token.IDENT, "Expected catch variable name")
		if err != nil {
			return err
		}
		if _, err := c.expect(token.RPAREN, "Expected ')' after catch variable"); err != nil {
			return err
		}
		if _, err := c.expect(token.LBRACE, "Expected '{' after catch clause"); err != nil {
			return err
		}
		if tb.CatchBody, err = c.nested(c.block); err != nil {
			return err
		}
		tb.HasCatch = true
		if reg, ok := registerOf(name.Lexeme); ok {
			tb.CatchInReg = true
			tb.CatchReg = reg
		} else {
			tb.CatchName = name.Lexeme
		}
	}

	hasFinally, err := c.consume(token.FINALLY)
	if err != nil {
		return err
	}
	if hasFinally {
		if _, err := c.expect(token.LBRACE, "Expected '{' after 'finally'"); err != nil {
			return err
		}
		if tb.FinallyBody, err = c.nested(c.block); err != nil {
			return err
		}
		tb.HasFinally = true
	}

	// TODO: relax once a bare try has defined semantics
	if !tb.HasCatch && !tb.HasFinally {
		return c.errorf(tryTok, "Expected 'catch' or 'finally' after 'try' block")
	}
	c.buf.Try(tb)
	return nil
}
