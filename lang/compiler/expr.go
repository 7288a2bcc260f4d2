package compiler

import (
	"strconv"

	"github.com/asc-lang/asc/lang/avm1"
	"github.com/asc-lang/asc/lang/token"
)

func (c *compiler) expression() error {
	return c.expressionWithPrecedence(precAssignment)
}

// expressionWithPrecedence compiles one expression: a prefix form
// followed by every infix form whose operator binds at least as
// tightly as p.
func (c *compiler) expressionWithPrecedence(p precedence) error {
	canAssign := p <= precAssignment

	tok, err := c.readToken()
	if err != nil {
		return err
	}

	switch tok.Kind {
	case token.LPAREN:
		err = c.grouping()
	case token.LBRACK:
		err = c.arrayLiteral()
	case token.LBRACE:
		err = c.objectLiteral()
	case token.NEW:
		err = c.expressionWithPrecedence(precConstruct)
	case token.DELETE:
		err = c.expressionWithPrecedence(precDelete)
	case token.PLUS, token.MINUS, token.TILDE, token.BANG, token.THROW, token.TYPEOF:
		err = c.unary(tok)
	case token.PLUSPLUS, token.MINUSMINUS:
		err = c.prefixIncDec(tok)
	case token.NUMBER:
		n, perr := strconv.ParseInt(tok.Lexeme, 10, 32)
		if perr != nil {
			return c.errorf(tok, "Invalid number literal")
		}
		c.buf.Push(avm1.Int(int32(n)))
	case token.STRING:
		// trim the surrounding quotes; the runtime string is the raw
		// inner characters
		c.buf.Push(avm1.Str(tok.Lexeme[1 : len(tok.Lexeme)-1]))
	case token.FALSE:
		c.buf.Push(avm1.Bool(false))
	case token.TRUE:
		c.buf.Push(avm1.Bool(true))
	case token.NULL:
		c.buf.Push(avm1.Null())
	case token.UNDEFINED:
		c.buf.Push(avm1.Undefined())
	case token.FUNCTION:
		if c.cur.Kind == token.IDENT {
			return c.errorf(c.cur, "Function expression must be anonymous")
		}
		err = c.functionBody("")
	case token.IDENT:
		err = c.identifier(tok, p)
	case token.EOF:
		return c.errorf(tok, "Unexpected end of file")
	default:
		return c.errorf(tok, "Unexpected token: %q", tok.Lexeme)
	}
	if err != nil {
		return err
	}

	for precOf(c.cur.Kind) >= p {
		tok, err := c.readToken()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case token.DOT:
			err = c.dotAccess(p)
		case token.LBRACK:
			err = c.indexAccess(p)
		case token.LPAREN:
			err = c.callValue(p)
		default:
			err = c.binary(tok)
		}
		if err != nil {
			return err
		}
	}

	if canAssign && c.cur.Kind == token.EQ {
		return c.errorf(c.cur, "Invalid assignment target")
	}
	if p == precConstruct {
		if q := precOf(c.cur.Kind); q > precConstruct {
			return c.errorf(c.cur, "Invalid construct target")
		}
	}
	if p == precDelete {
		if q := precOf(c.cur.Kind); q > precCall {
			return c.errorf(c.cur, "Invalid delete target")
		}
	}
	return nil
}

func (c *compiler) grouping() error {
	if err := c.expression(); err != nil {
		return err
	}
	_, err := c.expect(token.RPAREN, "Expected ')' after expression")
	return err
}

func (c *compiler) unary(tok token.Token) error {
	switch tok.Kind {
	case token.MINUS:
		// 0 - x
		c.buf.Push(avm1.Int(0))
	case token.TILDE:
		// x ^ (2^32 - 1)
		c.buf.Push(avm1.Double(4294967295))
	}
	if err := c.expressionWithPrecedence(precUnary); err != nil {
		return err
	}
	switch tok.Kind {
	case token.PLUS:
		c.buf.Action(avm1.ToNumber)
	case token.MINUS:
		c.buf.Action(avm1.Subtract)
	case token.TILDE:
		c.buf.Action(avm1.BitXor)
	case token.BANG:
		c.buf.Action(avm1.Not)
	case token.THROW:
		c.buf.Action(avm1.Throw)
	case token.TYPEOF:
		c.buf.Action(avm1.TypeOf)
	}
	return nil
}

// prefixIncDec handles ++x and --x, which only accept an identifier or
// register operand.
func (c *compiler) prefixIncDec(tok token.Token) error {
	op := avm1.Increment
	if tok.Kind == token.MINUSMINUS {
		op = avm1.Decrement
	}
	name, err := c.expect(token.IDENT, "Expected variable name")
	if err != nil {
		return err
	}
	if reg, ok := registerOf(name.Lexeme); ok {
		c.buf.Push(avm1.Register(reg))
		c.buf.Action(op)
		c.buf.StoreRegister(reg)
		return nil
	}
	c.buf.Push(avm1.Str(name.Lexeme))
	c.buf.Push(avm1.Str(name.Lexeme))
	c.buf.Action(avm1.GetVariable)
	c.buf.Action(op)
	c.buf.Action(avm1.SetVariable)
	return nil
}

func (c *compiler) binary(tok token.Token) error {
	// left-associative: the right-hand side binds one level tighter
	if err := c.expressionWithPrecedence(precOf(tok.Kind) + 1); err != nil {
		return err
	}
	if !c.emitBinaryOp(tok.Kind) {
		return c.errorf(tok, "Expected binary operator, got %q", tok.Lexeme)
	}
	return nil
}

// emitBinaryOp writes the action sequence of the binary operator k and
// reports whether k is one.
func (c *compiler) emitBinaryOp(k token.Kind) bool {
	switch k {
	case token.AMPERSAND:
		c.buf.Action(avm1.BitAnd)
	case token.PIPE:
		c.buf.Action(avm1.BitOr)
	case token.CIRCUMFLEX:
		c.buf.Action(avm1.BitXor)
	case token.PERCENT:
		c.buf.Action(avm1.Modulo)
	case token.PLUS:
		c.buf.Action(avm1.Add2)
	case token.MINUS:
		c.buf.Action(avm1.Subtract)
	case token.SLASH:
		c.buf.Action(avm1.Divide)
	case token.STAR:
		c.buf.Action(avm1.Multiply)
	case token.EQL:
		c.buf.Action(avm1.Equals2)
	case token.SEQL:
		c.buf.Action(avm1.StrictEquals)
	case token.NEQ:
		// no direct opcode
		c.buf.Action(avm1.Equals2)
		c.buf.Action(avm1.Not)
	case token.GT:
		c.buf.Action(avm1.Greater)
	case token.GE:
		c.buf.Action(avm1.Less)
		c.buf.Action(avm1.Not)
	case token.LT:
		c.buf.Action(avm1.Less)
	case token.LE:
		c.buf.Action(avm1.Greater)
		c.buf.Action(avm1.Not)
	case token.LTLT:
		c.buf.Action(avm1.BitLShift)
	case token.GTGT:
		c.buf.Action(avm1.BitRShift)
	case token.GTGTGT:
		c.buf.Action(avm1.BitURShift)
	case token.INSTANCEOF:
		c.buf.Action(avm1.InstanceOf)
	default:
		return false
	}
	return true
}

func (c *compiler) arrayLiteral() error {
	var elems [][]byte
	if c.cur.Kind != token.RBRACK {
		for {
			b, err := c.nested(c.expression)
			if err != nil {
				return err
			}
			elems = append(elems, b)
			more, err := c.consume(token.COMMA)
			if err != nil {
				return err
			}
			if !more {
				break
			}
		}
	}
	if _, err := c.expect(token.RBRACK, "Expected ']' after elements"); err != nil {
		return err
	}
	// InitArray consumes its elements top-down, so the last element's
	// push sequence must end at the top of the stack
	for i := len(elems) - 1; i >= 0; i-- {
		c.buf.Splice(elems[i])
	}
	c.buf.Push(avm1.Int(int32(len(elems))))
	c.buf.Action(avm1.InitArray)
	return nil
}

func (c *compiler) objectLiteral() error {
	count := 0
	if c.cur.Kind != token.RBRACE {
		for {
			name, err := c.expect(token.IDENT, "Expected property name")
			if err != nil {
				return err
			}
			if _, err := c.expect(token.COLON, "Expected ':' after property name"); err != nil {
				return err
			}
			c.buf.Push(avm1.Str(name.Lexeme))
			if err := c.expression(); err != nil {
				return err
			}
			count++
			more, err := c.consume(token.COMMA)
			if err != nil {
				return err
			}
			if !more {
				break
			}
		}
	}
	if _, err := c.expect(token.RBRACE, "Expected '}' after properties"); err != nil {
		return err
	}
	c.buf.Push(avm1.Int(int32(count)))
	c.buf.Action(avm1.InitObject)
	return nil
}

// callArgs compiles a parenthesized argument list, one side buffer per
// argument, and splices the buffers in reverse source order so the
// leftmost argument ends up at the top of the stack. The opening '('
// has already been consumed; returns the argument count.
func (c *compiler) callArgs() (int, error) {
	var args [][]byte
	if c.cur.Kind != token.RPAREN {
		for {
			b, err := c.nested(c.expression)
			if err != nil {
				return 0, err
			}
			args = append(args, b)
			more, err := c.consume(token.COMMA)
			if err != nil {
				return 0, err
			}
			if !more {
				break
			}
		}
	}
	if _, err := c.expect(token.RPAREN, "Expected ')' after arguments"); err != nil {
		return 0, err
	}
	for i := len(args) - 1; i >= 0; i-- {
		c.buf.Splice(args[i])
	}
	return len(args), nil
}

// callValue calls whatever value the preceding expression left on the
// stack; the player calls the object itself when the method name is
// undefined.
func (c *compiler) callValue(p precedence) error {
	n, err := c.callArgs()
	if err != nil {
		return err
	}
	c.buf.Push(avm1.Int(int32(n)))
	c.buf.Action(avm1.StackSwap)
	c.buf.Push(avm1.Undefined())
	if p == precConstruct {
		c.buf.Action(avm1.NewMethod)
	} else {
		c.buf.Action(avm1.CallMethod)
	}
	return nil
}

// builtinCall compiles a call of a predeclared builtin, enforcing its
// exact arity. Arguments are compiled in place, left to right, with no
// reordering. Surplus arguments are still parsed (into discarded
// buffers) so the reported count is exact.
func (c *compiler) builtinCall(name token.Token, bi builtin) error {
	if _, err := c.expect(token.LPAREN, "Expected '(' after builtin"); err != nil {
		return err
	}
	count := 0
	var extra token.Token
	if c.cur.Kind != token.RPAREN {
		for {
			if count == bi.arity && extra.Kind == token.ILLEGAL {
				extra = c.cur
			}
			if count < bi.arity {
				if err := c.expression(); err != nil {
					return err
				}
			} else {
				if _, err := c.nested(c.expression); err != nil {
					return err
				}
			}
			count++
			more, err := c.consume(token.COMMA)
			if err != nil {
				return err
			}
			if !more {
				break
			}
		}
	}
	closing, err := c.expect(token.RPAREN, "Expected ')' after arguments")
	if err != nil {
		return err
	}
	if count != bi.arity {
		at := closing
		if count > bi.arity {
			at = extra
		}
		return c.errorf(at, "Expected %d argument(s), got %d", bi.arity, count)
	}
	c.buf.Action(bi.op)
	return nil
}
