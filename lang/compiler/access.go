package compiler

import (
	"github.com/asc-lang/asc/lang/avm1"
	"github.com/asc-lang/asc/lang/token"
)

// An accessor is the emitter protocol shared by variable, dot and
// index accesses: push writes the access key, dup arranges the
// duplicates a read-modify-write needs, get and set load and store
// through the key. Registers degenerate to empty push and dup, which
// is what makes them usable in every mode without a key on the stack.
type accessor struct {
	push func()
	dup  func()
	get  func()
	set  func()
}

// assignOrRead is the common tail of every access form: plain
// assignment, compound assignment, postfix increment/decrement, or a
// plain read. Assignment is only recognized at assignment precedence,
// which keeps it right-associative and rejected inside tighter
// contexts.
func (c *compiler) assignOrRead(p precedence, acc accessor) error {
	switch {
	case p <= precAssignment && c.cur.Kind == token.EQ:
		if _, err := c.readToken(); err != nil {
			return err
		}
		acc.push()
		if err := c.expression(); err != nil {
			return err
		}
		acc.set()

	case p <= precAssignment && c.cur.Kind.IsAugAssign():
		opTok, err := c.readToken()
		if err != nil {
			return err
		}
		acc.dup()
		acc.push()
		acc.get()
		if err := c.expression(); err != nil {
			return err
		}
		c.emitBinaryOp(augOp(opTok.Kind))
		acc.set()

	case c.cur.Kind == token.PLUSPLUS || c.cur.Kind == token.MINUSMINUS:
		opTok, err := c.readToken()
		if err != nil {
			return err
		}
		acc.dup()
		acc.push()
		acc.get()
		if opTok.Kind == token.PLUSPLUS {
			c.buf.Action(avm1.Increment)
		} else {
			c.buf.Action(avm1.Decrement)
		}
		acc.set()

	default:
		acc.push()
		acc.get()
	}
	return nil
}

// augOp returns the binary operator kind a compound assignment
// desugars to.
func augOp(k token.Kind) token.Kind {
	switch k {
	case token.PLUS_EQ:
		return token.PLUS
	case token.MINUS_EQ:
		return token.MINUS
	case token.STAR_EQ:
		return token.STAR
	case token.SLASH_EQ:
		return token.SLASH
	case token.PERCENT_EQ:
		return token.PERCENT
	case token.AMP_EQ:
		return token.AMPERSAND
	case token.PIPE_EQ:
		return token.PIPE
	case token.CIRCUMFLEX_EQ:
		return token.CIRCUMFLEX
	case token.LTLT_EQ:
		return token.LTLT
	case token.GTGT_EQ:
		return token.GTGT
	case token.GTGTGT_EQ:
		return token.GTGTGT
	}
	return token.ILLEGAL
}

func (c *compiler) variableAccessor(name string) accessor {
	push := func() { c.buf.Push(avm1.Str(name)) }
	return accessor{
		push: push,
		dup:  push, // the set key is a second push of the name
		get:  func() { c.buf.Action(avm1.GetVariable) },
		set:  func() { c.buf.Action(avm1.SetVariable) },
	}
}

func (c *compiler) registerAccessor(reg uint8) accessor {
	return accessor{
		push: func() {},
		dup:  func() {},
		get:  func() { c.buf.Push(avm1.Register(reg)) },
		set:  func() { c.buf.StoreRegister(reg) },
	}
}

// memberAccessor accesses through an object already on the stack; the
// key is either a member name string or a magic property index.
func (c *compiler) memberAccessor(pushKey func(), get, set avm1.Opcode) accessor {
	return accessor{
		push: pushKey,
		// leave the stack as object, key, object so the upcoming get
		// key lands on top: object, key, object, key
		dup: func() {
			c.buf.Action(avm1.PushDuplicate)
			pushKey()
			c.buf.Action(avm1.StackSwap)
		},
		get: func() { c.buf.Action(get) },
		set: func() { c.buf.Action(set) },
	}
}

// indexAccessor accesses through an object and a computed key; the key
// bytes are already spliced when the tail runs, so push is empty and
// dup reorders in place.
func (c *compiler) indexAccessor() accessor {
	return accessor{
		push: func() {},
		dup: func() {
			c.buf.Action(avm1.StackSwap)
			c.buf.Action(avm1.PushDuplicate)
			c.buf.Action(avm1.StackSwap)
		},
		get: func() { c.buf.Action(avm1.GetMember) },
		set: func() { c.buf.Action(avm1.SetMember) },
	}
}

// identifier compiles an identifier in prefix position: a builtin
// call, a register access or a plain variable access.
func (c *compiler) identifier(tok token.Token, p precedence) error {
	if bi, ok := builtins.Get(tok.Lexeme); ok {
		return c.builtinCall(tok, bi)
	}

	name := tok.Lexeme
	if reg, ok := registerOf(name); ok {
		if c.cur.Kind == token.LPAREN {
			return c.errorf(c.cur, "Cannot call register")
		}
		if p == precDelete && precOf(c.cur.Kind) <= precCall {
			return c.errorf(tok, "Cannot delete register")
		}
		return c.assignOrRead(p, c.registerAccessor(reg))
	}

	if c.cur.Kind == token.LPAREN {
		if _, err := c.readToken(); err != nil {
			return err
		}
		n, err := c.callArgs()
		if err != nil {
			return err
		}
		c.buf.Push(avm1.Int(int32(n)))
		c.buf.Push(avm1.Str(name))
		if p == precConstruct {
			c.buf.Action(avm1.NewObject)
		} else {
			c.buf.Action(avm1.CallFunction)
		}
		return nil
	}

	if p == precDelete && precOf(c.cur.Kind) <= precCall {
		c.buf.Push(avm1.Str(name))
		c.buf.Action(avm1.Delete2)
		return nil
	}

	return c.assignOrRead(p, c.variableAccessor(name))
}

// dotAccess compiles the .name access of the object on the stack.
func (c *compiler) dotAccess(p precedence) error {
	name, err := c.expect(token.IDENT, "Expected property name after '.'")
	if err != nil {
		return err
	}
	if _, ok := registerOf(name.Lexeme); ok {
		return c.errorf(name, "Cannot use register as property name")
	}

	if c.cur.Kind == token.LPAREN {
		// method call: swap the object above the count, then push the
		// method name
		if _, err := c.readToken(); err != nil {
			return err
		}
		n, err := c.callArgs()
		if err != nil {
			return err
		}
		c.buf.Push(avm1.Int(int32(n)))
		c.buf.Action(avm1.StackSwap)
		c.buf.Push(avm1.Str(name.Lexeme))
		if p == precConstruct {
			c.buf.Action(avm1.NewMethod)
		} else {
			c.buf.Action(avm1.CallMethod)
		}
		return nil
	}

	if p == precDelete && precOf(c.cur.Kind) <= precCall {
		c.buf.Push(avm1.Str(name.Lexeme))
		c.buf.Action(avm1.Delete)
		return nil
	}

	pushKey := func() { c.buf.Push(avm1.Str(name.Lexeme)) }
	get, set := avm1.GetMember, avm1.SetMember
	if idx, ok := magicProps.Get(name.Lexeme); ok {
		pushKey = func() { c.buf.Push(avm1.Int(idx)) }
		get, set = avm1.GetProperty, avm1.SetProperty
	}
	return c.assignOrRead(p, c.memberAccessor(pushKey, get, set))
}

// indexAccess compiles the [expr] access of the object on the stack.
// The index is compiled into a side buffer to preserve
// object-then-index order.
func (c *compiler) indexAccess(p precedence) error {
	idx, err := c.nested(c.expression)
	if err != nil {
		return err
	}
	if _, err := c.expect(token.RBRACK, "Expected ']' after index"); err != nil {
		return err
	}

	if c.cur.Kind == token.LPAREN {
		// method call through a computed name
		if _, err := c.readToken(); err != nil {
			return err
		}
		n, err := c.callArgs()
		if err != nil {
			return err
		}
		c.buf.Push(avm1.Int(int32(n)))
		c.buf.Action(avm1.StackSwap)
		c.buf.Splice(idx)
		if p == precConstruct {
			c.buf.Action(avm1.NewMethod)
		} else {
			c.buf.Action(avm1.CallMethod)
		}
		return nil
	}

	if p == precDelete && precOf(c.cur.Kind) <= precCall {
		c.buf.Splice(idx)
		c.buf.Action(avm1.Delete)
		return nil
	}

	c.buf.Splice(idx)
	return c.assignOrRead(p, c.indexAccessor())
}
