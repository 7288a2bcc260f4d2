package avm1

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Writer is an append-only AVM1 action buffer. Every method writes one
// complete, well-formed action frame; actions at or above 0x80 get
// their 16-bit length prefix computed from the payload.
type Writer struct {
	buf bytes.Buffer
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.buf.Len() }

// Bytes returns the action stream written so far. The slice is only
// valid until the next write.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Splice appends raw, already-encoded action bytes.
func (w *Writer) Splice(b []byte) { w.buf.Write(b) }

// Action writes an action without operands.
func (w *Writer) Action(op Opcode) {
	w.buf.WriteByte(byte(op))
	if op.HasPayload() {
		w.u16(0)
	}
}

func (w *Writer) payload(op Opcode, b []byte) {
	w.buf.WriteByte(byte(op))
	w.u16(uint16(len(b)))
	w.buf.Write(b)
}

func (w *Writer) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

// Push writes a Push action carrying the given values.
func (w *Writer) Push(vals ...Value) {
	var b []byte
	for _, v := range vals {
		b = appendValue(b, v)
	}
	w.payload(Push, b)
}

// Jump writes an unconditional branch. The offset is the byte distance
// from the end of the Jump action to the branch target.
func (w *Writer) Jump(off int) { w.branch(Jump, off) }

// If writes a conditional branch taken when the popped value is true.
// The offset is the byte distance from the end of the If action to the
// branch target.
func (w *Writer) If(off int) { w.branch(If, off) }

func (w *Writer) branch(op Opcode, off int) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(int16(off)))
	w.payload(op, b[:])
}

// StoreRegister writes a StoreRegister action for register reg. The
// stored value is left on the stack.
func (w *Writer) StoreRegister(reg uint8) {
	w.payload(StoreRegister, []byte{reg})
}

// DefineFunction writes a DefineFunction action. The record carries
// the name, parameters and body size; the body bytes follow the
// record in the stream.
func (w *Writer) DefineFunction(name string, params []string, body []byte) {
	b := appendCString(nil, name)
	b = appendU16(b, uint16(len(params)))
	for _, p := range params {
		b = appendCString(b, p)
	}
	b = appendU16(b, uint16(len(body)))
	w.payload(DefineFunc, b)
	w.buf.Write(body)
}

// A TryBlock describes a Try action: the three body slices and the
// catch binding, either a named variable or a register.
type TryBlock struct {
	HasCatch   bool
	HasFinally bool
	CatchInReg bool
	CatchName  string
	CatchReg   uint8

	TryBody     []byte
	CatchBody   []byte
	FinallyBody []byte
}

// Try writes a Try action. The record carries the flags, the three
// body sizes and the catch binding; the bodies follow the record in
// the stream.
func (w *Writer) Try(t TryBlock) {
	var flags byte
	if t.HasCatch {
		flags |= 0x01
	}
	if t.HasFinally {
		flags |= 0x02
	}
	if t.CatchInReg {
		flags |= 0x04
	}
	b := []byte{flags}
	b = appendU16(b, uint16(len(t.TryBody)))
	b = appendU16(b, uint16(len(t.CatchBody)))
	b = appendU16(b, uint16(len(t.FinallyBody)))
	if t.CatchInReg {
		b = append(b, t.CatchReg)
	} else {
		b = appendCString(b, t.CatchName)
	}
	w.payload(Try, b)
	w.buf.Write(t.TryBody)
	w.buf.Write(t.CatchBody)
	w.buf.Write(t.FinallyBody)
}

func appendValue(b []byte, v Value) []byte {
	b = append(b, byte(v.Kind))
	switch v.Kind {
	case KindString:
		b = appendCString(b, v.Str)
	case KindNull, KindUndefined:
		// type code only
	case KindRegister:
		b = append(b, v.Reg)
	case KindBool:
		if v.Bool {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
	case KindDouble:
		// the player stores doubles with the two 32-bit halves
		// swapped: high word first, each little-endian
		bits := math.Float64bits(v.Double)
		b = appendU32(b, uint32(bits>>32))
		b = appendU32(b, uint32(bits))
	case KindInt:
		b = appendU32(b, uint32(v.Int))
	}
	return b
}

func appendCString(b []byte, s string) []byte {
	b = append(b, s...)
	return append(b, 0)
}

func appendU16(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

func appendU32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
