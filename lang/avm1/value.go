package avm1

import (
	"fmt"
	"strconv"
)

// ValueKind is the type code of a Push action operand as encoded on
// the wire.
type ValueKind uint8

//nolint:revive
const (
	KindString    ValueKind = 0
	KindFloat     ValueKind = 1 // float32, never emitted by this compiler
	KindNull      ValueKind = 2
	KindUndefined ValueKind = 3
	KindRegister  ValueKind = 4
	KindBool      ValueKind = 5
	KindDouble    ValueKind = 6
	KindInt       ValueKind = 7
	KindConst8    ValueKind = 8 // constant pool, never emitted by this compiler
	KindConst16   ValueKind = 9
)

// A Value is a single operand of a Push action.
type Value struct {
	Kind   ValueKind
	Str    string
	Double float64
	Int    int32
	Reg    uint8
	Bool   bool
}

// Str returns a string push value.
func Str(s string) Value { return Value{Kind: KindString, Str: s} }

// Int returns a signed 32-bit integer push value.
func Int(i int32) Value { return Value{Kind: KindInt, Int: i} }

// Double returns a 64-bit float push value.
func Double(f float64) Value { return Value{Kind: KindDouble, Double: f} }

// Bool returns a boolean push value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Null returns the null push value.
func Null() Value { return Value{Kind: KindNull} }

// Undefined returns the undefined push value.
func Undefined() Value { return Value{Kind: KindUndefined} }

// Register returns a register push value for register n.
func Register(n uint8) Value { return Value{Kind: KindRegister, Reg: n} }

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return fmt.Sprintf("string %q", v.Str)
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindRegister:
		return fmt.Sprintf("register %d", v.Reg)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindDouble:
		return "double " + strconv.FormatFloat(v.Double, 'g', -1, 64)
	case KindInt:
		return "int " + strconv.FormatInt(int64(v.Int), 10)
	default:
		return fmt.Sprintf("illegal value (%d)", v.Kind)
	}
}
