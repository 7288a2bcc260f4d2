package avm1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeRoundTrip(t *testing.T) {
	var w Writer
	w.Push(Str("x"), Int(1))
	w.Action(GetVariable)
	w.If(8)
	w.Push(Double(0.5))
	w.StoreRegister(4)
	w.Jump(-w.Len() - JumpSize)

	ins, err := Decode(w.Bytes())
	require.NoError(t, err)
	require.Len(t, ins, 6)

	require.Equal(t, Push, ins[0].Op)
	require.Equal(t, []Value{Str("x"), Int(1)}, ins[0].Values)
	require.Equal(t, GetVariable, ins[1].Op)
	require.Equal(t, If, ins[2].Op)
	require.Equal(t, 8, ins[2].Branch)
	require.Equal(t, []Value{Double(0.5)}, ins[3].Values)
	require.Equal(t, StoreRegister, ins[4].Op)
	require.Equal(t, uint8(4), ins[4].Reg)
	require.Equal(t, Jump, ins[5].Op)

	// the back jump lands exactly on the first instruction
	require.Equal(t, 0, ins[5].Target())
}

func TestDecodeDefineFunction(t *testing.T) {
	var body Writer
	body.Push(Str("a"))
	body.Action(GetVariable)
	body.Action(Trace)

	var w Writer
	w.DefineFunction("f", []string{"a", "b"}, body.Bytes())

	ins, err := Decode(w.Bytes())
	require.NoError(t, err)
	// the function record plus its flattened body
	require.Equal(t, DefineFunc, ins[0].Op)
	require.Equal(t, "f", ins[0].Name)
	require.Equal(t, []string{"a", "b"}, ins[0].Params)
	require.Equal(t, body.Len(), ins[0].BodySize)
	require.Equal(t, Push, ins[1].Op)
	require.Equal(t, GetVariable, ins[2].Op)
	require.Equal(t, Trace, ins[3].Op)
}

func TestDecodeTry(t *testing.T) {
	var try, catch Writer
	try.Push(Int(1))
	try.Action(Throw)
	catch.Action(Pop)

	var w Writer
	w.Try(TryBlock{
		HasCatch:  true,
		CatchName: "err",
		TryBody:   try.Bytes(),
		CatchBody: catch.Bytes(),
	})

	ins, err := Decode(w.Bytes())
	require.NoError(t, err)
	require.Equal(t, Try, ins[0].Op)
	ti := ins[0].Try
	require.NotNil(t, ti)
	require.True(t, ti.HasCatch)
	require.False(t, ti.HasFinally)
	require.False(t, ti.CatchInReg)
	require.Equal(t, "err", ti.CatchName)
	require.Equal(t, try.Len(), ti.TrySize)
	require.Equal(t, catch.Len(), ti.CatchSize)
	require.Equal(t, 0, ti.FinallySize)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		code []byte
	}{
		{"truncated header", []byte{0x96, 0x04}},
		{"truncated payload", []byte{0x96, 0x04, 0x00, 0x00}},
		{"unterminated push string", []byte{0x96, 0x02, 0x00, 0x00, 'x'}},
		{"bad branch operand", []byte{0x99, 0x01, 0x00, 0x05}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Decode(c.code)
			require.Error(t, err)
		})
	}
}

func TestDasm(t *testing.T) {
	var w Writer
	w.Push(Str("hi"))
	w.Action(Trace)
	w.Push(Int(2), Bool(true))
	w.If(5)
	w.Jump(-18)
	w.StoreRegister(1)

	got, err := Dasm(w.Bytes())
	require.NoError(t, err)
	require.Equal(t, `push string "hi"
trace
push int 2, true
if 5
jump -18
storeregister 1
`, got)
}

func TestDasmFunctionAndTry(t *testing.T) {
	var body Writer
	body.Action(Stop)

	var w Writer
	w.DefineFunction("f", []string{"a"}, body.Bytes())
	w.Try(TryBlock{HasCatch: true, CatchInReg: true, CatchReg: 9})

	got, err := Dasm(w.Bytes())
	require.NoError(t, err)
	require.Equal(t, `definefunction "f" (a) 1
stop
try 0 0 0 register 9
`, got)
}
