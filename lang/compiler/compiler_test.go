package compiler_test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/asc-lang/asc/internal/filetest"
	"github.com/asc-lang/asc/internal/maincmd"
	"github.com/asc-lang/asc/lang/avm1"
	"github.com/asc-lang/asc/lang/compiler"
	"github.com/asc-lang/asc/lang/scanner"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"
)

var testUpdateCompilerTests = flag.Bool("test.update-compiler-tests", false, "If set, replace expected compiler test results with actual results.")

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

// compile compiles src and returns the decoded instruction stream.
func compile(t *testing.T, src string) []avm1.Instr {
	t.Helper()

	b, err := compiler.Compile(src)
	require.NoError(t, err)
	ins, err := avm1.Decode(b)
	require.NoError(t, err)
	return ins
}

func opsOf(ins []avm1.Instr) []avm1.Opcode {
	ops := make([]avm1.Opcode, len(ins))
	for i, in := range ins {
		ops[i] = in.Op
	}
	return ops
}

// compileErr compiles src and returns the expected failure.
func compileErr(t *testing.T, src string) *scanner.Error {
	t.Helper()

	_, err := compiler.Compile(src)
	require.Error(t, err)
	var serr *scanner.Error
	require.ErrorAs(t, err, &serr)
	return serr
}

func TestCompileEmpty(t *testing.T) {
	b, err := compiler.Compile("")
	require.NoError(t, err)
	require.Empty(t, b)
}

func TestTraceStatement(t *testing.T) {
	ins := compile(t, `trace("hi");`)
	require.Equal(t, []avm1.Opcode{avm1.Push, avm1.Trace}, opsOf(ins))
	require.Equal(t, []avm1.Value{avm1.Str("hi")}, ins[0].Values)
}

func TestVarDeclaration(t *testing.T) {
	ins := compile(t, `var x = 1 + 2;`)
	require.Equal(t, []avm1.Opcode{
		avm1.Push, avm1.Push, avm1.Push, avm1.Add2, avm1.DefineLocal,
	}, opsOf(ins))
	require.Equal(t, []avm1.Value{avm1.Str("x")}, ins[0].Values)
	require.Equal(t, []avm1.Value{avm1.Int(1)}, ins[1].Values)
	require.Equal(t, []avm1.Value{avm1.Int(2)}, ins[2].Values)
}

func TestVarDeclarationNoInit(t *testing.T) {
	ins := compile(t, `var x;`)
	require.Equal(t, []avm1.Opcode{avm1.Push, avm1.DefineLocal2}, opsOf(ins))
}

func TestAssignStatement(t *testing.T) {
	ins := compile(t, `x = x + 1;`)
	require.Equal(t, []avm1.Opcode{
		avm1.Push, avm1.Push, avm1.GetVariable,
		avm1.Push, avm1.Add2, avm1.SetVariable, avm1.Pop,
	}, opsOf(ins))
	require.Equal(t, []avm1.Value{avm1.Str("x")}, ins[0].Values)
	require.Equal(t, []avm1.Value{avm1.Str("x")}, ins[1].Values)
}

func TestExpressionStatementEndsWithPop(t *testing.T) {
	for _, src := range []string{
		`x;`, `1;`, `"s";`, `f();`, `o.m(1);`, `a + b;`, `x = 1;`, `stop();`,
	} {
		ins := compile(t, src)
		require.Equal(t, avm1.Pop, ins[len(ins)-1].Op, "source %s", src)

		pops := 0
		for _, in := range ins {
			if in.Op == avm1.Pop {
				pops++
			}
		}
		require.Equal(t, 1, pops, "source %s", src)
	}
}

func TestIfStatement(t *testing.T) {
	ins := compile(t, `if (x) trace(x);`)
	require.Equal(t, []avm1.Opcode{
		avm1.Push, avm1.GetVariable, avm1.Not, avm1.If,
		avm1.Push, avm1.GetVariable, avm1.Trace,
	}, opsOf(ins))

	last := ins[len(ins)-1]
	end := last.Offset + last.Size
	require.Equal(t, end, ins[3].Target())
}

func TestIfElseStatement(t *testing.T) {
	ins := compile(t, `if (x) trace(x); else trace(0);`)
	require.Equal(t, []avm1.Opcode{
		avm1.Push, avm1.GetVariable, avm1.Not, avm1.If,
		avm1.Push, avm1.GetVariable, avm1.Trace, avm1.Jump,
		avm1.Push, avm1.Trace,
	}, opsOf(ins))

	// the If branch lands on the else body, the then branch's trailing
	// Jump lands past the end
	require.Equal(t, ins[8].Offset, ins[3].Target())
	last := ins[len(ins)-1]
	require.Equal(t, last.Offset+last.Size, ins[7].Target())
}

func TestWhileStatement(t *testing.T) {
	ins := compile(t, `while (x) trace(x);`)
	require.Equal(t, []avm1.Opcode{
		avm1.Push, avm1.GetVariable, avm1.Not, avm1.If,
		avm1.Push, avm1.GetVariable, avm1.Trace, avm1.Jump,
	}, opsOf(ins))

	last := ins[len(ins)-1]
	end := last.Offset + last.Size
	require.Equal(t, end, ins[3].Target())
	// the back jump lands on the start of the condition
	require.Equal(t, 0, ins[7].Target())
}

func TestNestedWhileOffsets(t *testing.T) {
	ins := compile(t, `while (a) while (b) trace(0);`)

	var jumps []avm1.Instr
	for _, in := range ins {
		if in.Op == avm1.Jump {
			jumps = append(jumps, in)
		}
	}
	require.Len(t, jumps, 2)
	// the inner loop jumps back to its own condition, the outer to
	// offset 0
	require.Equal(t, ins[4].Offset, jumps[0].Target())
	require.Equal(t, 0, jumps[1].Target())
}

func TestBlockStatement(t *testing.T) {
	ins := compile(t, `{ trace(1); trace(2); }`)
	require.Equal(t, []avm1.Opcode{
		avm1.Push, avm1.Trace, avm1.Push, avm1.Trace,
	}, opsOf(ins))
}

func TestFunctionDeclaration(t *testing.T) {
	ins := compile(t, `function f(a, b) { trace(a); }`)
	require.Equal(t, []avm1.Opcode{
		avm1.DefineFunc, avm1.Push, avm1.GetVariable, avm1.Trace,
	}, opsOf(ins))
	require.Equal(t, "f", ins[0].Name)
	require.Equal(t, []string{"a", "b"}, ins[0].Params)

	last := ins[len(ins)-1]
	bodyLen := last.Offset + last.Size - (ins[0].Offset + ins[0].Size)
	require.Equal(t, bodyLen, ins[0].BodySize)
}

func TestFunctionExpression(t *testing.T) {
	ins := compile(t, `var f = function(a) { trace(a); };`)
	require.Equal(t, []avm1.Opcode{
		avm1.Push, avm1.DefineFunc, avm1.Push, avm1.GetVariable,
		avm1.Trace, avm1.DefineLocal,
	}, opsOf(ins))
	require.Equal(t, "", ins[1].Name)
	require.Equal(t, []string{"a"}, ins[1].Params)
}

func TestTryCatchFinally(t *testing.T) {
	ins := compile(t, `try { trace(1); } catch (e) { trace(2); } finally { trace(3); }`)
	require.Equal(t, []avm1.Opcode{
		avm1.Try,
		avm1.Push, avm1.Trace,
		avm1.Push, avm1.Trace,
		avm1.Push, avm1.Trace,
	}, opsOf(ins))

	ti := ins[0].Try
	require.NotNil(t, ti)
	require.True(t, ti.HasCatch)
	require.True(t, ti.HasFinally)
	require.False(t, ti.CatchInReg)
	require.Equal(t, "e", ti.CatchName)

	bodyLen := ins[2].Offset + ins[2].Size - ins[1].Offset
	require.Equal(t, bodyLen, ti.TrySize)
	require.Equal(t, bodyLen, ti.CatchSize)
	require.Equal(t, bodyLen, ti.FinallySize)
}

func TestTryCatchRegister(t *testing.T) {
	ins := compile(t, `try { trace(1); } catch (register1) { }`)
	ti := ins[0].Try
	require.NotNil(t, ti)
	require.True(t, ti.HasCatch)
	require.True(t, ti.CatchInReg)
	require.Equal(t, uint8(1), ti.CatchReg)
	require.False(t, ti.HasFinally)
	require.Equal(t, 0, ti.CatchSize)
}

func TestTryFinallyOnly(t *testing.T) {
	ins := compile(t, `try { trace(1); } finally { trace(2); }`)
	ti := ins[0].Try
	require.NotNil(t, ti)
	require.False(t, ti.HasCatch)
	require.True(t, ti.HasFinally)
}

func TestDeterministicOutput(t *testing.T) {
	const src = `
		var total = 0;
		while (total < 10) { total += 1; }
		if (total == 10) trace("done"); else trace(total);
		function f(a) { return_value = a; }
	`
	first, err := compiler.Compile(src)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := compiler.Compile(src)
		require.NoError(t, err)
		require.True(t, bytes.Equal(first, again))
	}
}

func TestDasmSnapshots(t *testing.T) {
	sources := map[string]string{
		"counter":  `var i = 0; while (i < 3) { trace(i); i += 1; }`,
		"members":  `o.m(1, 2); o._x = 5; o[k] = "v";`,
		"builtins": `trace(chr(random(26) + 65)); stop();`,
		"guarded":  `try { throw "boom"; } catch (e) { trace(e); }`,
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			b, err := compiler.Compile(src)
			require.NoError(t, err)
			listing, err := avm1.Dasm(b)
			require.NoError(t, err)
			snaps.MatchSnapshot(t, listing)
		})
	}
}

func TestCompileFixtures(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".as") {
		t.Run(fi.Name(), func(t *testing.T) {
			var buf, ebuf bytes.Buffer
			stdio := mainer.Stdio{
				Stdout: &buf,
				Stderr: &ebuf,
			}

			// error is ignored, we just want it printed to ebuf
			_ = maincmd.DasmFile(stdio, filepath.Join(srcDir, fi.Name()))
			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateCompilerTests)
			filetest.DiffErrors(t, fi, ebuf.String(), resultDir, testUpdateCompilerTests)
		})
	}
}
