// Package maincmd implements the asc command-line interface: compile a
// source file into a single-frame SWF movie, or print the token stream
// or disassembled action stream for inspection.
package maincmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/asc-lang/asc/lang/scanner"
	"github.com/mna/mainer"
)

const (
	binName = "asc"
	outName = "test.swf" // always written to the working directory
)

var usage = fmt.Sprintf("Usage: %s <file.as>\n", binName)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`
	Tokens  bool `flag:"tokens"`
	Dasm    bool `flag:"dasm"`

	args  []string
	flags map[string]bool
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.flags["tokens"] && c.flags["dasm"] {
		return errors.New("only one of --tokens and --dasm may be set")
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, usage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, usage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	if len(c.args) == 0 {
		fmt.Fprint(stdio.Stdout, usage)
		return mainer.Success
	}

	file := c.args[0]
	var err error
	switch {
	case c.Tokens:
		err = TokenizeFile(stdio, file)
	case c.Dasm:
		err = DasmFile(stdio, file)
	default:
		err = CompileFile(stdio, file, outName)
	}
	if err != nil {
		// errors have already been printed
		return mainer.Failure
	}
	return mainer.Success
}

// renderError prints a compile error as path:line:col with the
// offending source line and a caret under the column. Errors with no
// position (driver failures) print on a single line.
func renderError(w io.Writer, path, source string, err error) {
	var cerr *scanner.Error
	if !errors.As(err, &cerr) || cerr.Line == 0 {
		fmt.Fprintf(w, "%s: %s\n", path, err)
		return
	}
	var line string
	if lines := strings.Split(source, "\n"); cerr.Line-1 < len(lines) {
		line = strings.TrimSuffix(lines[cerr.Line-1], "\r")
	}
	fmt.Fprintf(w, "%s:%d:%d: %s:\n\t%s\n\t%s^\n",
		path, cerr.Line, cerr.Col, cerr.Message, line, strings.Repeat(" ", cerr.Col-1))
}
