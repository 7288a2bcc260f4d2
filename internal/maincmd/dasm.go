package maincmd

import (
	"fmt"

	"github.com/asc-lang/asc/lang/avm1"
	"github.com/mna/mainer"
)

// DasmFile compiles path and prints the disassembled action stream
// instead of writing a movie.
func DasmFile(stdio mainer.Stdio, path string) error {
	source, err := readSource(stdio, path)
	if err != nil {
		return err
	}
	actions, err := compileSource(stdio, path, source)
	if err != nil {
		return err
	}
	listing, err := avm1.Dasm(actions)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return err
	}
	fmt.Fprint(stdio.Stdout, listing)
	return nil
}
