package maincmd

import (
	"fmt"
	"os"

	"github.com/asc-lang/asc/lang/compiler"
	"github.com/asc-lang/asc/lang/swf"
	"github.com/mna/mainer"
)

// CompileFile compiles path and writes the movie to outPath. Failures
// are printed to stdio.Stderr and returned.
func CompileFile(stdio mainer.Stdio, path, outPath string) error {
	source, err := readSource(stdio, path)
	if err != nil {
		return err
	}
	actions, err := compileSource(stdio, path, source)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "Cannot write %s: %s\n", outPath, err)
		return err
	}
	werr := swf.WriteMovie(f, actions)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		fmt.Fprintf(stdio.Stderr, "Cannot write %s: %s\n", outPath, werr)
		return werr
	}
	return nil
}

func readSource(stdio mainer.Stdio, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "Cannot read %s: %s\n", path, err)
		return "", err
	}
	return string(b), nil
}

func compileSource(stdio mainer.Stdio, path, source string) ([]byte, error) {
	actions, err := compiler.Compile(source)
	if err != nil {
		renderError(stdio.Stderr, path, source, err)
		return nil, err
	}
	return actions, nil
}
