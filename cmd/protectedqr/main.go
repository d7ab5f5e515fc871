package main

import (
	"fmt"
	"os"

	"github.com/cristianadrielbraun/protectedqr/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	code := cli.GetExitCode(err)
	// result output already went to stdout; only command errors need a line here
	if code == cli.ExitCommandError {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}
