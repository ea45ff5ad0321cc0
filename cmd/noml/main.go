// Command noml is the reference CLI for the NOML configuration language:
// validate and parse NOML documents from the shell.
package main

import (
	"os"

	"github.com/noml-lang/noml-go/cmd/noml/cmd"
)

func main() {
	if err := cmd.Root().Execute(); err != nil {
		os.Exit(1)
	}
}
