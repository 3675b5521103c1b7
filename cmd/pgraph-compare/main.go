// Package main is the entry point for the pgraph-compare application
package main

import (
	"os"

	"github.com/abaire/pgraph-compare/cmd"
)

func main() {
	// No arguments launches the interactive TUI; anything else goes through
	// the cobra CLI.
	if len(os.Args) == 1 {
		cmd.InitLogger()
		runInteractive()
		return
	}

	cmd.Execute()
}
