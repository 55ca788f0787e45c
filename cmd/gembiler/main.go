// Command gembiler is the CLI driver for the compiler: compile, run,
// disasm, watch, serve, and debug subcommands, grounded on the reference
// compiler's cobra-subcommand-per-Command structure and its -o/--output
// flag convention.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:     "gembiler",
		Short:   "Compiler and VM for the accumulator-machine source language",
		Version: version,
	}

	root.AddCommand(
		newCompileCmd(),
		newRunCmd(),
		newDisasmCmd(),
		newWatchCmd(),
		newServeCmd(),
		newDebugCmd(),
	)

	if err := root.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprint("error: ")+err.Error())
}
