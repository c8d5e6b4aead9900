// Command gosdt-guesses is a thin CLI wrapper around Fit, in the spirit of
// the original's cli.cpp: give it a binarized dataset CSV (--data), and
// optionally a cost matrix (--cost) and a configuration file (--config),
// and it prints the result to stdout.
//
// Grounded on the original's cli.cpp (folder-of-files convention: a data
// CSV, a cost matrix, and config.json/config.toml) restructured onto
// spf13/cobra + BurntSushi/toml, the CLI stack the rest of the pack uses
// (matzehuels-stacktower's cmd/stacktower) instead of cli.cpp's bare
// argc/argv parsing.
package main

import (
	"fmt"
	"os"

	"github.com/vishalbelsare/gosdt-guesses/cmd/gosdt-guesses/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gosdt-guesses:", err)
		os.Exit(1)
	}
}
