// Command captable edits a cap table kept in a YAML file. Every change
// runs through the same engine the service uses, so dilution,
// redistribution and rounding match what a server would commit.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "captable:", err)
		os.Exit(1)
	}
}
