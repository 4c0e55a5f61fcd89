// Package main provides the CLI for the ibsrecon reconciliation tool.
package main

import (
	"os"

	"github.com/statglass/ibsrecon/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
