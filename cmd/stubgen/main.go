// Package main provides the stubgen CLI.
package main

import (
	"os"

	"github.com/example/stubgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
