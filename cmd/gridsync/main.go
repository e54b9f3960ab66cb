// Package main provides the gridsync CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/gridsync/gridsync/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
