// Package main provides the sqlmatch command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlmatch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
