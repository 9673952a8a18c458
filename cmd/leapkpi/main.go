// Package main provides the CLI for LeapKPI, the facility KPI benchmarking engine.
package main

import (
	"os"

	"github.com/leapstack-labs/leapkpi/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
