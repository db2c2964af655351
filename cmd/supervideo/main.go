// Package main is the entry point for the supervideo application.
package main

import (
	"os"

	"github.com/jmylchreest/supervideo/cmd/supervideo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
