// Package main is the entrypoint for workerctl, the operator CLI for the
// inference worker pool.
package main

import (
	"fmt"
	"os"

	"github.com/xxjiinn/medical-inference-platform/internal/workerctl/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
