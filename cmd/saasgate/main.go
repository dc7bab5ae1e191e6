// Command saasgate serves plan-based feature entitlements for the demo SaaS
// dashboard and ships a few operator helpers around the same catalog.
package main

import (
	"fmt"
	"os"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
