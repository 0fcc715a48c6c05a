// Command reqfluxd runs the async HTTP request orchestrator.
package main

import (
	"fmt"
	"os"

	"github.com/reqflux/reqflux/cmd/reqfluxd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
