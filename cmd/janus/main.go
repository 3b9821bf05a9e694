// Command janus runs the janus self-test specs.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/janus"
	"github.com/roach88/janus/internal/selftest"
)

func main() {
	reg := janus.NewRegistry()
	if err := selftest.Register(reg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	os.Exit(janus.Main(reg))
}
