// Command stakegov runs the staking and governance ledger.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/stakegov/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "stakegov: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
