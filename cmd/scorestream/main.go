// Command scorestream explains the demo constraint plans and runs scoring
// scenarios against the reference engine.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/scorestream/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
