// Command bake runs data transformation recipes.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/bake/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bake: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
