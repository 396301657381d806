package main

import (
	"os"

	"github.com/aleksaelezovic/xmpkit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
