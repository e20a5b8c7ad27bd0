package main

import (
	"os"

	"github.com/iqtestim/iqadmin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
