package main

import (
	"os"

	"github.com/idozri/vidto-listen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
