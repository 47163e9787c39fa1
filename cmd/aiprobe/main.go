package main

import (
	"os"

	"github.com/bitop-dev/aiprobe/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
