package main

import (
	"os"

	"github.com/septivank/environment-monitor/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
