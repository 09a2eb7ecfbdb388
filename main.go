package main

import (
	"os"

	"github.com/pullman-cli/pullman/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
