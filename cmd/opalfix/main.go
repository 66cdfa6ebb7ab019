package main

import (
	"os"

	"github.com/sievelabs/opalfix/cmd/opalfix/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
