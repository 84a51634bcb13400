package main

import (
	"os"

	"github.com/flanksource/scanhub/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
