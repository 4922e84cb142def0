package main

import (
	"os"

	"github.com/spigell/career-path/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
