package main

import (
	"os"

	"github.com/openfluke/shuttle/cmd/shuttle/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
