package main

import (
	"os"

	"github.com/ashureev/juice-coach/cmd/coach/commands"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// Errors are printed by the printer package with color formatting.
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
