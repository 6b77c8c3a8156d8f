// Package main is the entry point for the skilltheme application.
package main

import (
	"os"

	"github.com/skilltree/skilltheme/cmd/skilltheme/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
