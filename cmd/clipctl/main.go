// Package main is the entry point for clipctl, the command-line client of the clip server.
package main

import (
	"os"

	"github.com/codebuildervaibhav/topic-clipper/cmd/clipctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
