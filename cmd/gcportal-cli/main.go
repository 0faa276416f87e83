// Package main provides the entry point for gcportal-cli.
package main

import (
	"os"

	"github.com/gophercraft/gcportal-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		command.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
