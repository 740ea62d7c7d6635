// Package main provides the entry point for the squeaky CLI tool.
package main

import (
	"errors"
	"os"

	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/squeaky/cmd/squeaky/commands"
	"github.com/Sumatoshi-tech/squeaky/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := commands.NewRootCommand().Execute()
	if err == nil {
		return
	}

	code := 1

	var exitErr *commands.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}

	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(code)
}
