// Package main is the entry point for the taskflow CLI.
package main

import (
	"fmt"
	"os"

	"github.com/runoshun/taskflow/internal/app"
	"github.com/runoshun/taskflow/internal/cli"
)

// version is set at build time using -ldflags.
var version = "dev"

// newRootCommand is a function variable for building the root command, allowing it to be replaced in tests.
var newRootCommand = cli.NewRootCommand

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg := app.DefaultConfig(cwd)
	cfg.Verbose = os.Getenv("TASKFLOW_VERBOSE") != ""

	container, err := app.NewWithConfig(cfg)
	if err != nil {
		// A broken config file must not lock the user out of help or the template.
		return runWithoutContainer(err)
	}
	defer func() { _ = container.Close() }()

	rootCmd := newRootCommand(container, version)
	return rootCmd.Execute()
}

// runWithoutContainer handles an initialization failure.
// Help, version and 'config template' still work; everything else reports initErr.
func runWithoutContainer(initErr error) error {
	if !canRunWithoutContainer(os.Args[1:]) {
		return fmt.Errorf("failed to initialize: %w", initErr)
	}
	return newRootCommand(nil, version).Execute()
}

func canRunWithoutContainer(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "help":
		return true
	case "config":
		return len(args) > 1 && args[1] == "template"
	}
	for _, arg := range args {
		if arg == "--version" || arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}
