// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/vk/stencilgo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("stencilgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
stencilgo - A stencil composition and execution engine.

Usage:
  stencilgo [options] [PROGRAM_PATH...]

Arguments:
  PROGRAM_PATH
    Path to a program file (.hcl, .yaml, .yml) or a directory containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	programFlag := flagSet.String("program", "", "Path to the program file or directory.")
	pFlag := flagSet.String("p", "", "Path to the program file or directory (shorthand).")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	backendFlag := flagSet.String("backend", "block", "Execution backend. Options: 'naive' or 'block'.")
	workersFlag := flagSet.Int("workers", runtime.GOMAXPROCS(0), "Number of workers of the block backend.")
	tileIFlag := flagSet.Int("tile-i", 8, "Tile size along i for the block backend.")
	tileJFlag := flagSet.Int("tile-j", 8, "Tile size along j for the block backend.")
	debugFlag := flagSet.Bool("debug", false, "Check every field access against the declared extents.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	switch {
	case *programFlag != "":
		paths = append(paths, *programFlag)
	case *pFlag != "":
		paths = append(paths, *pFlag)
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Program paths determined.", "paths", paths)

	if len(paths) == 0 {
		slog.Debug("No program path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		ProgramPaths:    paths,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       strings.ToLower(*logFormatFlag),
		LogLevel:        strings.ToLower(*logLevelFlag),
		Backend:         strings.ToLower(*backendFlag),
		Workers:         *workersFlag,
		TileI:           *tileIFlag,
		TileJ:           *tileJFlag,
		Debug:           *debugFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
