package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sourcegrep/sourcegrep/api/schemas"
	"github.com/sourcegrep/sourcegrep/cmd"
)

// Allows mocking os.Exit in tests.
var osExit = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		osExit(exitCode(err))
	}
}

// exitCode maps the run's outcome to a process exit status. Structured
// errors carry their own classification; anything else is a fatal failure.
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return schemas.ExitFatal
	}
	var se schemas.ScanError
	if errors.As(err, &se) && se.Code != schemas.ExitOK {
		return se.Code
	}
	return schemas.ExitFatal
}
