// File: cmd/easel/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/easel-cli/cmd"
	"github.com/xkilldash9x/easel-cli/internal/observability"
)

// main is the entry point of the application.
func main() {
	os.Exit(run())
}

// run executes the CLI and maps the outcome to a process exit code: 0 when
// the requested file was written, 1 on any failure, including an interrupt
// that unwound the pipeline before completion.
func run() int {
	// Listen for interrupt signals (SIGINT, SIGTERM) so a Ctrl+C unwinds
	// through the standard teardown path instead of killing the browser
	// process tree abruptly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer observability.Sync()

	if err := cmd.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
