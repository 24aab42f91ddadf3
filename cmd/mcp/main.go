// File: cmd/mcp/main.go
// Standalone MCP server binary. It is equivalent to "aiqa mcp" and accepts the
// same flags.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/aiqa-cli/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteArgs(ctx, append([]string{"mcp"}, os.Args[1:]...)); err != nil {
		stop()
		os.Exit(1)
	}
}
