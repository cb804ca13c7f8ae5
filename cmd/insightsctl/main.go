// Command insightsctl runs Store Doctor and Blue Ocean analyses from a shell.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"steam-insights-backend/cmd/insightsctl/commands"
	"steam-insights-backend/internal/shared/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli := commands.New(config.Load(), os.Stdout)
	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
