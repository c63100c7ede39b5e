package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sdejongh/foldersync/internal/cli"
	"github.com/sdejongh/foldersync/pkg/models"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCommand()
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		if cmd == nil {
			cmd = rootCmd
		}
		fmt.Fprintln(os.Stderr)
		fmt.Fprint(os.Stderr, cmd.UsageString())
		return 2
	}
	return 1
}
