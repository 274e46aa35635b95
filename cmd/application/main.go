package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gowalmart_seller/config"
	"gowalmart_seller/internal/walmart/app"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %s\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %s\n", app.CmdName, err)
		os.Exit(1)
	}
	if err := a.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		if a.UsageError() {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
