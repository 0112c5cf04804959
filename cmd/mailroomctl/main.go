// Package main is mailroomctl, a scripting CLI over the mailing backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/keyxmakerx/mailroom/internal/cli"
	"github.com/keyxmakerx/mailroom/internal/config"
	"github.com/keyxmakerx/mailroom/internal/plugins/contacts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(cli.Config{
		BackendURL: cfg.Backend.URL,
		JWTSecret:  cfg.Backend.JWTSecret,
		Operator:   cfg.Auth.OperatorEmail,
		PageSize:   cfg.Backend.PageSize,
		Limits: contacts.ImportLimits{
			MaxSize:    cfg.Upload.MaxSize,
			Extensions: cfg.Upload.AllowedExtensions,
		},
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cli.ErrorMessage(err))
		os.Exit(1)
	}
}
