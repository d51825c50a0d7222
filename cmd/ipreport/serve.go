// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/siemens/ipreport/pipeline"
	"github.com/siemens/ipreport/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var listen *string
	serveCmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "serves report submissions and downloads via HTTP",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = *listen
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return Serve(ctx)
		},
	}
	listen = serveCmd.Flags().String("listen", "", "HTTP listen address (default from configuration)")
	return serveCmd
}

// Serve report submissions until the context is done. All runs share the
// same rate limit, as they share the same lookup service.
func Serve(ctx context.Context) error {
	pl, err := pipeline.New(ctx, cfg, pipeline.WithSharedPacing())
	if err != nil {
		return err
	}
	defer pl.Close()
	return server.Serve(ctx, cfg.Server.Listen, server.New(pl))
}
