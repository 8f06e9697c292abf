package main

import (
	"os/signal"
	"syscall"

	"research-agent/internal/application/port/output"
	"research-agent/internal/di"
	"research-agent/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions, e output.ConfigPort) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API for background research runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := di.NewContainer(ctx, opts.containerConfig("serve", false), e)
			if err != nil {
				return err
			}
			defer c.Close()

			sessions, err := c.OpenSessions(ctx)
			if err != nil {
				return err
			}
			defer sessions.Wait()

			router := server.NewRouter(sessions, c.Registry, c.Logger)
			return server.Serve(ctx, addr, router, c.Logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", e.GetWithDefault("HTTP_ADDR", ":8080"), "listen address")
	return cmd
}
