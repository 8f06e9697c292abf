package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"research-agent/internal/application/port/output"
	"research-agent/internal/di"
	"research-agent/internal/usecase/research"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newResearchCmd(opts *rootOptions, e output.ConfigPort) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "research [query]",
		Short: "Research a topic and write report.md",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := di.NewContainer(ctx, opts.containerConfig(query, !quiet), e)
			if err != nil {
				return err
			}
			defer c.Close()

			agent := c.NewAgent()
			context.AfterFunc(ctx, agent.Stop)

			path, err := agent.Research(ctx, query, opts.outputDir)
			if errors.Is(err, research.ErrStopped) {
				color.New(color.FgYellow).Fprintln(cmd.ErrOrStderr(), "Research stopped.")
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			color.New(color.FgGreen, color.Bold).Fprintf(out, "\nReport saved to %s\n\n", path)
			if !quiet {
				fmt.Fprintln(out, research.ReadFileContent(path))
			}
			color.New(color.Faint).Fprintf(out, "Files in %s:\n%s\n", filepath.Dir(path), research.ListDirectoryContents(filepath.Dir(path)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no progress output, no questions, only the report path")
	return cmd
}
