package main

import (
	"fmt"
	"os"

	"research-agent/internal/application/port/output"
	"research-agent/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

// Version is set during build.
var Version = "dev"

func main() {
	root := newRootCmd(env.NewEnvService())
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(envSvc output.ConfigPort) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "agent",
		Short:         "Deep research agent",
		Long:          "Browses the web with an LLM-driven browser agent and writes markdown research reports.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.bind(root, envSvc)

	root.AddCommand(newResearchCmd(opts, envSvc))
	root.AddCommand(newServeCmd(opts, envSvc))
	return root
}
