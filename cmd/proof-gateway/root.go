package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "proof-gateway",
		Short:         "HTTP gateway that turns a problem and an axiom set into a constrained completion",
		SilenceUsage:  true,
		SilenceErrors: true,
		// sem subcomando = serve
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file (process env wins)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server.

SIGINT/SIGTERM trigger a graceful shutdown: the listener stops accepting,
in-flight requests get up to 10s to finish and the limiter janitor stops.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), envFile)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "proof-gateway %s (%s)\n", version, commit)
			return err
		},
	}

	root.AddCommand(serve, versionCmd)
	return root
}
