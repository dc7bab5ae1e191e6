package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/saasgate/internal/config"
)

type rootOptions struct {
	envFiles []string
}

func (o *rootOptions) load() (config.Config, error) {
	return config.Load(o.envFiles...)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "saasgate",
		Short:         "Plan-based feature entitlements for the demo SaaS dashboard",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv file(s) to load before reading the environment (default .env)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newPlansCmd(),
		newCheckCmd(),
		newTokenCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "saasgate %s (%s)\n", Version, GitCommit)
		},
	}
}
