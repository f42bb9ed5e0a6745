package main

import (
	"github.com/meghashyamc/folio/api"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `The serve command loads both collections and serves the HTTP API until it
is interrupted. With cache.watch enabled, edits to the content directories
are picked up immediately instead of when the cache expires.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return api.Run(cmd.Context(), opts.cfg)
		},
	}
}
