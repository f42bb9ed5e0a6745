package main

import (
	"fmt"

	"github.com/meghashyamc/folio/config"
	"github.com/meghashyamc/folio/logger"
	"github.com/meghashyamc/folio/services/library"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	env string
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "folio",
		Short: "Serve and query a directory of blog posts and projects",
		Long: `folio loads Markdown documents with front matter from the blog and
projects directories, and serves them over an HTTP API with listing,
tag, related-content and search endpoints.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.env)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			opts.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.env, "env", "", "config environment to load, e.g. local or test (default is $ENV or local)")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newListCmd(opts),
		newSearchCmd(opts),
		newTagsCmd(opts),
	)

	return rootCmd
}

// openCollection opens the library for a one-shot command and resolves the
// requested collection. The caller must close the returned library.
func openCollection(opts *rootOptions, name string) (*library.Library, *library.Collection, error) {
	lib, err := library.Open(logger.NewWithLevel(opts.cfg.GetLogLevel()), opts.cfg)
	if err != nil {
		return nil, nil, err
	}
	collection, err := lib.Collection(name)
	if err != nil {
		_ = lib.Close()
		return nil, nil, err
	}
	return lib, collection, nil
}
