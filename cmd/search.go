package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/meghashyamc/folio/services/library"
	"github.com/spf13/cobra"
)

const (
	searchModeLexical  = "lexical"
	searchModeFullText = "fulltext"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		collectionName string
		mode           string
		limit          int
	)

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a collection",
		Long: `Search ranks published documents against a query. The lexical mode scores
substring matches in titles, descriptions, tags and bodies. The fulltext
mode uses a stemmed index and supports "quoted phrases".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != searchModeLexical && mode != searchModeFullText {
				return fmt.Errorf("unknown search mode %q, expected %s or %s", mode, searchModeLexical, searchModeFullText)
			}
			query := strings.Join(args, " ")

			lib, collection, err := openCollection(opts, collectionName)
			if err != nil {
				return err
			}
			defer lib.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			if mode == searchModeFullText {
				results, err := collection.FullTextSearch(cmd.Context(), query, limit, 0)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "SCORE\tSLUG\tTITLE")
				for _, hit := range results.Hits {
					fmt.Fprintf(w, "%.3f\t%s\t%s\n", hit.Score, hit.Document.Slug, hit.Document.Title)
				}
				return w.Flush()
			}

			results, err := collection.Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "SCORE\tMATCH\tSLUG\tTITLE")
			for i, result := range results {
				if limit > 0 && i >= limit {
					break
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", result.RelevanceScore, result.MatchType, result.Document.Slug, result.Document.Title)
			}
			return w.Flush()
		},
	}

	searchCmd.Flags().StringVarP(&collectionName, "collection", "c", library.BlogCollection, "collection to search (blog or projects)")
	searchCmd.Flags().StringVarP(&mode, "mode", "m", searchModeLexical, "search mode (lexical or fulltext)")
	searchCmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")

	return searchCmd
}
