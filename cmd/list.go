package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/meghashyamc/folio/content"
	"github.com/meghashyamc/folio/services/library"
	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		collectionName string
		limit          int
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List published documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, collection, err := openCollection(opts, collectionName)
			if err != nil {
				return err
			}
			defer lib.Close()

			var documents []content.Document
			if limit > 0 {
				documents, err = collection.Recent(cmd.Context(), limit)
			} else {
				documents, err = collection.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tSLUG\tTITLE\tREADING TIME")
			for _, doc := range documents {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", doc.Date, doc.Slug, doc.Title, doc.ReadingTime.Text)
			}
			return w.Flush()
		},
	}

	listCmd.Flags().StringVarP(&collectionName, "collection", "c", library.BlogCollection, "collection to list (blog or projects)")
	listCmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of documents to list, 0 for all")

	return listCmd
}
