package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/meghashyamc/folio/services/library"
	"github.com/meghashyamc/folio/services/tags"
	"github.com/spf13/cobra"
)

func newTagsCmd(opts *rootOptions) *cobra.Command {
	var (
		collectionName string
		limit          int
	)

	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags by how many documents use them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, collection, err := openCollection(opts, collectionName)
			if err != nil {
				return err
			}
			defer lib.Close()

			var result []tags.Tag
			if limit > 0 {
				result, err = collection.PopularTags(cmd.Context(), limit)
			} else {
				result, err = collection.Tags(cmd.Context())
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COUNT\tTAG\tSLUG")
			for _, tag := range result {
				fmt.Fprintf(w, "%d\t%s\t%s\n", tag.Count, tag.Name, tag.Slug)
			}
			return w.Flush()
		},
	}

	tagsCmd.Flags().StringVarP(&collectionName, "collection", "c", library.BlogCollection, "collection to read (blog or projects)")
	tagsCmd.Flags().IntVarP(&limit, "limit", "n", tags.DefaultPopularLimit, "number of most used tags to list, 0 for all")

	return tagsCmd
}
