package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deepxiv/deepxiv-go/reader"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search arXiv papers by topic, keywords, or authors",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newReader(cmd)
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		opts := reader.SearchOptions{}
		opts.Size, _ = cmd.Flags().GetInt("size")
		opts.Offset, _ = cmd.Flags().GetInt("offset")
		mode, _ := cmd.Flags().GetString("mode")
		opts.Mode = reader.SearchMode(mode)
		opts.Categories, _ = cmd.Flags().GetStringSlice("categories")
		opts.Authors, _ = cmd.Flags().GetStringSlice("authors")
		opts.DateFrom, _ = cmd.Flags().GetString("from")
		opts.DateTo, _ = cmd.Flags().GetString("to")
		if cmd.Flags().Changed("min-citation") {
			opts.MinCitation, _ = cmd.Flags().GetInt("min-citation")
			opts.HasMinCitation = true
		}

		resp, err := r.Search(cmd.Context(), query, opts)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		fmt.Printf("Found %d papers (%dms)\n\n", resp.Total, resp.Took)
		for i, hit := range resp.Results {
			fmt.Printf("%d. %s\n", opts.Offset+i+1, hit.Title)
			fmt.Printf("   arXiv: %s | score: %.3f | citations: %d\n", hit.ArxivID, hit.Score, hit.Citation)
			if names := hit.Authors.Names(); names != "" {
				fmt.Printf("   Authors: %s\n", names)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("size", 10, "number of results to return")
	searchCmd.Flags().Int("offset", 0, "pagination offset")
	searchCmd.Flags().String("mode", "hybrid", "search mode: hybrid, bm25, or vector")
	searchCmd.Flags().StringSlice("categories", nil, "filter by arXiv categories (e.g. cs.CL,cs.LG)")
	searchCmd.Flags().StringSlice("authors", nil, "filter by author names")
	searchCmd.Flags().Int("min-citation", 0, "minimum citation count")
	searchCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
