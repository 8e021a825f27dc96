package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/deepxiv/deepxiv-go/reader"
)

var paperCmd = &cobra.Command{
	Use:   "paper <arxiv-id>",
	Short: "Fetch a paper's metadata, a section, a preview, or its full text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newReader(cmd)
		if err != nil {
			return err
		}
		arxivID := args[0]

		if section, _ := cmd.Flags().GetString("section"); section != "" {
			content, err := r.Section(cmd.Context(), arxivID, section)
			if err != nil {
				return err
			}
			fmt.Println(content)
			return nil
		}

		if preview, _ := cmd.Flags().GetBool("preview"); preview {
			p, err := r.Preview(cmd.Context(), arxivID)
			if err != nil {
				return err
			}
			fmt.Println(p.Content)
			if p.IsTruncated {
				fmt.Fprintf(os.Stderr, "\n[preview truncated: %d of %d characters]\n",
					p.PreviewCharacters, p.TotalCharacters)
			}
			return nil
		}

		if full, _ := cmd.Flags().GetBool("full"); full {
			content, err := r.Raw(cmd.Context(), arxivID)
			if err != nil {
				return err
			}
			fmt.Println(content)
			return nil
		}

		if url, _ := cmd.Flags().GetBool("markdown-url"); url {
			fmt.Println(r.MarkdownURL(arxivID))
			return nil
		}

		head, err := r.Head(cmd.Context(), arxivID)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(head)
		}

		printPaperHead(head)
		return nil
	},
}

func printPaperHead(head *reader.PaperHead) {
	fmt.Printf("Title: %s\n", head.Title)
	fmt.Printf("arXiv: %s\n", head.ArxivID)
	if names := head.Authors.Names(); names != "" {
		fmt.Printf("Authors: %s\n", names)
	}
	if head.PublishAt != "" {
		fmt.Printf("Published: %s\n", head.PublishAt)
	}
	fmt.Printf("Tokens: %d\n", head.TokenCount)
	fmt.Printf("\nAbstract:\n%s\n", head.Abstract)

	if len(head.Sections) == 0 {
		return
	}
	names := make([]string, 0, len(head.Sections))
	for name := range head.Sections {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return head.Sections[names[i]].Idx < head.Sections[names[j]].Idx
	})

	fmt.Println("\nSections:")
	for _, name := range names {
		info := head.Sections[name]
		fmt.Printf("  %d. %s (%d tokens)\n", info.Idx, name, info.TokenCount)
		if info.TLDR != "" {
			fmt.Printf("     %s\n", info.TLDR)
		}
	}
}

func init() {
	paperCmd.Flags().String("section", "", "print one section's text")
	paperCmd.Flags().Bool("preview", false, "print a short preview of the paper")
	paperCmd.Flags().Bool("full", false, "print the paper's full markdown text")
	paperCmd.Flags().Bool("markdown-url", false, "print the paper's markdown download URL")
	paperCmd.Flags().Bool("json", false, "output metadata as JSON")

	rootCmd.AddCommand(paperCmd)
}
