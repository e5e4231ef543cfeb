package cmd

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/nextgensultan/agentic-policybased-chatbot/agent/policy"
)

func indexCmd() *cobra.Command {
	var (
		query string
		topK  int
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the policy index and print its chunks or search it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadAppConfig()
			if err != nil {
				return err
			}
			a := &app{cfg: cfg}
			defer a.Close()

			index, err := a.buildIndex(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if strings.TrimSpace(query) == "" {
				printChunks(out, index.Chunks())
				return nil
			}

			hits, err := index.Search(ctx, query, topK)
			if err != nil {
				return err
			}
			printHits(out, hits)
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "search the index instead of listing chunks")
	cmd.Flags().IntVarP(&topK, "top-k", "k", policy.DefaultTopK, "number of results for --query")
	return cmd
}

func printChunks(w io.Writer, chunks []policy.Chunk) {
	for _, c := range chunks {
		fmt.Fprintf(w, "#%d %s (%s) %d runes\n%s\n\n", c.Position, c.Source, c.Title, utf8.RuneCountInString(c.Content), c.Content)
	}
	fmt.Fprintf(w, "%d chunks\n", len(chunks))
}

func printHits(w io.Writer, hits []policy.Hit) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "no matches")
		return
	}
	for i, h := range hits {
		fmt.Fprintf(w, "%d. [%.4f] %s #%d\n%s\n\n", i+1, h.Score, h.Source, h.Position, h.Content)
	}
}
