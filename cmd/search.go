package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagLimit         int
	flagMinSimilarity float64
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index by semantic similarity",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, closeStore, err := openService(cfg, true)
		if err != nil {
			return err
		}
		defer closeStore()

		minSim := flagMinSimilarity
		if minSim <= 0 {
			minSim = cfg.Retrieval.MinSimilarity
		}
		limit := flagLimit
		if limit <= 0 {
			limit = cfg.Retrieval.Limit
		}

		results, err := svc.Search(cmd.Context(), query, flagWorkspace, limit, minSim)
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("No results.")
			return nil
		}

		for i, r := range results {
			fmt.Printf("%d. %s (similarity %.3f, chunk %d)\n", i+1, r.SourcePath, r.Similarity, r.ChunkID)
			snippet := r.Snippet
			if len(snippet) > 300 {
				snippet = snippet[:300] + "..."
			}
			fmt.Printf("   %s\n\n", strings.ReplaceAll(snippet, "\n", "\n   "))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum results (default from config)")
	searchCmd.Flags().Float64Var(&flagMinSimilarity, "min-similarity", 0, "minimum cosine similarity to include a result")
	rootCmd.AddCommand(searchCmd)
}
