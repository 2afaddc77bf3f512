package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"cortex/internal/ingest"
	"cortex/internal/rag"

	"github.com/spf13/cobra"
)

var (
	flagReplace   bool
	flagChunkSize int
	flagOverlap   int
	flagWorkers   int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Ingest a document or directory into the index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if flagChunkSize > 0 {
			cfg.Chunker.ChunkSize = flagChunkSize
		}
		if flagOverlap >= 0 {
			cfg.Chunker.Overlap = flagOverlap
		}

		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}

		svc, closeStore, err := openService(cfg, false)
		if err != nil {
			return err
		}
		defer closeStore()

		info, err := os.Stat(root)
		if err != nil {
			return err
		}

		fmt.Printf("Ingesting %s...\n", root)
		start := time.Now()

		var stats *ingest.Stats
		if info.IsDir() {
			stats, err = ingest.Run(cmd.Context(), root, svc, ingest.Config{
				Workspace: flagWorkspace,
				Replace:   flagReplace,
				Workers:   flagWorkers,
			}, func(path string, ingested, total int) {
				fmt.Printf("  [%d/%d] %s\n", ingested, total, path)
			})
		} else {
			stats, err = ingestOne(cmd, root, svc)
		}
		elapsed := time.Since(start)

		if stats != nil {
			fmt.Printf("\nDone in %s\n", elapsed.Round(time.Millisecond))
			fmt.Printf("  Files:   %d total, %d ingested, %d skipped, %d failed\n",
				stats.FilesTotal, stats.FilesIngested, stats.FilesSkipped, stats.FilesFailed)
			fmt.Printf("  Chunks:  %d\n", stats.ChunksTotal)
		}

		return err
	},
}

func ingestOne(cmd *cobra.Command, path string, svc *rag.Service) (*ingest.Stats, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	res, err := svc.Ingest(cmd.Context(), path, raw, "", flagWorkspace, flagReplace)
	if err != nil {
		return &ingest.Stats{FilesTotal: 1, FilesFailed: 1}, err
	}
	return &ingest.Stats{FilesTotal: 1, FilesIngested: 1, ChunksTotal: res.ChunkCount}, nil
}

func init() {
	ingestCmd.Flags().BoolVar(&flagReplace, "replace", false, "replace sources that are already ingested")
	ingestCmd.Flags().IntVar(&flagChunkSize, "chunk-size", 0, "chunk size in words (default from config)")
	ingestCmd.Flags().IntVar(&flagOverlap, "overlap", -1, "chunk overlap in words (default from config)")
	ingestCmd.Flags().IntVar(&flagWorkers, "workers", runtime.NumCPU(), "parallel workers")
	rootCmd.AddCommand(ingestCmd)
}
