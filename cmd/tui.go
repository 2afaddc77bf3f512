package cmd

import (
	"cortex/internal/rag"
	"cortex/internal/tui"
)

func runTUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, closeStore, err := openService(cfg, true)
	if err != nil {
		return err
	}
	defer closeStore()

	return tui.Run(svc, rag.ChatOptions{
		UseRAG:        true,
		Workspace:     flagWorkspace,
		Limit:         cfg.Retrieval.Limit,
		MinSimilarity: cfg.Retrieval.MinSimilarity,
	})
}
