package cmd

import (
	"fmt"
	"os"

	"cortex/internal/config"
	"cortex/internal/domain"
	"cortex/internal/embedder"
	"cortex/internal/llm"
	"cortex/internal/rag"
	"cortex/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagDB        string
	flagOllama    string
	flagModel     string
	flagChatModel string
	flagWorkspace string
)

var rootCmd = &cobra.Command{
	Use:   "cortex",
	Short: "Local document intelligence powered by RAG",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ./cortex.yaml, then ~/.config/cortex/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default .cortex/index.db)")
	rootCmd.PersistentFlags().StringVar(&flagOllama, "ollama", "", "ollama base URL")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "embedding model")
	rootCmd.PersistentFlags().StringVar(&flagChatModel, "chat-model", "", "generative model for chat")
	rootCmd.PersistentFlags().StringVar(&flagWorkspace, "workspace", "", "workspace scope for ingestion and search")
}

// loadConfig resolves the effective configuration: file values overridden by
// any flags the user set.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if flagOllama != "" {
		cfg.Embedder.BaseURL = flagOllama
		cfg.Chat.BaseURL = flagOllama
	}
	if flagModel != "" {
		cfg.Embedder.Model = flagModel
	}
	if flagChatModel != "" {
		cfg.Chat.Model = flagChatModel
	}
	return cfg, nil
}

func buildEmbedder(cfg *config.Config) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "", "ollama":
		return embedder.NewOllama(cfg.Embedder.BaseURL, cfg.Embedder.Model, cfg.Embedder.Dimension), nil
	case "openai":
		key := os.Getenv(cfg.Embedder.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("embedder: %s is not set", cfg.Embedder.APIKeyEnv)
		}
		return embedder.NewOpenAI(cfg.Embedder.BaseURL, key, cfg.Embedder.Model, cfg.Embedder.Dimension), nil
	default:
		return nil, fmt.Errorf("embedder: unknown type %q", cfg.Embedder.Type)
	}
}

// openService wires the store, embedder and streamer into a rag.Service.
// mustExist rejects a missing database instead of creating an empty one.
func openService(cfg *config.Config, mustExist bool) (*rag.Service, func() error, error) {
	if mustExist {
		if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("index not found at %s\nRun 'cortex ingest <path>' first to build the index", cfg.DBPath)
		}
	}

	emb, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(cfg.DBPath, emb.Dimension())
	if err != nil {
		return nil, nil, fmt.Errorf("open index: %w", err)
	}

	svc := rag.NewService(rag.Config{
		Store:     st,
		Embedder:  emb,
		Streamer:  llm.NewOllama(cfg.Chat.BaseURL, cfg.Chat.Model),
		ChunkSize: cfg.Chunker.ChunkSize,
		Overlap:   cfg.Chunker.Overlap,
	})
	return svc, st.Close, nil
}
