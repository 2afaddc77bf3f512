package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"cortex/internal/llm"
	"cortex/internal/rag"

	"github.com/spf13/cobra"
)

var (
	flagNoRAG       bool
	flagRequireRAG  bool
	flagShowSources bool
	flagChatLimit   int
	flagChatMinSim  float64
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about your ingested documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, closeStore, err := openService(cfg, true)
		if err != nil {
			return err
		}
		defer closeStore()

		opts := rag.ChatOptions{
			UseRAG:        !flagNoRAG,
			RequireRAG:    flagRequireRAG,
			Workspace:     flagWorkspace,
			Limit:         cfg.Retrieval.Limit,
			MinSimilarity: cfg.Retrieval.MinSimilarity,
		}
		if flagChatLimit > 0 {
			opts.Limit = flagChatLimit
		}
		if flagChatMinSim > 0 {
			opts.MinSimilarity = flagChatMinSim
		}

		var history []llm.Message
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("cortex chat (type /help for commands, /exit to quit)")
		fmt.Println()

		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			question := strings.TrimSpace(scanner.Text())
			if question == "" {
				continue
			}

			switch question {
			case "/exit", "/quit":
				fmt.Println("Goodbye.")
				return nil
			case "/clear":
				history = nil
				fmt.Println("Conversation cleared.")
				continue
			case "/help":
				fmt.Println("Commands:")
				fmt.Println("  /clear  - clear conversation history")
				fmt.Println("  /exit   - quit chat")
				fmt.Println("  /help   - show this help")
				continue
			}

			answer, err := streamAnswer(cmd, svc, history, question, opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}

			// Keep the last 10 turns of history.
			history = append(history, llm.Message{Role: "user", Content: question})
			history = append(history, llm.Message{Role: "assistant", Content: answer})
			if len(history) > 20 {
				history = history[len(history)-20:]
			}
		}

		return scanner.Err()
	},
}

// streamAnswer writes deltas to stdout as they arrive and returns the full
// answer once the stream completes.
func streamAnswer(cmd *cobra.Command, svc *rag.Service, history []llm.Message, question string, opts rag.ChatOptions) (string, error) {
	var (
		sb        strings.Builder
		lastState rag.ChatState
	)

	fmt.Println()
	for d := range svc.StreamChat(cmd.Context(), history, question, opts) {
		if d.Err != nil {
			fmt.Println()
			return "", d.Err
		}
		if !d.Done && d.Content == "" && d.State != lastState {
			fmt.Printf("[%s...]\n", d.State)
			lastState = d.State
		}
		if d.Content != "" {
			fmt.Print(d.Content)
			sb.WriteString(d.Content)
			lastState = d.State
		}
		if d.Done {
			fmt.Println()
			if flagShowSources && len(d.Sources) > 0 {
				fmt.Println("\nSources:")
				for _, s := range d.Sources {
					fmt.Printf("  %s (similarity %.2f)\n", s.SourcePath, s.Similarity)
				}
			}
		}
	}
	fmt.Println()
	return sb.String(), nil
}

func init() {
	chatCmd.Flags().BoolVar(&flagNoRAG, "no-rag", false, "answer without retrieving document context")
	chatCmd.Flags().BoolVar(&flagRequireRAG, "require-rag", false, "fail instead of degrading when retrieval is unavailable")
	chatCmd.Flags().BoolVar(&flagShowSources, "sources", false, "print retrieved sources after each answer")
	chatCmd.Flags().IntVar(&flagChatLimit, "limit", 0, "chunks to retrieve per question (default from config)")
	chatCmd.Flags().Float64Var(&flagChatMinSim, "min-similarity", 0, "minimum similarity for retrieved chunks")
	rootCmd.AddCommand(chatCmd)
}
