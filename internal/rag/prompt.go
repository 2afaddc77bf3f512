package rag

import (
	"fmt"
	"strings"

	"cortex/internal/domain"
	"cortex/internal/llm"
)

const systemPrompt = `You are a study assistant with access to a knowledge base of the user's documents. Use the retrieved document excerpts provided below to answer questions.

Cite the source file when you use information from an excerpt. If the excerpts don't contain enough information to answer, say so and answer from general knowledge where appropriate. Keep answers concise and accurate.`

// Default character budgets for prompt assembly. Roughly 4 characters per
// token for English text.
const (
	DefaultHistoryBudget = 8000
	DefaultSnippetBudget = 12000
)

// BuildMessages assembles the bounded generation prompt: system prompt,
// retrieved snippets, conversation history oldest-first, and the current
// user turn. History is truncated oldest-first to historyBudget characters
// and snippets lowest-similarity-first to snippetBudget; the user turn is
// never truncated.
func BuildMessages(snippets []domain.RetrievalResult, history []llm.Message, userTurn string, historyBudget, snippetBudget int) []llm.Message {
	if historyBudget <= 0 {
		historyBudget = DefaultHistoryBudget
	}
	if snippetBudget <= 0 {
		snippetBudget = DefaultSnippetBudget
	}

	var msgs []llm.Message
	msgs = append(msgs, llm.Message{Role: "system", Content: systemPrompt})

	if kept := trimSnippets(snippets, snippetBudget); len(kept) > 0 {
		var ctx strings.Builder
		ctx.WriteString("Here are the relevant document excerpts:\n\n")
		for i, s := range kept {
			fmt.Fprintf(&ctx, "--- Excerpt %d: %s (similarity %.2f) ---\n", i+1, s.SourcePath, s.Similarity)
			ctx.WriteString(s.Snippet)
			ctx.WriteString("\n\n")
		}
		msgs = append(msgs, llm.Message{Role: "user", Content: ctx.String()})
		msgs = append(msgs, llm.Message{Role: "assistant", Content: "I've reviewed the document excerpts. What would you like to know?"})
	}

	msgs = append(msgs, trimHistory(history, historyBudget)...)
	msgs = append(msgs, llm.Message{Role: "user", Content: userTurn})
	return msgs
}

// trimHistory drops the oldest turns until the remainder fits the budget.
func trimHistory(history []llm.Message, budget int) []llm.Message {
	total := 0
	for _, m := range history {
		total += len(m.Content)
	}
	start := 0
	for start < len(history) && total > budget {
		total -= len(history[start].Content)
		start++
	}
	return history[start:]
}

// trimSnippets drops the lowest-similarity snippets until the remainder fits
// the budget. Snippets arrive ranked descending, so trimming is from the end.
func trimSnippets(snippets []domain.RetrievalResult, budget int) []domain.RetrievalResult {
	total := 0
	for _, s := range snippets {
		total += len(s.Snippet)
	}
	end := len(snippets)
	for end > 0 && total > budget {
		end--
		total -= len(snippets[end].Snippet)
	}
	return snippets[:end]
}
