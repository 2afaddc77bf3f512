package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cortex/internal/domain"
	"cortex/internal/rag"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing document search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, closeStore, err := openService(cfg, true)
	if err != nil {
		return err
	}
	defer closeStore()

	s := mcpserver.NewMCPServer("cortex", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(searchDocumentsTool(), makeSearchHandler(svc, cfg.Retrieval.Limit))
	s.AddTool(getChunkTool(), makeGetChunkHandler(svc))
	s.AddTool(listSourcesTool(), makeListSourcesHandler(svc))
	s.AddTool(deleteSourceTool(), makeDeleteSourceHandler(svc))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchDocumentsTool() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription("Semantically search the ingested documents by cosine similarity. Returns relevant excerpts with source paths and similarity scores."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query to search the documents"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of excerpts to return"),
		),
		mcp.WithNumber("min_similarity",
			mcp.Description("Minimum cosine similarity (0-1) for returned excerpts"),
		),
		mcp.WithString("workspace",
			mcp.Description("Optional workspace scope"),
		),
	)
}

func getChunkTool() mcp.Tool {
	return mcp.NewTool("get_chunk",
		mcp.WithDescription("Fetch the full text of a single chunk by its ID, as returned by search_documents."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Chunk ID"),
		),
	)
}

func listSourcesTool() mcp.Tool {
	return mcp.NewTool("list_sources",
		mcp.WithDescription("List ingested sources with their chunk counts and metadata."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("workspace",
			mcp.Description("Optional workspace scope"),
		),
	)
}

func deleteSourceTool() mcp.Tool {
	return mcp.NewTool("delete_source",
		mcp.WithDescription("Delete a source and all of its chunks and embeddings."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint:    mcp.ToBoolPtr(false),
			DestructiveHint: mcp.ToBoolPtr(true),
			IdempotentHint:  mcp.ToBoolPtr(true),
			OpenWorldHint:   mcp.ToBoolPtr(false),
		}),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Source path as ingested"),
		),
	)
}

// --- Handler factories ---

func makeSearchHandler(svc *rag.Service, defaultLimit int) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		limit := req.GetInt("limit", defaultLimit)
		if limit <= 0 {
			limit = defaultLimit
		}
		minSim := req.GetFloat("min_similarity", 0)
		workspace := req.GetString("workspace", "")

		results, err := svc.Search(ctx, query, workspace, limit, minSim)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		return mcp.NewToolResultText(formatSearchResults(query, results)), nil
	}
}

func makeGetChunkHandler(svc *rag.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := req.GetInt("id", 0)
		if id <= 0 {
			return mcp.NewToolResultError("id is required"), nil
		}

		r, err := svc.GetChunk(int64(id))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("chunk %d not found", id)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("get chunk failed: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("## Chunk %d: `%s`\n\n%s", r.ChunkID, r.SourcePath, r.Snippet)), nil
	}
}

func makeListSourcesHandler(svc *rag.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		workspace := req.GetString("workspace", "")

		sources, err := svc.ListSources(workspace)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list sources failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## Ingested sources (%d)\n\n", len(sources))
		for _, s := range sources {
			ws := s.Workspace
			if ws == "" {
				ws = "-"
			}
			fmt.Fprintf(&sb, "- **%s** (%d chunks, %d bytes, workspace %s)\n", s.Path, s.ChunkCount, s.SizeBytes, ws)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeDeleteSourceHandler(svc *rag.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}

		deleted, err := svc.DeleteSource(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
		}
		if !deleted {
			return mcp.NewToolResultText(fmt.Sprintf("No source at %q — call list_sources to see available paths.", path)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted %s and all of its chunks.", path)), nil
	}
}

// --- Formatting helpers ---

func formatSearchResults(query string, results []domain.RetrievalResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d excerpts)\n\n", query, len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "### Result %d: `%s`\n\n", i+1, r.SourcePath)
		fmt.Fprintf(&sb, "**Chunk:** %d  \n**Similarity:** %.3f\n\n", r.ChunkID, r.Similarity)
		fmt.Fprintf(&sb, "> %s\n\n", strings.ReplaceAll(r.Snippet, "\n", "\n> "))
	}

	return sb.String()
}
