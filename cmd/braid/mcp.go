package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	ctxengine "github.com/braidhq/braid/internal/context"
	"github.com/braidhq/braid/modules/introspect/ollama"
)

// mcpCmd runs braid as an MCP server over stdio, exposing budget
// computation and token estimation as tools for agent frontends.
func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run as a Model Context Protocol server on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			baseURL, _ := cmd.Flags().GetString("ollama")

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}))
			client := ollama.New(baseURL, 10*time.Second)
			resolver := ctxengine.NewResolver(nil, client, nil, logger)
			tok := ctxengine.NewCharTokenizer(4)

			s := server.NewMCPServer("braid", version,
				server.WithToolCapabilities(false),
			)

			s.AddTool(
				mcp.NewTool("compute_budget",
					mcp.WithDescription("Derive the tiered token budget for a model's context window"),
					mcp.WithString("model",
						mcp.Required(),
						mcp.Description("Model name, e.g. llama3:8b"),
					),
				),
				func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
					model, err := req.RequireString("model")
					if err != nil {
						return mcp.NewToolResultError(err.Error()), nil
					}

					window := resolver.ContextWindow(ctx, model)
					budget := ctxengine.BudgetForWindow(window)
					data, err := json.Marshal(budget)
					if err != nil {
						return mcp.NewToolResultError(err.Error()), nil
					}
					return mcp.NewToolResultText(string(data)), nil
				},
			)

			s.AddTool(
				mcp.NewTool("estimate_tokens",
					mcp.WithDescription("Estimate the token count of a text"),
					mcp.WithString("text",
						mcp.Required(),
						mcp.Description("Text to estimate"),
					),
				),
				func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
					text, err := req.RequireString("text")
					if err != nil {
						return mcp.NewToolResultError(err.Error()), nil
					}
					return mcp.NewToolResultText(fmt.Sprintf("%d", tok.Estimate(text))), nil
				},
			)

			return server.ServeStdio(s)
		},
	}
	cmd.Flags().String("ollama", "http://localhost:11434", "Ollama base URL")
	return cmd
}
