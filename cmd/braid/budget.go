package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	ctxengine "github.com/braidhq/braid/internal/context"
	"github.com/braidhq/braid/modules/introspect/ollama"
)

// budgetCmd inspects the token budget a model would get, straight from
// the terminal without a running daemon.
func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget <model>",
		Short: "Show the derived token budget for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model := args[0]
			baseURL, _ := cmd.Flags().GetString("ollama")
			asJSON, _ := cmd.Flags().GetBool("json")

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}))
			client := ollama.New(baseURL, 10*time.Second)
			resolver := ctxengine.NewResolver(nil, client, nil, logger)

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			window := resolver.ContextWindow(ctx, model)
			budget := ctxengine.BudgetForWindow(window)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(budget)
			}

			fmt.Printf("model:                  %s\n", model)
			fmt.Printf("context window:         %d\n", budget.ContextWindow)
			fmt.Printf("recommended num_ctx:    %d\n", resolver.RecommendedCtx(ctx, model))
			fmt.Printf("response reserve:       %d\n", budget.ResponseReserve)
			fmt.Printf("system prompt:          %d\n", budget.SystemPrompt)
			fmt.Printf("tier1 profile:          %d\n", budget.Tier1Memory)
			fmt.Printf("tier2 memories:         %d\n", budget.Tier2Memory)
			fmt.Printf("tier3 summary:          %d\n", budget.Tier3Summary)
			fmt.Printf("max RAG:                %d\n", budget.MaxRAGTokens)
			fmt.Printf("available for history:  %d\n", budget.AvailableForHistory)
			return nil
		},
	}
	cmd.Flags().String("ollama", "http://localhost:11434", "Ollama base URL")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}
