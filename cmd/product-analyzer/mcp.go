package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bxav/product-analyzer/internal/checkpoint"
	"github.com/bxav/product-analyzer/internal/config"
	"github.com/bxav/product-analyzer/internal/mcptools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server on stdio",
	Long: `Serves the analyzer tools (analyze_product, get_analysis,
list_analyses) over the Model Context Protocol on stdin/stdout, so
agent hosts can run analyses as structured tool calls.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := checkpoint.NewStore(cfg.CheckpointDir)
	if err != nil {
		return err
	}

	analyze := func(ctx context.Context, subject, subjectKind, runID string) (string, error) {
		// Each tool call gets a fresh engine: the reference index and
		// progress stream are per-run.
		engine, err := buildEngine(cfg)
		if err != nil {
			return "", err
		}
		defer engine.Close()

		state, err := engine.Run(ctx, subject, subjectKind, runID)
		if err != nil {
			return "", err
		}
		return state.FinalDocument, nil
	}

	svc := mcptools.NewAnalyzerService(analyze, store, uuid.NewString)
	server := mcptools.NewAnalyzerMCPServer(svc)

	logger.Info("serving MCP on stdio")
	return mcptools.RunAnalyzerMCPServerStdio(cmd.Context(), server)
}
