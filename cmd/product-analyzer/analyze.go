package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bxav/product-analyzer/internal/analysis"
	"github.com/bxav/product-analyzer/internal/checkpoint"
	"github.com/bxav/product-analyzer/internal/config"
	"github.com/bxav/product-analyzer/internal/llm"
	"github.com/bxav/product-analyzer/internal/refindex"
	"github.com/bxav/product-analyzer/internal/search"
	"github.com/bxav/product-analyzer/internal/workflow"
)

var (
	productType string
	outputFile  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [product]",
	Short: "Analyze a digital product",
	Long: `Runs the full analysis pipeline for a product and prints the
resulting markdown document, or writes it to --output. The product name
and type are prompted for interactively when not given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&productType, "type", "t", "", "type of digital product (default: generic)")
	analyzeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file for the full analysis")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	product := ""
	if len(args) > 0 {
		product = args[0]
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	if product == "" {
		product, err = promptLine(reader, "What product would you like to analyze? ")
		if err != nil {
			return err
		}
		if product == "" {
			return fmt.Errorf("a product name is required")
		}
	}
	if productType == "" {
		productType, err = promptLine(reader, "What type of product is it? [generic] ")
		if err != nil {
			return err
		}
		if productType == "" {
			productType = "generic"
		}
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range engine.Progress() {
			fmt.Println(workflow.FormatProgress(ev))
		}
	}()

	runID := uuid.NewString()
	fmt.Println(workflow.FormatStageHeader(product, "analysis"))
	logger.Info("starting analysis",
		zap.String("product", product),
		zap.String("type", productType),
		zap.String("runId", runID))

	state, err := engine.Run(cmd.Context(), product, productType, runID)
	engine.Close()
	<-done

	if err != nil {
		fmt.Fprintln(os.Stderr, "Analysis process encountered errors")
		fmt.Fprintln(os.Stderr, "The analysis may be incomplete or contain errors.")
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Check %s for any partial results.\n", outputFile)
		}
		return err
	}

	printSummary(state)

	if outputFile == "" {
		fmt.Println("\nFull Analysis:")
		fmt.Println(state.FinalDocument)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(state.FinalDocument), 0o644); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}
	fmt.Printf("\nFull analysis saved to %s (run %s)\n", outputFile, runID)
	return nil
}

func buildEngine(cfg config.Config) (*workflow.Engine, error) {
	factory, err := llm.NewFactory(llm.FactoryConfig{
		APIKey:           cfg.OpenAIAPIKey,
		BaseURL:          cfg.OpenAIBaseURL,
		FastModel:        cfg.FastModel,
		LongContextModel: cfg.LongContextModel,
	})
	if err != nil {
		return nil, err
	}

	tavily, err := search.NewTavily(cfg.TavilyAPIKey, logger, search.WithMaxResults(cfg.MaxSearchResults))
	if err != nil {
		return nil, err
	}

	embedder, err := llm.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	store, err := checkpoint.NewStore(cfg.CheckpointDir)
	if err != nil {
		return nil, err
	}

	return analysis.NewEngine(analysis.Deps{
		Fast:        factory.Fast(),
		Long:        factory.LongContext(),
		Search:      tavily,
		Index:       refindex.New(embedder),
		Checkpoints: store,
		Logger:      logger,
	}), nil
}

func printSummary(state workflow.State) {
	fmt.Println("\nAnalysis Summary:")
	fmt.Printf("Product: %s\n", state.Subject)
	fmt.Printf("Number of sections: %d\n", len(state.Sections))
	fmt.Println("Key points covered:")
	for _, sec := range state.Sections {
		fmt.Printf("- %s\n", sec.Title)
	}
}

func promptLine(reader *bufio.Reader, message string) (string, error) {
	fmt.Print(message)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
