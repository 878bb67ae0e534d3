package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bxav/product-analyzer/internal/checkpoint"
	"github.com/bxav/product-analyzer/internal/workflow"
)

// AnalyzeFunc runs one full analysis and returns the final document.
type AnalyzeFunc func(ctx context.Context, subject, subjectKind, runID string) (string, error)

// AnalyzerService handles MCP tool calls for the analyzer server mode.
type AnalyzerService struct {
	analyze     AnalyzeFunc
	checkpoints *checkpoint.Store
	newRunID    func() string
}

// NewAnalyzerService creates an AnalyzerService. newRunID generates
// fresh run identifiers for analyze_product calls.
func NewAnalyzerService(analyze AnalyzeFunc, checkpoints *checkpoint.Store, newRunID func() string) *AnalyzerService {
	return &AnalyzerService{
		analyze:     analyze,
		checkpoints: checkpoints,
		newRunID:    newRunID,
	}
}

// AnalyzeProduct runs the full pipeline for a subject and returns the
// generated document. Failures are reported in the output rather than
// as a protocol error so agents can inspect them.
func (s *AnalyzerService) AnalyzeProduct(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeProductInput,
) (*mcp.CallToolResult, AnalyzeProductOutput, error) {
	if input.Subject == "" {
		return nil, AnalyzeProductOutput{
			Status:  "failed",
			Message: "subject is required",
		}, fmt.Errorf("analyze_product: subject is required")
	}

	subjectKind := input.ProductType
	if subjectKind == "" {
		subjectKind = "generic"
	}

	runID := s.newRunID()
	document, err := s.analyze(ctx, input.Subject, subjectKind, runID)
	if err != nil {
		return nil, AnalyzeProductOutput{
			RunID:   runID,
			Status:  "failed",
			Message: err.Error(),
		}, nil
	}

	return nil, AnalyzeProductOutput{
		RunID:    runID,
		Document: document,
		Status:   "completed",
	}, nil
}

// GetAnalysis loads a saved run and returns a structured summary.
func (s *AnalyzerService) GetAnalysis(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetAnalysisInput,
) (*mcp.CallToolResult, GetAnalysisOutput, error) {
	var state workflow.State
	if err := s.checkpoints.Load(input.RunID, &state); err != nil {
		return nil, GetAnalysisOutput{}, fmt.Errorf("get_analysis: %w", err)
	}

	experts := make([]string, len(state.Experts))
	for i, e := range state.Experts {
		experts[i] = e.Name
	}
	titles := make([]string, len(state.Sections))
	for i, sec := range state.Sections {
		titles[i] = sec.Title
	}

	return nil, GetAnalysisOutput{
		RunID:         input.RunID,
		Subject:       state.Subject,
		SubjectKind:   state.SubjectKind,
		Experts:       experts,
		SectionTitles: titles,
		Document:      state.FinalDocument,
	}, nil
}

// ListAnalyses returns the run IDs of every saved analysis.
func (s *AnalyzerService) ListAnalyses(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListAnalysesInput,
) (*mcp.CallToolResult, ListAnalysesOutput, error) {
	ids, err := s.checkpoints.List()
	if err != nil {
		return nil, ListAnalysesOutput{}, fmt.Errorf("list_analyses: %w", err)
	}
	return nil, ListAnalysesOutput{RunIDs: ids}, nil
}
