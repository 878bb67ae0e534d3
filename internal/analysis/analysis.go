// Package analysis implements the pipeline stages: outline generation,
// expert personas, grounded interviews, outline refinement, section
// drafting, and final assembly with truncation repair.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bxav/product-analyzer/internal/checkpoint"
	"github.com/bxav/product-analyzer/internal/llm"
	"github.com/bxav/product-analyzer/internal/prompt"
	"github.com/bxav/product-analyzer/internal/refindex"
	"github.com/bxav/product-analyzer/internal/search"
	"github.com/bxav/product-analyzer/internal/workflow"
)

// paceInterval is the courtesy delay before generation calls, so a
// full run does not hammer the provider.
const paceInterval = time.Second

// Stage names, in execution order.
const (
	StageGenerateOutline   = "generate_outline"
	StageGenerateExperts   = "generate_experts"
	StageConductInterviews = "conduct_interviews"
	StageRefineOutline     = "refine_outline"
	StageWriteSections     = "write_sections"
	StageWriteAnalysis     = "write_analysis"
)

// Deps carries everything NewEngine needs to assemble the pipeline.
type Deps struct {
	Fast llm.Client
	Long llm.Client

	Search  search.Engine
	Index   *refindex.Index // optional; nil disables reference enrichment
	Prompts *prompt.Manager

	Checkpoints *checkpoint.Store // optional; nil disables persistence
	Logger      *zap.Logger

	// Pacing overrides the delay before generation calls. Zero keeps
	// the default one-second interval.
	Pacing time.Duration
}

// NewEngine wires the stages into a workflow engine in their fixed
// order.
func NewEngine(d Deps) *workflow.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Prompts == nil {
		d.Prompts = prompt.NewManager()
	}
	pacing := paceInterval
	if d.Pacing > 0 {
		pacing = d.Pacing
	}

	progress := workflow.NewProgressReporter()

	outliner := NewOutlineGenerator(d.Fast, d.Long, d.Prompts, d.Logger)
	outliner.pacing = pacing

	interviewer := NewInterviewer(d.Fast, d.Long, d.Search, d.Prompts, d.Logger)
	interviewer.pacing = pacing

	experts := NewExpertManager(d.Long, interviewer, d.Prompts, d.Logger, progress.Emit)

	writer := NewAnalysisWriter(d.Long, d.Index, d.Prompts, d.Logger, progress.Emit)
	writer.pacing = pacing

	stages := []workflow.Stage{
		{Name: StageGenerateOutline, Run: outliner.GenerateOutline},
		{Name: StageGenerateExperts, Run: experts.GenerateExperts},
		{Name: StageConductInterviews, Run: experts.ConductInterviews},
		{Name: StageRefineOutline, Run: outliner.RefineOutline},
		{Name: StageWriteSections, Run: writer.WriteSections},
		{Name: StageWriteAnalysis, Run: writer.WriteAnalysis},
	}

	return workflow.NewEngine(stages, d.Checkpoints, progress, d.Logger)
}

// pace sleeps for d unless the context ends first.
func pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// formatConversation renders a transcript as "role: content" lines.
func formatConversation(messages []workflow.Message) string {
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = m.Role + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

// marshalJSON serializes a value for prompt embedding.
func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("analysis: serialize for prompt: %w", err)
	}
	return string(data), nil
}
