package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bxav/product-analyzer/internal/llm"
	"github.com/bxav/product-analyzer/internal/prompt"
	"github.com/bxav/product-analyzer/internal/workflow"
)

// OutlineGenerator produces the initial outline and refines it after
// the interviews.
type OutlineGenerator struct {
	fast    llm.Client
	long    llm.Client
	prompts *prompt.Manager
	logger  *zap.Logger
	pacing  time.Duration
}

// NewOutlineGenerator builds the outline stage pair. The fast client
// drafts the initial outline; refinement reads full transcripts and
// uses the long-context client.
func NewOutlineGenerator(fast, long llm.Client, prompts *prompt.Manager, logger *zap.Logger) *OutlineGenerator {
	return &OutlineGenerator{
		fast:    fast,
		long:    long,
		prompts: prompts,
		logger:  logger,
		pacing:  paceInterval,
	}
}

// GenerateOutline drafts the initial outline from the subject alone.
func (g *OutlineGenerator) GenerateOutline(ctx context.Context, s workflow.State) (workflow.Delta, error) {
	tmpl, err := g.prompts.Get(prompt.KeyOutline)
	if err != nil {
		return workflow.Delta{}, err
	}
	system, user := tmpl.Render(map[string]string{
		"product":     s.Subject,
		"productType": s.SubjectKind,
	})

	outline, err := g.completeOutline(ctx, g.fast, system, user)
	if err != nil {
		return workflow.Delta{}, err
	}

	g.logger.Info("outline generated",
		zap.String("title", outline.Title),
		zap.Int("sections", len(outline.Sections)))
	return workflow.Delta{Outline: outline}, nil
}

// RefineOutline rewrites the outline in light of the interview
// transcripts. The result overwrites the original outline.
func (g *OutlineGenerator) RefineOutline(ctx context.Context, s workflow.State) (workflow.Delta, error) {
	if s.Outline == nil {
		return workflow.Delta{}, fmt.Errorf("analysis: refine outline: no outline to refine")
	}

	originalJSON, err := marshalJSON(s.Outline)
	if err != nil {
		return workflow.Delta{}, err
	}
	interviewsJSON, err := marshalJSON(s.InterviewResults)
	if err != nil {
		return workflow.Delta{}, err
	}

	tmpl, err := g.prompts.Get(prompt.KeyRefineOutline)
	if err != nil {
		return workflow.Delta{}, err
	}
	system, user := tmpl.Render(map[string]string{
		"original_outline": originalJSON,
		"interviews":       interviewsJSON,
	})

	if err := pace(ctx, g.pacing); err != nil {
		return workflow.Delta{}, err
	}

	outline, err := g.completeOutline(ctx, g.long, system, user)
	if err != nil {
		return workflow.Delta{}, err
	}

	g.logger.Info("outline refined", zap.Int("sections", len(outline.Sections)))
	return workflow.Delta{Outline: outline}, nil
}

func (g *OutlineGenerator) completeOutline(ctx context.Context, client llm.Client, system, user string) (*workflow.Outline, error) {
	resp, err := client.CompleteWithSchema(ctx, system, user, outlineSchema)
	if err != nil {
		return nil, err
	}

	var outline workflow.Outline
	if err := json.Unmarshal(resp.Structured, &outline); err != nil {
		return nil, &llm.GenerationError{Op: "parse outline", Err: err}
	}
	if len(outline.Sections) == 0 {
		return nil, &llm.GenerationError{Op: "parse outline", Err: fmt.Errorf("outline has no sections")}
	}
	return &outline, nil
}
