package analysis

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bxav/product-analyzer/internal/checkpoint"
	"github.com/bxav/product-analyzer/internal/llm"
	"github.com/bxav/product-analyzer/internal/search"
	"github.com/bxav/product-analyzer/internal/workflow"
)

// scriptedClients routes calls by prompt content so one pair of
// clients can drive the whole pipeline.
func scriptedClients(t *testing.T) (fast, long llm.Client) {
	t.Helper()

	fast = &mockClient{
		completeWithSchema: func(ctx context.Context, system, user, schema string) (*llm.Response, error) {
			// Initial outline.
			require.Contains(t, system, "Write an outline")
			return structuredResponse(workflow.Outline{
				Title: "Notion Analysis",
				Sections: []workflow.SectionSpec{
					{Title: "Overview"},
					{Title: "Pricing"},
				},
			}), nil
		},
		complete: func(ctx context.Context, system, user string) (*llm.Response, error) {
			// Interview questions: say thank you once an answer exists.
			// assert, not require: this runs inside fan-out goroutines.
			assert.Contains(t, system, "Your persona is")
			if strings.Contains(user, "expert:") {
				return textResponse("Thank you for the detail!"), nil
			}
			return textResponse("How does the free tier compare?"), nil
		},
	}

	long = &mockClient{
		completeWithSchema: func(ctx context.Context, system, user, schema string) (*llm.Response, error) {
			if strings.Contains(system, "expert personas") {
				return structuredResponse(map[string]any{
					"experts": []workflow.Expert{
						{Name: "Dana", Role: "UX Researcher", Expertise: "usability", Description: "onboarding"},
						{Name: "Femi", Role: "Pricing Analyst", Expertise: "monetization", Description: "plans"},
					},
				}), nil
			}
			require.Contains(t, system, "refining the outline")
			return structuredResponse(workflow.Outline{
				Title: "Notion Analysis (refined)",
				Sections: []workflow.SectionSpec{
					{Title: "Overview"},
					{Title: "Pricing"},
					{Title: "Integrations"},
				},
			}), nil
		},
		complete: func(ctx context.Context, system, user string) (*llm.Response, error) {
			switch {
			case strings.Contains(system, "expert answering questions"):
				return textResponse("The free tier is generous [1]."), nil
			case strings.Contains(system, "Write a section"):
				for _, title := range []string{"Overview", "Pricing", "Integrations"} {
					if strings.Contains(user, `"`+title+`"`) {
						return textResponse("drafted " + title), nil
					}
				}
				return nil, fmt.Errorf("unexpected section prompt: %s", user)
			case strings.Contains(system, "complete digital product analysis"):
				return textResponse("# Notion Analysis\n\nOverview\nPricing\nIntegrations"), nil
			default:
				return nil, fmt.Errorf("unexpected long-context prompt: %s", system)
			}
		},
	}

	return fast, long
}

func TestFullPipelineProducesDocumentAndCheckpoint(t *testing.T) {
	fast, long := scriptedClients(t)
	store, err := checkpoint.NewStore(t.TempDir())
	require.NoError(t, err)

	eng := NewEngine(Deps{
		Fast: fast,
		Long: long,
		Search: &stubSearch{results: []search.Result{
			{Title: "Pricing Guide", Content: "tiers", URL: "https://a.example"},
		}},
		Checkpoints: store,
		Logger:      zap.NewNop(),
		Pacing:      time.Millisecond,
	})

	state, err := eng.Run(context.Background(), "Notion", "productivity", "run-1")
	require.NoError(t, err)
	eng.Close()

	// Refined outline overwrote the initial one.
	require.NotNil(t, state.Outline)
	assert.Equal(t, "Notion Analysis (refined)", state.Outline.Title)
	require.Len(t, state.Outline.Sections, 3)

	// One interview per persona, in persona order, with citations.
	require.Len(t, state.Experts, 2)
	require.Len(t, state.InterviewResults, len(state.Experts))
	for _, res := range state.InterviewResults {
		assert.Len(t, res.Messages, 4)
		assert.Equal(t, map[string]string{"https://a.example": "[1] Pricing Guide"}, res.References)
	}

	// Sections follow the refined outline order.
	require.Len(t, state.Sections, 3)
	assert.Equal(t, "drafted Overview", state.Sections[0].Content)
	assert.Equal(t, "drafted Integrations", state.Sections[2].Content)

	assert.Contains(t, state.FinalDocument, "# Notion Analysis")

	// The checkpoint round-trips the final state.
	var saved workflow.State
	require.NoError(t, store.Load("run-1", &saved))
	assert.Equal(t, state.FinalDocument, saved.FinalDocument)
	assert.Len(t, saved.InterviewResults, 2)

	// Interview and section units surfaced as progress events.
	units := map[string]bool{}
	for ev := range eng.Progress() {
		if ev.Unit != "" {
			units[ev.Unit] = true
		}
	}
	assert.True(t, units["Dana"])
	assert.True(t, units["Pricing"])
}

func TestFullPipelineSearchOutageStillCompletes(t *testing.T) {
	fast, long := scriptedClients(t)

	eng := NewEngine(Deps{
		Fast:   fast,
		Long:   long,
		Search: &stubSearch{}, // degraded backend: every query comes back empty
		Logger: zap.NewNop(),
		Pacing: time.Millisecond,
	})
	defer eng.Close()

	state, err := eng.Run(context.Background(), "Notion", "productivity", "run-1")
	require.NoError(t, err)

	require.Len(t, state.InterviewResults, 2)
	for _, res := range state.InterviewResults {
		assert.Empty(t, res.References)
	}
	assert.NotEmpty(t, state.FinalDocument)
}

func TestFullPipelineStageFailureReportsStage(t *testing.T) {
	fast, _ := scriptedClients(t)
	failing := &mockClient{
		completeWithSchema: func(ctx context.Context, system, user, schema string) (*llm.Response, error) {
			return nil, &llm.GenerationError{Op: "complete", Err: fmt.Errorf("quota exhausted")}
		},
	}

	eng := NewEngine(Deps{
		Fast:   fast,
		Long:   failing,
		Search: &stubSearch{},
		Logger: zap.NewNop(),
		Pacing: time.Millisecond,
	})
	defer eng.Close()

	state, err := eng.Run(context.Background(), "Notion", "productivity", "run-1")
	require.Error(t, err)

	var stageErr *workflow.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageGenerateExperts, stageErr.Stage)

	// The outline from the successful first stage is preserved.
	require.NotNil(t, state.Outline)
	assert.Equal(t, "Notion Analysis", state.Outline.Title)
}
