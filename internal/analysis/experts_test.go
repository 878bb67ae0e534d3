package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bxav/product-analyzer/internal/llm"
	"github.com/bxav/product-analyzer/internal/prompt"
	"github.com/bxav/product-analyzer/internal/workflow"
)

// stubRunner scripts the per-persona interview outcome.
type stubRunner struct {
	conduct func(ctx context.Context, subject string, expert workflow.Expert) (workflow.InterviewResult, error)
}

func (s *stubRunner) Conduct(ctx context.Context, subject string, expert workflow.Expert) (workflow.InterviewResult, error) {
	return s.conduct(ctx, subject, expert)
}

func TestGenerateExpertsParsesGroup(t *testing.T) {
	long := &mockClient{completeWithSchema: func(ctx context.Context, system, user, schema string) (*llm.Response, error) {
		assert.Contains(t, user, "Generate 4-5 expert personas")
		return structuredResponse(map[string]any{
			"experts": []workflow.Expert{
				{Name: "Dana", Role: "UX Researcher", Expertise: "usability", Description: "onboarding"},
				{Name: "Femi", Role: "Pricing Analyst", Expertise: "monetization", Description: "plans"},
			},
		}), nil
	}}

	m := NewExpertManager(long, &stubRunner{}, prompt.NewManager(), zap.NewNop(), nil)
	delta, err := m.GenerateExperts(context.Background(), workflow.State{Subject: "Notion", SubjectKind: "generic"})
	require.NoError(t, err)

	require.Len(t, delta.Experts, 2)
	assert.Equal(t, "Dana", delta.Experts[0].Name)
}

func TestGenerateExpertsRejectsEmptyGroup(t *testing.T) {
	long := &mockClient{completeWithSchema: func(ctx context.Context, system, user, schema string) (*llm.Response, error) {
		return structuredResponse(map[string]any{"experts": []workflow.Expert{}}), nil
	}}

	m := NewExpertManager(long, &stubRunner{}, prompt.NewManager(), zap.NewNop(), nil)
	_, err := m.GenerateExperts(context.Background(), workflow.State{Subject: "Notion"})
	require.Error(t, err)
}

func TestConductInterviewsOnePerExpertInOrder(t *testing.T) {
	experts := []workflow.Expert{{Name: "A"}, {Name: "B"}, {Name: "C"}}

	runner := &stubRunner{conduct: func(ctx context.Context, subject string, expert workflow.Expert) (workflow.InterviewResult, error) {
		// Finish out of order to prove results stay in persona order.
		if expert.Name == "A" {
			time.Sleep(20 * time.Millisecond)
		}
		return workflow.InterviewResult{
			Messages: []workflow.Message{{Role: workflow.RoleInterviewer, Content: "for " + expert.Name}},
		}, nil
	}}

	m := NewExpertManager(&mockClient{}, runner, prompt.NewManager(), zap.NewNop(), nil)
	delta, err := m.ConductInterviews(context.Background(), workflow.State{Subject: "Notion", Experts: experts})
	require.NoError(t, err)

	require.Len(t, delta.InterviewResults, len(experts))
	for i, e := range experts {
		assert.Equal(t, "for "+e.Name, delta.InterviewResults[i].Messages[0].Content)
	}
}

func TestConductInterviewsFailureAbortsStage(t *testing.T) {
	experts := []workflow.Expert{{Name: "A"}, {Name: "B"}}

	runner := &stubRunner{conduct: func(ctx context.Context, subject string, expert workflow.Expert) (workflow.InterviewResult, error) {
		if expert.Name == "B" {
			return workflow.InterviewResult{}, fmt.Errorf("interview with %s: %w", expert.Name, errors.New("quota"))
		}
		return workflow.InterviewResult{}, nil
	}}

	m := NewExpertManager(&mockClient{}, runner, prompt.NewManager(), zap.NewNop(), nil)
	_, err := m.ConductInterviews(context.Background(), workflow.State{Subject: "Notion", Experts: experts})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
}

func TestConductInterviewsNoExperts(t *testing.T) {
	m := NewExpertManager(&mockClient{}, &stubRunner{}, prompt.NewManager(), zap.NewNop(), nil)

	delta, err := m.ConductInterviews(context.Background(), workflow.State{Subject: "Notion"})
	require.NoError(t, err)
	assert.Empty(t, delta.InterviewResults)
}
