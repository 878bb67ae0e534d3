package analysis

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/bxav/product-analyzer/internal/llm"
	"github.com/bxav/product-analyzer/internal/prompt"
	"github.com/bxav/product-analyzer/internal/workflow"
)

// interviewRunner conducts one persona's interview.
type interviewRunner interface {
	Conduct(ctx context.Context, subject string, expert workflow.Expert) (workflow.InterviewResult, error)
}

// ExpertManager generates the expert personas and fans their
// interviews out in parallel.
type ExpertManager struct {
	long       llm.Client
	interviews interviewRunner
	prompts    *prompt.Manager
	logger     *zap.Logger
	emit       func(workflow.ProgressEvent)
}

// NewExpertManager builds the persona stages. emit may be nil.
func NewExpertManager(long llm.Client, interviews interviewRunner, prompts *prompt.Manager, logger *zap.Logger, emit func(workflow.ProgressEvent)) *ExpertManager {
	return &ExpertManager{
		long:       long,
		interviews: interviews,
		prompts:    prompts,
		logger:     logger,
		emit:       emit,
	}
}

// GenerateExperts asks for a diverse group of 4-5 personas.
func (m *ExpertManager) GenerateExperts(ctx context.Context, s workflow.State) (workflow.Delta, error) {
	tmpl, err := m.prompts.Get(prompt.KeyGenerateExperts)
	if err != nil {
		return workflow.Delta{}, err
	}
	system, user := tmpl.Render(map[string]string{
		"product":     s.Subject,
		"productType": s.SubjectKind,
	})

	resp, err := m.long.CompleteWithSchema(ctx, system, user, expertGroupSchema)
	if err != nil {
		return workflow.Delta{}, err
	}

	var group struct {
		Experts []workflow.Expert `json:"experts"`
	}
	if err := json.Unmarshal(resp.Structured, &group); err != nil {
		return workflow.Delta{}, &llm.GenerationError{Op: "parse experts", Err: err}
	}
	if len(group.Experts) == 0 {
		return workflow.Delta{}, &llm.GenerationError{Op: "parse experts", Err: errNoExperts}
	}

	m.logger.Info("expert personas generated", zap.Int("count", len(group.Experts)))
	return workflow.Delta{Experts: group.Experts}, nil
}

// ConductInterviews runs every persona's interview concurrently and
// appends the results in persona order.
func (m *ExpertManager) ConductInterviews(ctx context.Context, s workflow.State) (workflow.Delta, error) {
	names := make([]string, len(s.Experts))
	for i, e := range s.Experts {
		names[i] = e.Name
	}

	results, err := workflow.FanOut(ctx, StageConductInterviews, names, m.emit,
		func(ctx context.Context, i int) (workflow.InterviewResult, error) {
			return m.interviews.Conduct(ctx, s.Subject, s.Experts[i])
		})
	if err != nil {
		return workflow.Delta{}, err
	}

	m.logger.Info("interviews complete", zap.Int("count", len(results)))
	return workflow.Delta{InterviewResults: results}, nil
}
