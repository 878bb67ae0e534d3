package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bxav/product-analyzer/internal/llm"
	"github.com/bxav/product-analyzer/internal/prompt"
	"github.com/bxav/product-analyzer/internal/search"
	"github.com/bxav/product-analyzer/internal/workflow"
)

// maxInterviewMessages bounds a transcript. An interview ends when the
// interviewer says "thank you" or once the transcript reaches this
// many messages after a question; one trailing answer may follow, so
// the hard ceiling is maxInterviewMessages + 1.
const maxInterviewMessages = 10

const noResultsPlaceholder = "No search results available."

var errNoExperts = errors.New("no experts generated")

// Interviewer runs the question/answer loop for one persona. Questions
// come from the persona (fast client); answers are grounded in search
// results (long-context client) and carry numbered citations.
type Interviewer struct {
	fast    llm.Client
	long    llm.Client
	search  search.Engine
	prompts *prompt.Manager
	logger  *zap.Logger
	pacing  time.Duration
}

// NewInterviewer builds an interviewer.
func NewInterviewer(fast, long llm.Client, engine search.Engine, prompts *prompt.Manager, logger *zap.Logger) *Interviewer {
	return &Interviewer{
		fast:    fast,
		long:    long,
		search:  engine,
		prompts: prompts,
		logger:  logger,
		pacing:  paceInterval,
	}
}

// Conduct runs one full interview. The transcript is seeded with an
// interviewer message naming the subject; the loop alternates
// question and grounded answer until the termination condition holds.
func (iv *Interviewer) Conduct(ctx context.Context, subject string, expert workflow.Expert) (workflow.InterviewResult, error) {
	messages := []workflow.Message{{
		Role:    workflow.RoleInterviewer,
		Content: fmt.Sprintf("Let's discuss the product: %s. What aspects would you like to analyze?", subject),
	}}
	references := map[string]string{}

	for {
		question, err := iv.askQuestion(ctx, expert, messages)
		if err != nil {
			return workflow.InterviewResult{}, fmt.Errorf("interview with %s: %w", expert.Name, err)
		}
		messages = append(messages, workflow.Message{Role: workflow.RoleInterviewer, Content: question})

		if shouldTerminate(messages) {
			break
		}

		answer, refs, err := iv.answerQuestion(ctx, messages)
		if err != nil {
			return workflow.InterviewResult{}, fmt.Errorf("interview with %s: %w", expert.Name, err)
		}
		messages = append(messages, workflow.Message{Role: workflow.RoleExpert, Content: answer})
		references = workflow.MergeReferences(references, refs)
	}

	iv.logger.Debug("interview finished",
		zap.String("expert", expert.Name),
		zap.Int("messages", len(messages)),
		zap.Int("references", len(references)))

	return workflow.InterviewResult{Messages: messages, References: references}, nil
}

func (iv *Interviewer) askQuestion(ctx context.Context, expert workflow.Expert, messages []workflow.Message) (string, error) {
	tmpl, err := iv.prompts.Get(prompt.KeyExpertQuestion)
	if err != nil {
		return "", err
	}
	system, user := tmpl.Render(map[string]string{
		"name":         expert.Name,
		"role":         expert.Role,
		"expertise":    expert.Expertise,
		"description":  expert.Description,
		"conversation": formatConversation(messages),
	})

	if err := pace(ctx, iv.pacing); err != nil {
		return "", err
	}
	resp, err := iv.fast.Complete(ctx, system, user)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (iv *Interviewer) answerQuestion(ctx context.Context, messages []workflow.Message) (string, map[string]string, error) {
	lastQuestion := messages[len(messages)-1].Content
	results := iv.search.Search(ctx, lastQuestion)

	tmpl, err := iv.prompts.Get(prompt.KeyExpertAnswer)
	if err != nil {
		return "", nil, err
	}
	system, user := tmpl.Render(map[string]string{
		"conversation":   formatConversation(messages),
		"search_results": formatSearchResults(results),
	})

	if err := pace(ctx, iv.pacing); err != nil {
		return "", nil, err
	}
	resp, err := iv.long.Complete(ctx, system, user)
	if err != nil {
		return "", nil, err
	}
	return resp.Content, buildReferences(results), nil
}

// shouldTerminate is evaluated after each interviewer turn: the
// interview ends on a "thank you" from the interviewer or when the
// transcript reaches the message cap.
func shouldTerminate(messages []workflow.Message) bool {
	last := messages[len(messages)-1]
	if strings.Contains(strings.ToLower(last.Content), "thank you") {
		return true
	}
	return len(messages) >= maxInterviewMessages
}

// buildReferences maps each result URL to its numbered citation label.
func buildReferences(results []search.Result) map[string]string {
	refs := make(map[string]string, len(results))
	for i, r := range results {
		refs[r.URL] = fmt.Sprintf("[%d] %s", i+1, r.Title)
	}
	return refs
}

// formatSearchResults renders results as a numbered block matching the
// citation labels.
func formatSearchResults(results []search.Result) string {
	if len(results) == 0 {
		return noResultsPlaceholder
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("[%d] %s\n%s\nURL: %s", i+1, r.Title, r.Content, r.URL)
	}
	return strings.Join(parts, "\n\n")
}
