package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bxav/product-analyzer/internal/llm"
	"github.com/bxav/product-analyzer/internal/prompt"
	"github.com/bxav/product-analyzer/internal/refindex"
	"github.com/bxav/product-analyzer/internal/workflow"
)

// maxContinuations bounds the truncation-repair loop. Continuations
// that never cover a remaining section would otherwise loop forever on
// a provider that keeps reporting truncation.
const maxContinuations = 5

// relevantRefsPerQuery is how many indexed references enrich a
// drafting prompt.
const relevantRefsPerQuery = 4

var errNoOutline = errors.New("no outline sections to draft")

// AnalysisWriter drafts the sections concurrently and assembles the
// final document, repairing truncated output via continuations.
type AnalysisWriter struct {
	long    llm.Client
	index   *refindex.Index
	prompts *prompt.Manager
	logger  *zap.Logger
	emit    func(workflow.ProgressEvent)
	pacing  time.Duration
}

// NewAnalysisWriter builds the drafting stages. index and emit may be
// nil.
func NewAnalysisWriter(long llm.Client, index *refindex.Index, prompts *prompt.Manager, logger *zap.Logger, emit func(workflow.ProgressEvent)) *AnalysisWriter {
	return &AnalysisWriter{
		long:    long,
		index:   index,
		prompts: prompts,
		logger:  logger,
		emit:    emit,
		pacing:  paceInterval,
	}
}

// WriteSections drafts one section per refined-outline entry in
// parallel, appending the results in outline order.
func (w *AnalysisWriter) WriteSections(ctx context.Context, s workflow.State) (workflow.Delta, error) {
	if s.Outline == nil || len(s.Outline.Sections) == 0 {
		return workflow.Delta{}, &llm.GenerationError{Op: "write sections", Err: errNoOutline}
	}

	w.indexReferences(ctx, s.InterviewResults)

	interviewsJSON, err := marshalJSON(s.InterviewResults)
	if err != nil {
		return workflow.Delta{}, err
	}
	tmpl, err := w.prompts.Get(prompt.KeyWriteSection)
	if err != nil {
		return workflow.Delta{}, err
	}

	titles := make([]string, len(s.Outline.Sections))
	for i, sec := range s.Outline.Sections {
		titles[i] = sec.Title
	}

	sections, err := workflow.FanOut(ctx, StageWriteSections, titles, w.emit,
		func(ctx context.Context, i int) (workflow.Section, error) {
			entry := s.Outline.Sections[i]

			sectionJSON, err := marshalJSON(entry)
			if err != nil {
				return workflow.Section{}, err
			}
			system, user := tmpl.Render(map[string]string{
				"product":             s.Subject,
				"productType":         s.SubjectKind,
				"section":             sectionJSON,
				"interviews":          interviewsJSON,
				"relevant_references": w.relevantReferences(ctx, entry.Title),
			})

			if err := pace(ctx, w.pacing); err != nil {
				return workflow.Section{}, err
			}
			resp, err := w.long.Complete(ctx, system, user)
			if err != nil {
				return workflow.Section{}, err
			}
			return workflow.Section{Title: entry.Title, Content: resp.Content}, nil
		})
	if err != nil {
		return workflow.Delta{}, err
	}

	w.logger.Info("sections written", zap.Int("count", len(sections)))
	return workflow.Delta{Sections: sections}, nil
}

// WriteAnalysis assembles the final document from the drafted
// sections. While the provider reports a length cutoff, it appends
// continuations covering the sections not yet present in the text.
func (w *AnalysisWriter) WriteAnalysis(ctx context.Context, s workflow.State) (workflow.Delta, error) {
	sectionsJSON, err := marshalJSON(s.Sections)
	if err != nil {
		return workflow.Delta{}, err
	}
	tmpl, err := w.prompts.Get(prompt.KeyWriteFullAnalysis)
	if err != nil {
		return workflow.Delta{}, err
	}
	system, user := tmpl.Render(map[string]string{
		"product":             s.Subject,
		"productType":         s.SubjectKind,
		"sections":            sectionsJSON,
		"relevant_references": w.relevantReferences(ctx, s.Subject),
	})

	if err := pace(ctx, w.pacing); err != nil {
		return workflow.Delta{}, err
	}
	resp, err := w.long.Complete(ctx, system, user)
	if err != nil {
		return workflow.Delta{}, err
	}

	content := resp.Content
	remaining := append([]workflow.Section(nil), s.Sections...)

	for iteration := 0; resp.FinishReason == llm.FinishLength; iteration++ {
		if iteration >= maxContinuations {
			w.logger.Warn("continuation cap reached, keeping partial document",
				zap.Int("iterations", iteration),
				zap.Int("uncovered", len(remaining)))
			break
		}
		w.logger.Info("analysis truncated, generating continuation",
			zap.Int("iteration", iteration+1))

		remaining = uncoveredSections(content, remaining)

		continuation, err := w.generateContinuation(ctx, s, content, remaining)
		if err != nil {
			return workflow.Delta{}, err
		}
		content += "\n" + continuation

		// Re-probe with the full accumulated document so the finish
		// reason reflects the whole text, not just the last chunk.
		resp, err = w.long.Complete(ctx, "", content)
		if err != nil {
			return workflow.Delta{}, err
		}
	}

	w.logger.Info("analysis assembled", zap.Int("length", len(content)))
	return workflow.Delta{FinalDocument: &content}, nil
}

func (w *AnalysisWriter) generateContinuation(ctx context.Context, s workflow.State, previous string, remaining []workflow.Section) (string, error) {
	tmpl, err := w.prompts.Get(prompt.KeyContinueAnalysis)
	if err != nil {
		return "", err
	}

	titles := make([]string, len(remaining))
	for i, sec := range remaining {
		titles[i] = sec.Title
	}
	system, user := tmpl.Render(map[string]string{
		"product":            s.Subject,
		"productType":        s.SubjectKind,
		"previous_content":   previous,
		"remaining_sections": strings.Join(titles, "\n"),
	})

	if err := pace(ctx, w.pacing); err != nil {
		return "", err
	}
	resp, err := w.long.Complete(ctx, system, user)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// indexReferences feeds interview citations into the reference index.
// Enrichment is best-effort: indexing failures are logged, not fatal.
func (w *AnalysisWriter) indexReferences(ctx context.Context, results []workflow.InterviewResult) {
	if w.index == nil {
		return
	}
	var docs []refindex.Document
	for _, r := range results {
		for url, label := range r.References {
			docs = append(docs, refindex.Document{Content: label, SourceURL: url})
		}
	}
	if err := w.index.Add(ctx, docs); err != nil {
		w.logger.Warn("reference indexing failed", zap.Error(err))
	}
}

func (w *AnalysisWriter) relevantReferences(ctx context.Context, query string) string {
	if w.index == nil {
		return ""
	}
	refs, err := w.index.QuerySimilar(ctx, query, relevantRefsPerQuery)
	if err != nil {
		w.logger.Warn("reference lookup failed", zap.String("query", query), zap.Error(err))
		return ""
	}
	return strings.Join(refs, "\n\n")
}

// uncoveredSections keeps the sections whose titles do not yet appear
// verbatim in the document. Matching is literal and case-sensitive.
func uncoveredSections(content string, sections []workflow.Section) []workflow.Section {
	var out []workflow.Section
	for _, sec := range sections {
		if !strings.Contains(content, sec.Title) {
			out = append(out, sec)
		}
	}
	return out
}
