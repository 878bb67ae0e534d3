package analysis

import (
	"context"
	"encoding/json"

	"github.com/bxav/product-analyzer/internal/llm"
	"github.com/bxav/product-analyzer/internal/search"
)

// mockClient is a scriptable llm.Client for tests.
type mockClient struct {
	complete           func(ctx context.Context, system, user string) (*llm.Response, error)
	completeWithSchema func(ctx context.Context, system, user, schema string) (*llm.Response, error)
}

func (m *mockClient) Complete(ctx context.Context, system, user string) (*llm.Response, error) {
	if m.complete != nil {
		return m.complete(ctx, system, user)
	}
	return &llm.Response{Content: "ok", FinishReason: llm.FinishStop}, nil
}

func (m *mockClient) CompleteWithSchema(ctx context.Context, system, user, schema string) (*llm.Response, error) {
	if m.completeWithSchema != nil {
		return m.completeWithSchema(ctx, system, user, schema)
	}
	return &llm.Response{Content: "{}", FinishReason: llm.FinishStop, Structured: json.RawMessage("{}")}, nil
}

func structuredResponse(v any) *llm.Response {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &llm.Response{
		Content:      string(data),
		FinishReason: llm.FinishStop,
		Structured:   data,
	}
}

func textResponse(content string) *llm.Response {
	return &llm.Response{Content: content, FinishReason: llm.FinishStop}
}

// stubSearch returns fixed results for every query.
type stubSearch struct {
	results []search.Result
}

func (s *stubSearch) Search(context.Context, string) []search.Result {
	return s.results
}
