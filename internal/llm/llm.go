// Package llm provides the text-generation capability used by the analysis
// pipeline. It defines the Client port plus an OpenAI-compatible HTTP
// implementation that reports the provider finish reason, which the
// continuation stage relies on to detect truncated output.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// FinishReason is the provider-reported signal distinguishing a complete
// generation from one cut off by the output length limit.
type FinishReason string

const (
	FinishStop   FinishReason = "stop"
	FinishLength FinishReason = "length"
	FinishOther  FinishReason = "other"
)

// Response is the outcome of a single generation call.
type Response struct {
	// Content is the generated text.
	Content string

	// FinishReason reports why the provider stopped generating.
	FinishReason FinishReason

	// Structured holds the raw JSON payload when the call was
	// schema-constrained; nil otherwise.
	Structured json.RawMessage
}

// Client is the generation port. Implementations must be safe for
// concurrent use: interview and section fan-outs share one client.
type Client interface {
	// Complete generates free-form text from a system and user prompt.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (*Response, error)

	// CompleteWithSchema generates output constrained to the given JSON
	// schema (a raw JSON schema document). The structured payload is
	// returned in Response.Structured.
	CompleteWithSchema(ctx context.Context, systemPrompt, userPrompt, jsonSchema string) (*Response, error)
}

// GenerationError wraps a failed or unusable generation call.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("llm: %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// generr is a shorthand constructor used by the clients in this package.
func generr(op string, format string, args ...any) *GenerationError {
	return &GenerationError{Op: op, Err: fmt.Errorf(format, args...)}
}
