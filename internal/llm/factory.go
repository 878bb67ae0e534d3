package llm

// Default models for the two generation tiers. The fast model handles
// short structured calls (outlines, interview questions); the
// long-context model handles transcript-heavy synthesis.
const (
	DefaultFastModel        = "gpt-4o-mini"
	DefaultLongContextModel = "gpt-4o"
)

// Factory builds the two clients the pipeline needs from one credential.
type Factory struct {
	fast *OpenAIClient
	long *OpenAIClient
}

// FactoryConfig carries the provider settings. Empty model names fall
// back to the defaults above.
type FactoryConfig struct {
	APIKey           string
	BaseURL          string
	FastModel        string
	LongContextModel string
}

// NewFactory constructs both clients up front so credential problems
// surface before any stage runs.
func NewFactory(cfg FactoryConfig) (*Factory, error) {
	fastModel := cfg.FastModel
	if fastModel == "" {
		fastModel = DefaultFastModel
	}
	longModel := cfg.LongContextModel
	if longModel == "" {
		longModel = DefaultLongContextModel
	}

	fast, err := NewOpenAIClient(cfg.APIKey, cfg.BaseURL, fastModel)
	if err != nil {
		return nil, err
	}
	long, err := NewOpenAIClient(cfg.APIKey, cfg.BaseURL, longModel)
	if err != nil {
		return nil, err
	}
	return &Factory{fast: fast, long: long}, nil
}

// Fast returns the client for short structured calls.
func (f *Factory) Fast() Client { return f.fast }

// LongContext returns the client for transcript-heavy synthesis.
func (f *Factory) LongContext() Client { return f.long }
