package mcptools

// --- MCP Tool Types for the analyzer server mode (mcp subcommand) ---
// These tools are exposed when the binary runs as an MCP server, so an
// agent can trigger analyses and read back saved runs as structured
// tool calls instead of shelling out.

// AnalyzeProductInput is the input for the analyze_product MCP tool.
type AnalyzeProductInput struct {
	Subject     string `json:"subject" jsonschema:"name of the product to analyze"`
	ProductType string `json:"productType,omitempty" jsonschema:"kind of product (default: generic)"`
}

// AnalyzeProductOutput is the result of the analyze_product MCP tool.
type AnalyzeProductOutput struct {
	RunID    string `json:"runId"`
	Document string `json:"document,omitempty"`
	Status   string `json:"status"` // "completed" or "failed"
	Message  string `json:"message,omitempty"`
}

// GetAnalysisInput is the input for the get_analysis MCP tool.
type GetAnalysisInput struct {
	RunID string `json:"runId" jsonschema:"run identifier of a saved analysis"`
}

// GetAnalysisOutput is the result of the get_analysis MCP tool.
type GetAnalysisOutput struct {
	RunID         string   `json:"runId"`
	Subject       string   `json:"subject"`
	SubjectKind   string   `json:"subjectKind"`
	Experts       []string `json:"experts"`
	SectionTitles []string `json:"sectionTitles"`
	Document      string   `json:"document"`
}

// ListAnalysesInput is the input for the list_analyses MCP tool.
type ListAnalysesInput struct{}

// ListAnalysesOutput is the result of the list_analyses MCP tool.
type ListAnalysesOutput struct {
	RunIDs []string `json:"runIds"`
}
