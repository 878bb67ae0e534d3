package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewAnalyzerMCPServer creates an MCP server with the 3 analyzer tools
// registered: analyze_product, get_analysis, and list_analyses.
func NewAnalyzerMCPServer(svc *AnalyzerService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "product-analyzer",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_product",
		Description: "Run a full product analysis: outline, expert interviews, section drafting, and final document assembly. Returns the document and its run ID.",
	}, svc.AnalyzeProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_analysis",
		Description: "Load a previously completed analysis by run ID: subject, experts, section titles, and the full document.",
	}, svc.GetAnalysis)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_analyses",
		Description: "List the run IDs of all saved analyses.",
	}, svc.ListAnalyses)

	return server
}

// RunAnalyzerMCPServerStdio runs the MCP server on stdio transport,
// blocking until stdin is closed or the context is cancelled.
func RunAnalyzerMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
