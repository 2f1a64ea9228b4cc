package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/esg-benchmark/internal/coverage"
	"github.com/ziadkadry99/esg-benchmark/internal/standards"
	"github.com/ziadkadry99/esg-benchmark/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Analyzer is the slice of the benchmark service the tools use.
type Analyzer interface {
	AnalyzeCompanyIssues(ctx context.Context, path, company string) (coverage.Map, error)
	CachedCompany(company string) (coverage.Map, error)
	CachedCompanies() []string
	Search(ctx context.Context, path, query string, k int) ([]vectordb.Passage, error)
}

// DisclosureClassifier maps free disclosure text onto the taxonomy.
type DisclosureClassifier interface {
	ClassifyText(ctx context.Context, text string) (standards.Classification, error)
}

// Server wraps an MCP server that exposes benchmark tools.
type Server struct {
	analyzer   Analyzer
	classifier DisclosureClassifier
	mcp        *server.MCPServer
}

// NewServer creates a new MCP server. classifier may be nil, in which case
// classify_disclosure is not offered.
func NewServer(analyzer Analyzer, classifier DisclosureClassifier) *Server {
	s := &Server{
		analyzer:   analyzer,
		classifier: classifier,
	}

	s.mcp = server.NewMCPServer(
		"esgbench",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listTaxonomyTool, s.handleListTaxonomy)
	s.mcp.AddTool(analyzeCompanyTool, s.handleAnalyzeCompany)
	s.mcp.AddTool(getCompanyAnalysisTool, s.handleGetCompanyAnalysis)
	s.mcp.AddTool(searchReportTool, s.handleSearchReport)
	if s.classifier != nil {
		s.mcp.AddTool(classifyDisclosureTool, s.handleClassifyDisclosure)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
