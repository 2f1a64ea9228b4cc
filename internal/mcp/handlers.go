package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/esg-benchmark/internal/analysiscache"
	"github.com/ziadkadry99/esg-benchmark/internal/coverage"
	"github.com/ziadkadry99/esg-benchmark/internal/taxonomy"
	"github.com/ziadkadry99/esg-benchmark/internal/vectordb"
)

func (s *Server) handleListTaxonomy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := taxonomy.All()
	if c := request.GetString("category", ""); c != "" {
		items = taxonomy.ByCategory(taxonomy.Category(c))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d issue(s):\n", len(items))
	for i, it := range items {
		fmt.Fprintf(&sb, "%d. [%s] %s: %s\n", i+1, it.Category, it.Name, strings.Join(it.Keywords, ", "))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleAnalyzeCompany(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	company, err := request.RequireString("company")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: company"), nil
	}
	path, err := request.RequireString("pdf_path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: pdf_path"), nil
	}
	if _, err := os.Stat(path); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("file not found: %s", path)), nil
	}

	m, err := s.analyzer.AnalyzeCompanyIssues(ctx, path, company)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatAnalysis(company, m)), nil
}

func (s *Server) handleGetCompanyAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	company, err := request.RequireString("company")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: company"), nil
	}

	m, err := s.analyzer.CachedCompany(company)
	if errors.Is(err, analysiscache.ErrNotFound) {
		known := s.analyzer.CachedCompanies()
		msg := fmt.Sprintf("No analysis cached for %q. Run analyze_company first.", company)
		if len(known) > 0 {
			msg += " Cached companies: " + strings.Join(known, ", ")
		}
		return mcp.NewToolResultError(msg), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatAnalysis(company, m)), nil
}

func (s *Server) handleSearchReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("pdf_path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: pdf_path"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	results, err := s.analyzer.Search(ctx, path, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No passages found."), nil
	}
	return mcp.NewToolResultText(formatPassages(results)), nil
}

func (s *Server) handleClassifyDisclosure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil || strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	c, err := s.classifier.ClassifyText(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classification failed: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Issue: %s", c.Item)
	if c.Category != "" {
		fmt.Fprintf(&sb, " [%s]", c.Category)
	}
	fmt.Fprintf(&sb, "\nConfidence: %.2f\n", c.Confidence)
	if c.Rationale != "" {
		fmt.Fprintf(&sb, "Rationale: %s\n", c.Rationale)
	}
	sb.WriteString("Candidates:\n")
	for _, cand := range c.Candidates {
		fmt.Fprintf(&sb, "- %s (similarity %.3f)\n", cand.Item, cand.Similarity)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatAnalysis renders a coverage map in taxonomy order.
func formatAnalysis(company string, m coverage.Map) string {
	sum := coverage.Summarize(m)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d full, %d partial, %d none (coverage %.1f%%)\n",
		company, sum.Full, sum.Partial, sum.None, sum.CoverageRate)

	for _, it := range taxonomy.All() {
		r, ok := m[it.Name]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "\n[%s] %s: %s", it.Category, it.Name, r.Coverage)
		if len(r.SourcePages) > 0 {
			pages := make([]string, len(r.SourcePages))
			for i, p := range r.SourcePages {
				pages[i] = fmt.Sprint(p)
			}
			fmt.Fprintf(&sb, " (pages %s)", strings.Join(pages, ", "))
		}
		sb.WriteString("\n")
		if r.Response != "" {
			sb.WriteString(r.Response)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatPassages(results []vectordb.Passage) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d passage(s):\n", len(results))
	for i, p := range results {
		fmt.Fprintf(&sb, "\n--- Passage %d ---\n", i+1)
		fmt.Fprintf(&sb, "Page: %d\n", p.Page)
		fmt.Fprintf(&sb, "Similarity: %.1f%%\n\n", p.Similarity*100)
		sb.WriteString(p.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
