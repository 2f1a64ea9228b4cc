package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listTaxonomyTool = mcp.NewTool("list_taxonomy",
	mcp.WithDescription("List the 18 reference ESG issues with their E/S/G category and keywords."),
	mcp.WithString("category",
		mcp.Description("Only list issues in this category"),
		mcp.Enum("E", "S", "G"),
	),
)

var analyzeCompanyTool = mcp.NewTool("analyze_company",
	mcp.WithDescription("Analyze a sustainability report PDF and return Yes/Partially/No coverage for every reference issue. Results are cached per company."),
	mcp.WithString("company",
		mcp.Required(),
		mcp.Description("Company name used as the cache key"),
	),
	mcp.WithString("pdf_path",
		mcp.Required(),
		mcp.Description("Path to the report PDF"),
	),
)

var getCompanyAnalysisTool = mcp.NewTool("get_company_analysis",
	mcp.WithDescription("Get the cached coverage analysis for a company without re-running it."),
	mcp.WithString("company",
		mcp.Required(),
		mcp.Description("Company name as it was analyzed"),
	),
)

var searchReportTool = mcp.NewTool("search_report",
	mcp.WithDescription("Semantic search over a report PDF. Returns matching passages with page numbers."),
	mcp.WithString("pdf_path",
		mcp.Required(),
		mcp.Description("Path to the report PDF"),
	),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of passages to return (default 5)"),
	),
)

var classifyDisclosureTool = mcp.NewTool("classify_disclosure",
	mcp.WithDescription("Map a standard disclosure (GRI, SASB, ...) onto the closest reference issue."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Disclosure title and description"),
	),
)
