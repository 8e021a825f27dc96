package agent

import "github.com/ollama/ollama/api"

// ToolCatalog returns the function-calling schemas for the fixed tool set,
// in the shape OpenAI-compatible endpoints expect.
func ToolCatalog() []api.Tool {
	return []api.Tool{
		toolSchema(ToolSearchPapers,
			"Search for papers using hybrid search (BM25 + Vector). Supports multiple search modes and advanced filtering by categories, authors, citations, and publication dates. Returns a list of papers with their arXiv IDs, titles, abstracts, authors, categories, and citation counts.",
			map[string]api.ToolProperty{
				"query": {
					Type:        api.PropertyType{"string"},
					Description: "The search query (e.g., 'agent memory', 'transformer models')",
				},
				"size": {
					Type:        api.PropertyType{"integer"},
					Description: "Number of results to return (default: 10, max: 100)",
				},
				"offset": {
					Type:        api.PropertyType{"integer"},
					Description: "Result offset for pagination (default: 0)",
				},
				"search_mode": {
					Type:        api.PropertyType{"string"},
					Enum:        []any{"bm25", "vector", "hybrid"},
					Description: "Search mode: 'bm25' for keyword matching, 'vector' for semantic search, 'hybrid' for combined (default: 'hybrid')",
				},
				"bm25_weight": {
					Type:        api.PropertyType{"number"},
					Description: "BM25 weight for hybrid search (default: 0.5, range: 0-1)",
				},
				"vector_weight": {
					Type:        api.PropertyType{"number"},
					Description: "Vector weight for hybrid search (default: 0.5, range: 0-1)",
				},
				"categories": {
					Type:        api.PropertyType{"array"},
					Items:       map[string]any{"type": "string"},
					Description: "Filter by arXiv categories (e.g., ['cs.AI', 'cs.CL'])",
				},
				"authors": {
					Type:        api.PropertyType{"array"},
					Items:       map[string]any{"type": "string"},
					Description: "Filter by author names (e.g., ['John Doe'])",
				},
				"min_citation": {
					Type:        api.PropertyType{"integer"},
					Description: "Minimum citation count filter",
				},
				"date_from": {
					Type:        api.PropertyType{"string"},
					Description: "Publication date from (format: YYYY-MM-DD)",
				},
				"date_to": {
					Type:        api.PropertyType{"string"},
					Description: "Publication date to (format: YYYY-MM-DD)",
				},
			},
			[]string{"query"},
		),
		toolSchema(ToolLoadPaper,
			"Load a paper's metadata and structure. This must be called before reading sections or getting full content. Returns paper title, abstract, authors, available sections with TLDRs.",
			map[string]api.ToolProperty{
				"arxiv_id": {
					Type:        api.PropertyType{"string"},
					Description: "The arXiv ID of the paper (e.g., '2503.04975')",
				},
			},
			[]string{"arxiv_id"},
		),
		toolSchema(ToolReadSection,
			"Read the full content of a specific section from a loaded paper. Use this when you need detailed information beyond the section TLDR. The section_name must match one of the available sections shown in the paper metadata.",
			map[string]api.ToolProperty{
				"arxiv_id": {
					Type:        api.PropertyType{"string"},
					Description: "The arXiv ID of the paper (e.g., '2503.04975')",
				},
				"section_name": {
					Type:        api.PropertyType{"string"},
					Description: "The name of the section to read (matched case-insensitively against section names from paper metadata, e.g., 'Introduction', 'Method', 'Results')",
				},
			},
			[]string{"arxiv_id", "section_name"},
		),
		toolSchema(ToolGetFullPaper,
			"Get the complete full text of a paper in markdown format. This includes ALL sections and content. Use this when you need to analyze the entire paper comprehensively or when multiple sections are needed. Note: This may return a very large amount of text.",
			map[string]api.ToolProperty{
				"arxiv_id": {
					Type:        api.PropertyType{"string"},
					Description: "The arXiv ID of the paper (e.g., '2503.04975')",
				},
			},
			[]string{"arxiv_id"},
		),
		toolSchema(ToolGetPaperPreview,
			"Get a preview of the paper with limited length. Good for a quick overview without loading the full paper.",
			map[string]api.ToolProperty{
				"arxiv_id": {
					Type:        api.PropertyType{"string"},
					Description: "The arXiv ID of the paper (e.g., '2503.04975')",
				},
			},
			[]string{"arxiv_id"},
		),
	}
}

func toolSchema(name, description string, props map[string]api.ToolProperty, required []string) api.Tool {
	tool := api.Tool{
		Type: "function",
		Function: api.ToolFunction{
			Name:        name,
			Description: description,
		},
	}
	tool.Function.Parameters.Type = "object"
	tool.Function.Parameters.Properties = props
	tool.Function.Parameters.Required = required
	return tool
}
