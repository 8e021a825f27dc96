// Package mcpserver exposes the paper-data service as MCP tools over stdio,
// so MCP-capable hosts can search and read papers without the built-in agent.
package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/deepxiv/deepxiv-go/reader"
)

// New builds an MCP server backed by the given reader.
func New(r *reader.Reader, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"deepxiv",
		version,
		server.WithLogging(),
	)
	registerTools(s, r)
	return s
}

// ServeStdio runs the server on stdin/stdout until the host disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func registerTools(s *server.MCPServer, r *reader.Reader) {
	// search_papers
	s.AddTool(mcp.NewTool("search_papers",
		mcp.WithDescription("Search arXiv papers by topic, keywords, or authors"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("size", mcp.Description("Number of results to return (default: 10)")),
		mcp.WithString("mode", mcp.Description("Search mode: hybrid, bm25, or vector (default: hybrid)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})
		query, _ := args["query"].(string)

		opts := reader.SearchOptions{Size: 10, Mode: reader.SearchModeHybrid}
		if size, ok := args["size"].(float64); ok && size > 0 {
			opts.Size = int(size)
		}
		if mode, ok := args["mode"].(string); ok && mode != "" {
			opts.Mode = reader.SearchMode(mode)
		}

		resp, err := r.Search(ctx, query, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatSearchResults(resp)), nil
	})

	// get_paper
	s.AddTool(mcp.NewTool("get_paper",
		mcp.WithDescription("Get a paper's metadata: title, abstract, authors, and section list"),
		mcp.WithString("arxiv_id", mcp.Required(), mcp.Description("arXiv identifier, e.g. 2303.08774")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})
		arxivID, _ := args["arxiv_id"].(string)

		head, err := r.Head(ctx, arxivID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to fetch paper %s: %v", arxivID, err)), nil
		}
		return mcp.NewToolResultText(formatPaperHead(head)), nil
	})

	// get_section
	s.AddTool(mcp.NewTool("get_section",
		mcp.WithDescription("Get the full text of one section of a paper"),
		mcp.WithString("arxiv_id", mcp.Required(), mcp.Description("arXiv identifier")),
		mcp.WithString("section_name", mcp.Required(), mcp.Description("Section name as listed in the paper's metadata")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})
		arxivID, _ := args["arxiv_id"].(string)
		sectionName, _ := args["section_name"].(string)

		content, err := r.Section(ctx, arxivID, sectionName)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to fetch section %q of %s: %v", sectionName, arxivID, err)), nil
		}
		return mcp.NewToolResultText(content), nil
	})

	// get_preview
	s.AddTool(mcp.NewTool("get_preview",
		mcp.WithDescription("Get a short preview of a paper's content"),
		mcp.WithString("arxiv_id", mcp.Required(), mcp.Description("arXiv identifier")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})
		arxivID, _ := args["arxiv_id"].(string)

		preview, err := r.Preview(ctx, arxivID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to fetch preview of %s: %v", arxivID, err)), nil
		}
		return mcp.NewToolResultText(preview.Content), nil
	})
}

func formatSearchResults(resp *reader.SearchResponse) string {
	if len(resp.Results) == 0 {
		return "No papers found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d papers:\n\n", resp.Total)
	for i, hit := range resp.Results {
		fmt.Fprintf(&sb, "%d. %s (arxiv_id: %s)\n", i+1, hit.Title, hit.ArxivID)
		if abstract := strings.TrimSpace(hit.Abstract); abstract != "" {
			fmt.Fprintf(&sb, "   %s\n", abstract)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

func formatPaperHead(head *reader.PaperHead) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", head.Title)
	fmt.Fprintf(&sb, "arXiv ID: %s\n", head.ArxivID)
	if names := head.Authors.Names(); names != "" {
		fmt.Fprintf(&sb, "Authors: %s\n", names)
	}
	if len(head.Categories) > 0 {
		fmt.Fprintf(&sb, "Categories: %s\n", strings.Join(head.Categories, ", "))
	}
	fmt.Fprintf(&sb, "\nAbstract:\n%s\n", head.Abstract)

	if len(head.Sections) > 0 {
		sb.WriteString("\nSections:\n")
		for _, name := range sectionNamesByIdx(head) {
			info := head.Sections[name]
			fmt.Fprintf(&sb, "  %d. %s (%d tokens)\n", info.Idx, name, info.TokenCount)
		}
	}
	return strings.TrimSpace(sb.String())
}

// sectionNamesByIdx returns section names ordered by their position in the
// paper.
func sectionNamesByIdx(head *reader.PaperHead) []string {
	names := make([]string, 0, len(head.Sections))
	for name := range head.Sections {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return head.Sections[names[i]].Idx < head.Sections[names[j]].Idx
	})
	return names
}
