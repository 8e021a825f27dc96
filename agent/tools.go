package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/SaiNageswarS/go-collection-boot/linq"
	"github.com/ollama/ollama/api"

	"github.com/deepxiv/deepxiv-go/llm"
	"github.com/deepxiv/deepxiv-go/reader"
)

// The fixed tool catalog. Dispatch is a closed lookup table keyed by these
// names; anything else the model asks for is rejected as a failed result.
const (
	ToolSearchPapers    = "search_papers"
	ToolLoadPaper       = "load_paper"
	ToolReadSection     = "read_section"
	ToolGetFullPaper    = "get_full_paper"
	ToolGetPaperPreview = "get_paper_preview"
)

// ToolResult is the outcome of one tool call. ID matches the requesting
// ToolCall so the result can be paired back to it in the conversation.
type ToolResult struct {
	ID       string `json:"id"`
	ToolName string `json:"tool_name"`
	OK       bool   `json:"ok"`
	Content  string `json:"content"`
}

type toolHandler func(ctx context.Context, args api.ToolCallFunctionArguments, session *Session) (string, error)

// ToolExecutor validates tool arguments and delegates to the Reader,
// maintaining the session's loaded-paper and content caches.
type ToolExecutor struct {
	reader   *reader.Reader
	handlers map[string]toolHandler
}

func NewToolExecutor(r *reader.Reader) *ToolExecutor {
	e := &ToolExecutor{reader: r}
	e.handlers = map[string]toolHandler{
		ToolSearchPapers:    e.searchPapers,
		ToolLoadPaper:       e.loadPaper,
		ToolReadSection:     e.readSection,
		ToolGetFullPaper:    e.getFullPaper,
		ToolGetPaperPreview: e.getPaperPreview,
	}
	return e
}

// Execute runs one tool call against the session. Tool-level failures come
// back as a ToolResult with OK=false and a description the model can act
// on. The error return is reserved for fatal conditions (paper service
// authentication) that must terminate the whole query.
func (e *ToolExecutor) Execute(ctx context.Context, call llm.ToolCall, session *Session) (ToolResult, error) {
	name := call.Function.Name

	handler, ok := e.handlers[name]
	if !ok {
		return ToolResult{
			ID:       call.ID,
			ToolName: name,
			Content:  fmt.Sprintf("Error: %v '%s'", ErrUnknownTool, name),
		}, nil
	}

	content, err := handler(ctx, call.Function.Arguments, session)
	if err != nil {
		if errors.Is(err, reader.ErrUnauthorized) {
			return ToolResult{}, err
		}
		return ToolResult{
			ID:       call.ID,
			ToolName: name,
			Content:  fmt.Sprintf("Error executing %s: %v", name, err),
		}, nil
	}

	return ToolResult{ID: call.ID, ToolName: name, OK: true, Content: content}, nil
}

func (e *ToolExecutor) searchPapers(ctx context.Context, args api.ToolCallFunctionArguments, _ *Session) (string, error) {
	query := stringArg(args, "query")
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("%w: 'query' is required and must be non-empty", ErrValidation)
	}

	opts := reader.SearchOptions{
		Size:         intArg(args, "size", 10),
		Offset:       intArg(args, "offset", 0),
		Mode:         reader.SearchMode(stringArgDefault(args, "search_mode", string(reader.SearchModeHybrid))),
		BM25Weight:   floatArg(args, "bm25_weight", 0.5),
		VectorWeight: floatArg(args, "vector_weight", 0.5),
		Categories:   stringSliceArg(args, "categories"),
		Authors:      stringSliceArg(args, "authors"),
		DateFrom:     stringArg(args, "date_from"),
		DateTo:       stringArg(args, "date_to"),
	}
	if _, ok := args["min_citation"]; ok {
		opts.MinCitation = intArg(args, "min_citation", 0)
		opts.HasMinCitation = true
	}

	resp, err := e.reader.Search(ctx, query, opts)
	if err != nil {
		return "", fmt.Errorf("failed to search for papers with query '%s': %w", query, err)
	}

	return formatSearchResults(query, opts, resp), nil
}

func (e *ToolExecutor) loadPaper(ctx context.Context, args api.ToolCallFunctionArguments, session *Session) (string, error) {
	arxivID := stringArg(args, "arxiv_id")
	if arxivID == "" {
		return "", fmt.Errorf("%w: 'arxiv_id' is required", ErrValidation)
	}

	// Re-loading a cached paper is a no-op: no second remote fetch.
	if head, ok := session.Paper(arxivID); ok {
		return fmt.Sprintf("Paper %s is already loaded: %s", arxivID, head.Title), nil
	}

	head, err := e.reader.Head(ctx, arxivID)
	if err != nil {
		return "", fmt.Errorf("failed to load paper %s: %w", arxivID, err)
	}

	session.PutPaper(head)
	return formatPaperLoaded(head), nil
}

func (e *ToolExecutor) readSection(ctx context.Context, args api.ToolCallFunctionArguments, session *Session) (string, error) {
	arxivID := stringArg(args, "arxiv_id")
	sectionName := stringArg(args, "section_name")
	if arxivID == "" || sectionName == "" {
		return "", fmt.Errorf("%w: 'arxiv_id' and 'section_name' are required", ErrValidation)
	}

	head, ok := session.Paper(arxivID)
	if !ok {
		return "", fmt.Errorf("%w: paper %s is not loaded, use load_paper first", ErrNotLoaded, arxivID)
	}

	canonical, ok := resolveSectionName(head, sectionName)
	if !ok {
		available := sectionNamesByIdx(head)
		return "", fmt.Errorf("%w: section '%s' not found in paper %s, available sections: %s",
			ErrSectionNotFound, sectionName, arxivID, strings.Join(available, ", "))
	}

	if content, ok := session.CachedSection(arxivID, canonical); ok {
		return formatSection(arxivID, canonical, content), nil
	}

	content, err := e.reader.Section(ctx, arxivID, canonical)
	if err != nil {
		return "", fmt.Errorf("failed to fetch section '%s' from paper %s: %w", canonical, arxivID, err)
	}

	session.PutSection(arxivID, canonical, content)
	return formatSection(arxivID, canonical, content), nil
}

func (e *ToolExecutor) getFullPaper(ctx context.Context, args api.ToolCallFunctionArguments, session *Session) (string, error) {
	arxivID := stringArg(args, "arxiv_id")
	if arxivID == "" {
		return "", fmt.Errorf("%w: 'arxiv_id' is required", ErrValidation)
	}

	if _, ok := session.Paper(arxivID); !ok {
		return "", fmt.Errorf("%w: paper %s is not loaded, use load_paper first", ErrNotLoaded, arxivID)
	}

	if content, ok := session.CachedFullPaper(arxivID); ok {
		return formatFullPaper(arxivID, content), nil
	}

	content, err := e.reader.Raw(ctx, arxivID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch full paper content for %s: %w", arxivID, err)
	}

	session.PutFullPaper(arxivID, content)
	return formatFullPaper(arxivID, content), nil
}

func (e *ToolExecutor) getPaperPreview(ctx context.Context, args api.ToolCallFunctionArguments, _ *Session) (string, error) {
	arxivID := stringArg(args, "arxiv_id")
	if arxivID == "" {
		return "", fmt.Errorf("%w: 'arxiv_id' is required", ErrValidation)
	}

	preview, err := e.reader.Preview(ctx, arxivID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch preview for %s: %w", arxivID, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Preview: %s ===\n\n", arxivID)
	b.WriteString(preview.Content)
	if preview.IsTruncated {
		fmt.Fprintf(&b, "\n\n[truncated: %d of %d characters]", preview.PreviewCharacters, preview.TotalCharacters)
	}
	b.WriteString("\n\n=== End of Preview ===")
	return b.String(), nil
}

// resolveSectionName matches a requested section name against the paper's
// sections, case-insensitively, returning the canonical name.
func resolveSectionName(head *reader.PaperHead, name string) (string, bool) {
	if _, ok := head.Sections[name]; ok {
		return name, true
	}
	for canonical := range head.Sections {
		if strings.EqualFold(canonical, name) {
			return canonical, true
		}
	}
	return "", false
}

// sectionNamesByIdx returns the section names in document order.
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

func formatSearchResults(query string, opts reader.SearchOptions, resp *reader.SearchResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Search Results for '%s' ===\n", query)
	fmt.Fprintf(&b, "Total: %d papers found | Showing: %d results\n", resp.Total, len(resp.Results))
	fmt.Fprintf(&b, "Mode: %s\n", strings.ToUpper(string(opts.Mode)))

	var filters []string
	if len(opts.Authors) > 0 {
		filters = append(filters, "Authors: "+strings.Join(opts.Authors, ", "))
	}
	if len(opts.Categories) > 0 {
		filters = append(filters, "Categories: "+strings.Join(opts.Categories, ", "))
	}
	if opts.HasMinCitation {
		filters = append(filters, fmt.Sprintf("Min Citations: %d", opts.MinCitation))
	}
	if opts.DateFrom != "" || opts.DateTo != "" {
		from, to := opts.DateFrom, opts.DateTo
		if from == "" {
			from = "*"
		}
		if to == "" {
			to = "*"
		}
		filters = append(filters, fmt.Sprintf("Date Range: %s to %s", from, to))
	}
	if len(filters) > 0 {
		fmt.Fprintf(&b, "Filters: %s\n", strings.Join(filters, " | "))
	}
	b.WriteString("\n")

	entries := linq.Map(resp.Results, func(hit reader.SearchHit) string {
		var e strings.Builder
		e.WriteString(hit.Title + "\n")
		fmt.Fprintf(&e, "   arXiv ID: %s | Score: %.3f | Citations: %d\n", hit.ArxivID, hit.Score, hit.Citation)
		if len(hit.Categories) > 0 {
			categories := hit.Categories
			if len(categories) > 3 {
				categories = categories[:3]
			}
			fmt.Fprintf(&e, "   Categories: %s\n", strings.Join(categories, ", "))
		}
		abstract := hit.Abstract
		if len(abstract) > 300 {
			abstract = abstract[:300]
		}
		fmt.Fprintf(&e, "   Abstract: %s...\n", abstract)
		return e.String()
	})

	for i, entry := range entries {
		fmt.Fprintf(&b, "%d. %s\n", opts.Offset+i+1, entry)
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatPaperLoaded(head *reader.PaperHead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Paper Loaded: %s ===\n\n", head.ArxivID)
	fmt.Fprintf(&b, "Title: %s\n", head.Title)

	fmt.Fprintf(&b, "\nAuthors (%d total):\n", len(head.Authors))
	for i, author := range head.Authors {
		if i == 5 {
			fmt.Fprintf(&b, "  ... and %d more authors\n", len(head.Authors)-5)
			break
		}
		if len(author.Orgs) > 0 {
			fmt.Fprintf(&b, "  %d. %s (%s)\n", i+1, author.Name, strings.Join(author.Orgs, ", "))
		} else {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, author.Name)
		}
	}

	categories := "N/A"
	if len(head.Categories) > 0 {
		categories = strings.Join(head.Categories, ", ")
	}
	fmt.Fprintf(&b, "\nCategories: %s\n", categories)
	fmt.Fprintf(&b, "Published: %s\n", orNA(head.PublishAt))
	fmt.Fprintf(&b, "\nAbstract:\n%s\n", head.Abstract)

	if len(head.Sections) > 0 {
		b.WriteString("\nAvailable Sections (with TLDRs):\n")
		for _, name := range sectionNamesByIdx(head) {
			info := head.Sections[name]
			fmt.Fprintf(&b, "  - %s (%d tokens):\n    %s\n", name, info.TokenCount, orNA(info.TLDR))
		}
	} else {
		b.WriteString("\nNote: Section information not available for this paper.\n")
	}

	fmt.Fprintf(&b, "\nTotal paper tokens: %d", head.TokenCount)
	return b.String()
}

func formatSection(arxivID, sectionName, content string) string {
	return fmt.Sprintf("=== Section: %s (Paper: %s) ===\n\n%s\n\n=== End of Section ===", sectionName, arxivID, content)
}

func formatFullPaper(arxivID, content string) string {
	return fmt.Sprintf("=== Full Paper: %s ===\n\n%s\n\n=== End of Full Paper ===", arxivID, content)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Argument coercion helpers. Arguments arrive as decoded JSON, so numbers
// are float64 and arrays are []interface{}.

func stringArg(args api.ToolCallFunctionArguments, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func stringArgDefault(args api.ToolCallFunctionArguments, key, fallback string) string {
	if v := stringArg(args, key); v != "" {
		return v
	}
	return fallback
}

func intArg(args api.ToolCallFunctionArguments, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func floatArg(args api.ToolCallFunctionArguments, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

func stringSliceArg(args api.ToolCallFunctionArguments, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	default:
		return nil
	}
}
