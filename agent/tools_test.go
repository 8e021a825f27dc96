package agent

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepxiv/deepxiv-go/llm"
	"github.com/deepxiv/deepxiv-go/reader"
)

// paperService is a fake paper-data endpoint driven by the "type" query
// parameter, the same way the real service multiplexes requests.
type paperService struct {
	requests []string // type values seen, in order
}

func (ps *paperService) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		kind := req.URL.Query().Get("type")
		ps.requests = append(ps.requests, kind)

		switch kind {
		case "retrieve":
			if req.URL.Query().Get("query") == "no results" {
				w.Write([]byte(`{"total": 0, "took": 1, "results": []}`))
				return
			}
			w.Write([]byte(`{"total": 1, "took": 3, "results": [
				{"arxiv_id": "2303.08774", "title": "GPT-4 Technical Report", "abstract": "We report...", "score": 0.9, "citation": 12000, "categories": "cs.CL"}
			]}`))
		case "head":
			if req.URL.Query().Get("arxiv_id") == "9999.99999" {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"detail": "paper not found"}`))
				return
			}
			w.Write([]byte(`{
				"title": "GPT-4 Technical Report",
				"abstract": "We report the development of GPT-4.",
				"authors": [{"name": "Alice"}, {"name": "Bob"}],
				"token_count": 45000,
				"sections": {
					"Introduction": {"idx": 0, "tldr": "Scope", "token_count": 900},
					"Conclusion": {"idx": 1, "token_count": 400}
				}
			}`))
		case "section":
			fmt.Fprintf(w, `{"content": "Text of %s"}`, req.URL.Query().Get("section"))
		case "raw":
			w.Write([]byte(`{"raw": "# Full paper body"}`))
		case "preview":
			w.Write([]byte(`{"content": "Preview text", "is_truncated": true, "total_characters": 1000, "preview_characters": 100}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}
}

func (ps *paperService) countRequests(kind string) int {
	n := 0
	for _, k := range ps.requests {
		if k == kind {
			n++
		}
	}
	return n
}

func newTestExecutor(t *testing.T) (*ToolExecutor, *paperService) {
	t.Helper()
	ps := &paperService{}
	server := httptest.NewServer(ps.handler())
	t.Cleanup(server.Close)
	return NewToolExecutor(reader.NewReader("token", reader.WithBaseURL(server.URL))), ps
}

func toolCall(id, name string, args api.ToolCallFunctionArguments) llm.ToolCall {
	return llm.ToolCall{ID: id, Function: llm.ToolCallFunction{Name: name, Arguments: args}}
}

func TestExecute_UnknownTool(t *testing.T) {
	executor, _ := newTestExecutor(t)
	session := NewSession(nil, nil)

	result, err := executor.Execute(context.Background(),
		toolCall("call_1", "delete_papers", nil), session)

	require.NoError(t, err, "unknown tools must not abort the query")
	assert.False(t, result.OK)
	assert.Equal(t, "call_1", result.ID)
	assert.Contains(t, result.Content, "delete_papers")
}

func TestExecute_SearchPapers(t *testing.T) {
	executor, _ := newTestExecutor(t)
	session := NewSession(nil, nil)

	result, err := executor.Execute(context.Background(),
		toolCall("call_1", ToolSearchPapers, api.ToolCallFunctionArguments{
			"query": "gpt-4",
			"size":  float64(5),
		}), session)

	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Contains(t, result.Content, "GPT-4 Technical Report")
	assert.Contains(t, result.Content, "2303.08774")

	// Search results never enter the loaded-paper cache.
	_, loaded := session.Paper("2303.08774")
	assert.False(t, loaded)
}

func TestExecute_SearchPapers_EmptyQuery(t *testing.T) {
	executor, ps := newTestExecutor(t)
	session := NewSession(nil, nil)

	result, err := executor.Execute(context.Background(),
		toolCall("call_1", ToolSearchPapers, api.ToolCallFunctionArguments{"query": "  "}), session)

	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Contains(t, result.Content, "query")
	assert.Zero(t, ps.countRequests("retrieve"), "validation failures must not hit the service")
}

func TestExecute_LoadPaper_Idempotent(t *testing.T) {
	executor, ps := newTestExecutor(t)
	session := NewSession(nil, nil)
	args := api.ToolCallFunctionArguments{"arxiv_id": "2303.08774"}

	first, err := executor.Execute(context.Background(), toolCall("call_1", ToolLoadPaper, args), session)
	require.NoError(t, err)
	assert.True(t, first.OK)
	assert.Contains(t, first.Content, "GPT-4 Technical Report")

	second, err := executor.Execute(context.Background(), toolCall("call_2", ToolLoadPaper, args), session)
	require.NoError(t, err)
	assert.True(t, second.OK)
	assert.Contains(t, second.Content, "already loaded")
	assert.Equal(t, 1, ps.countRequests("head"), "re-loading must not fetch again")

	assert.Len(t, session.Papers(), 1)
}

func TestExecute_LoadPaper_NotFound(t *testing.T) {
	executor, _ := newTestExecutor(t)
	session := NewSession(nil, nil)

	result, err := executor.Execute(context.Background(),
		toolCall("call_1", ToolLoadPaper, api.ToolCallFunctionArguments{"arxiv_id": "9999.99999"}), session)

	require.NoError(t, err, "a missing paper is a tool failure, not a query failure")
	assert.False(t, result.OK)
	assert.Contains(t, result.Content, "9999.99999")
}

func TestExecute_ReadSection_RequiresLoadedPaper(t *testing.T) {
	executor, _ := newTestExecutor(t)
	session := NewSession(nil, nil)

	result, err := executor.Execute(context.Background(),
		toolCall("call_1", ToolReadSection, api.ToolCallFunctionArguments{
			"arxiv_id":     "2303.08774",
			"section_name": "Introduction",
		}), session)

	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Contains(t, result.Content, "not loaded")
}

func TestExecute_ReadSection_CaseInsensitive(t *testing.T) {
	executor, ps := newTestExecutor(t)
	session := NewSession(nil, nil)

	_, err := executor.Execute(context.Background(),
		toolCall("call_1", ToolLoadPaper, api.ToolCallFunctionArguments{"arxiv_id": "2303.08774"}), session)
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(),
		toolCall("call_2", ToolReadSection, api.ToolCallFunctionArguments{
			"arxiv_id":     "2303.08774",
			"section_name": "introduction",
		}), session)

	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Contains(t, result.Content, "Text of Introduction", "the canonical name goes to the service")

	// A repeat read, any casing, comes from the session cache.
	_, err = executor.Execute(context.Background(),
		toolCall("call_3", ToolReadSection, api.ToolCallFunctionArguments{
			"arxiv_id":     "2303.08774",
			"section_name": "INTRODUCTION",
		}), session)
	require.NoError(t, err)
	assert.Equal(t, 1, ps.countRequests("section"))
}

func TestExecute_ReadSection_UnknownSection(t *testing.T) {
	executor, _ := newTestExecutor(t)
	session := NewSession(nil, nil)

	_, err := executor.Execute(context.Background(),
		toolCall("call_1", ToolLoadPaper, api.ToolCallFunctionArguments{"arxiv_id": "2303.08774"}), session)
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(),
		toolCall("call_2", ToolReadSection, api.ToolCallFunctionArguments{
			"arxiv_id":     "2303.08774",
			"section_name": "Appendix Z",
		}), session)

	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Contains(t, result.Content, "Introduction", "failure must list available sections")
	assert.Contains(t, result.Content, "Conclusion")
}

func TestExecute_GetFullPaper_Cached(t *testing.T) {
	executor, ps := newTestExecutor(t)
	session := NewSession(nil, nil)

	_, err := executor.Execute(context.Background(),
		toolCall("call_1", ToolLoadPaper, api.ToolCallFunctionArguments{"arxiv_id": "2303.08774"}), session)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		result, err := executor.Execute(context.Background(),
			toolCall(fmt.Sprintf("call_%d", i+2), ToolGetFullPaper,
				api.ToolCallFunctionArguments{"arxiv_id": "2303.08774"}), session)
		require.NoError(t, err)
		assert.True(t, result.OK)
		assert.Contains(t, result.Content, "Full paper body")
	}
	assert.Equal(t, 1, ps.countRequests("raw"))
}

func TestExecute_GetPaperPreview(t *testing.T) {
	executor, _ := newTestExecutor(t)
	session := NewSession(nil, nil)

	// Preview does not require the paper to be loaded.
	result, err := executor.Execute(context.Background(),
		toolCall("call_1", ToolGetPaperPreview, api.ToolCallFunctionArguments{"arxiv_id": "2303.08774"}), session)

	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Contains(t, result.Content, "Preview text")
	assert.Contains(t, result.Content, "truncated")
}

func TestExecute_UnauthorizedIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "invalid token"}`))
	}))
	defer server.Close()

	executor := NewToolExecutor(reader.NewReader("bad", reader.WithBaseURL(server.URL)))
	session := NewSession(nil, nil)

	_, err := executor.Execute(context.Background(),
		toolCall("call_1", ToolLoadPaper, api.ToolCallFunctionArguments{"arxiv_id": "2303.08774"}), session)

	assert.ErrorIs(t, err, reader.ErrUnauthorized)
}

func TestToolCatalog(t *testing.T) {
	catalog := ToolCatalog()
	require.Len(t, catalog, 5)

	names := make(map[string]bool)
	for _, tool := range catalog {
		names[tool.Function.Name] = true
		assert.Equal(t, "function", tool.Type)
	}
	for _, want := range []string{ToolSearchPapers, ToolLoadPaper, ToolReadSection, ToolGetFullPaper, ToolGetPaperPreview} {
		assert.True(t, names[want], "catalog missing %s", want)
	}
}
