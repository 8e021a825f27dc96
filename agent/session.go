package agent

import (
	"strings"
	"time"

	"github.com/deepxiv/deepxiv-go/llm"
	"github.com/deepxiv/deepxiv-go/reader"
)

// Session is the mutable state of one in-flight query: the conversation,
// the loaded-paper cache and the limit counters. It is owned by exactly
// one query; there is no concurrent mutation.
type Session struct {
	Messages []llm.Message

	papers     map[string]*reader.PaperHead
	paperOrder []string

	// Content fetched during the session, keyed by paper id. Section keys
	// are canonical section names as they appear in the paper head.
	sectionCache map[string]map[string]string
	fullCache    map[string]string

	LLMCalls  int
	StartTime time.Time
}

// NewSession creates a session seeded with the given paper cache. The map
// is copied so later mutation stays confined to this session; the records
// themselves are immutable and shared.
func NewSession(papers map[string]*reader.PaperHead, order []string) *Session {
	s := &Session{
		papers:       make(map[string]*reader.PaperHead, len(papers)),
		paperOrder:   make([]string, len(order)),
		sectionCache: make(map[string]map[string]string),
		fullCache:    make(map[string]string),
		StartTime:    time.Now(),
	}
	for id, head := range papers {
		s.papers[id] = head
	}
	copy(s.paperOrder, order)
	return s
}

func (s *Session) AddUserMessage(content string) {
	s.Messages = append(s.Messages, llm.Message{Role: "user", Content: content})
}

func (s *Session) AddAssistantMessage(content string, toolCalls []llm.ToolCall) {
	s.Messages = append(s.Messages, llm.Message{
		Role:      "assistant",
		Content:   content,
		ToolCalls: toolCalls,
	})
}

// AddToolResult appends the tool-role turn answering one tool call.
func (s *Session) AddToolResult(result ToolResult) {
	s.Messages = append(s.Messages, llm.Message{
		Role:       "tool",
		Content:    result.Content,
		ToolCallID: result.ID,
	})
}

// Paper returns the cached record for id, if loaded.
func (s *Session) Paper(id string) (*reader.PaperHead, bool) {
	head, ok := s.papers[id]
	return head, ok
}

// PutPaper inserts a record if absent. Returns false when the id was
// already cached, in which case no state changes.
func (s *Session) PutPaper(head *reader.PaperHead) bool {
	if _, ok := s.papers[head.ArxivID]; ok {
		return false
	}
	s.papers[head.ArxivID] = head
	s.paperOrder = append(s.paperOrder, head.ArxivID)
	return true
}

// Papers returns the cached records in insertion order.
func (s *Session) Papers() []*reader.PaperHead {
	heads := make([]*reader.PaperHead, 0, len(s.paperOrder))
	for _, id := range s.paperOrder {
		heads = append(heads, s.papers[id])
	}
	return heads
}

// CachedSection returns a previously fetched section, matched by
// canonical name.
func (s *Session) CachedSection(id, canonicalName string) (string, bool) {
	sections, ok := s.sectionCache[id]
	if !ok {
		return "", false
	}
	content, ok := sections[canonicalName]
	return content, ok
}

func (s *Session) PutSection(id, canonicalName, content string) {
	if s.sectionCache[id] == nil {
		s.sectionCache[id] = make(map[string]string)
	}
	s.sectionCache[id][canonicalName] = content
}

func (s *Session) CachedFullPaper(id string) (string, bool) {
	content, ok := s.fullCache[id]
	return content, ok
}

func (s *Session) PutFullPaper(id, content string) {
	s.fullCache[id] = content
}

// Elapsed is the wall-clock time since the query started.
func (s *Session) Elapsed() time.Duration {
	return time.Since(s.StartTime)
}

// formatPaperContext renders the loaded-paper cache for the system prompt.
func formatPaperContext(papers []*reader.PaperHead) string {
	if len(papers) == 0 {
		return "No papers have been loaded yet."
	}

	var b strings.Builder
	b.WriteString("=== Loaded Papers ===\n")
	for _, head := range papers {
		b.WriteString("\n## Paper: " + head.ArxivID + "\n")
		b.WriteString("Title: " + head.Title + "\n")
		abstract := head.Abstract
		if len(abstract) > 200 {
			abstract = abstract[:200] + "..."
		}
		b.WriteString("Abstract: " + abstract + "\n")
	}
	return b.String()
}
