package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deepxiv/deepxiv-go/llm"
)

func TestTranscriptManager_LoadSession_NilCollection(t *testing.T) {
	tm := NewTranscriptManager(nil, 10)
	transcript := tm.LoadSession(context.Background(), "session-1")

	assert.NotNil(t, transcript)
	assert.Equal(t, "session-1", transcript.ID)
	assert.Empty(t, transcript.Messages)
}

func TestTranscriptManager_SaveSession_NilCollection(t *testing.T) {
	tm := NewTranscriptManager(nil, 10)
	transcript := &Transcript{
		ID:       "session-1",
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
	}

	assert.NoError(t, tm.SaveSession(context.Background(), transcript))
}

func TestTranscript_AddPaper_Deduplicates(t *testing.T) {
	transcript := &Transcript{}
	transcript.AddPaper("2303.08774")
	transcript.AddPaper("2201.11903")
	transcript.AddPaper("2303.08774")

	assert.Equal(t, []string{"2303.08774", "2201.11903"}, transcript.PaperIDs)
}

func TestTranscriptManager_trimForSession(t *testing.T) {
	tests := []struct {
		name     string
		maxTurns int
		input    []llm.Message
		expected []llm.Message
	}{
		{
			name:     "empty messages",
			maxTurns: 5,
			input:    []llm.Message{},
			expected: []llm.Message{},
		},
		{
			name:     "maxTurns is 0",
			maxTurns: 0,
			input:    []llm.Message{{Role: "user", Content: "Hello"}},
			expected: []llm.Message{},
		},
		{
			name:     "fewer turns than max",
			maxTurns: 5,
			input: []llm.Message{
				{Role: "user", Content: "Hello"},
				{Role: "assistant", Content: "Hi!"},
			},
			expected: []llm.Message{
				{Role: "user", Content: "Hello"},
				{Role: "assistant", Content: "Hi!"},
			},
		},
		{
			name:     "more turns than max",
			maxTurns: 2,
			input: []llm.Message{
				{Role: "user", Content: "one"},
				{Role: "assistant", Content: "1"},
				{Role: "user", Content: "two"},
				{Role: "assistant", Content: "2"},
				{Role: "user", Content: "three"},
				{Role: "assistant", Content: "3"},
			},
			expected: []llm.Message{
				{Role: "user", Content: "two"},
				{Role: "assistant", Content: "2"},
				{Role: "user", Content: "three"},
				{Role: "assistant", Content: "3"},
			},
		},
		{
			name:     "tool messages stay with their turn",
			maxTurns: 1,
			input: []llm.Message{
				{Role: "user", Content: "old question"},
				{Role: "assistant", Content: "old answer"},
				{Role: "user", Content: "new question"},
				{Role: "assistant", ToolCalls: []llm.ToolCall{{ID: "call_1"}}},
				{Role: "tool", Content: "result", ToolCallID: "call_1"},
				{Role: "assistant", Content: "new answer"},
			},
			expected: []llm.Message{
				{Role: "user", Content: "new question"},
				{Role: "assistant", ToolCalls: []llm.ToolCall{{ID: "call_1"}}},
				{Role: "tool", Content: "result", ToolCallID: "call_1"},
				{Role: "assistant", Content: "new answer"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := NewTranscriptManager(nil, tt.maxTurns)
			assert.Equal(t, tt.expected, tm.trimForSession(tt.input))
		})
	}
}
