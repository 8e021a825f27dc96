package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) LLMClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenAIClient("test-key", server.URL, "test-model")
}

func TestGenerateInference(t *testing.T) {
	var gotRequest openAIRequest
	client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&gotRequest))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "Hello there"}}]}`))
	})

	var got string
	err := client.GenerateInference(context.Background(),
		[]Message{{Role: "user", Content: "Hi"}},
		func(chunk string) error {
			got += chunk
			return nil
		},
		WithSystemPrompt("You are terse."),
		WithTemperature(0.1),
		WithMaxTokens(128),
	)
	require.NoError(t, err)

	assert.Equal(t, "Hello there", got)
	assert.Equal(t, "test-model", gotRequest.Model)
	assert.Equal(t, 0.1, gotRequest.Temperature)
	assert.Equal(t, 128, gotRequest.MaxTokens)
	require.Len(t, gotRequest.Messages, 2)
	assert.Equal(t, "system", gotRequest.Messages[0].Role)
	assert.Equal(t, "You are terse.", gotRequest.Messages[0].Content)
	assert.Equal(t, "user", gotRequest.Messages[1].Role)
}

func TestGenerateInferenceWithTools_ToolCallResponse(t *testing.T) {
	var gotRequest openAIRequest
	client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&gotRequest))
		w.Write([]byte(`{"choices": [{"message": {
			"role": "assistant",
			"content": "",
			"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "search_papers", "arguments": "{\"query\": \"attention\", \"size\": 5}"}}]
		}}]}`))
	})

	tools := []api.Tool{{
		Type: "function",
		Function: api.ToolFunction{Name: "search_papers", Description: "Search papers"},
	}}

	var gotCalls []ToolCall
	err := client.GenerateInferenceWithTools(context.Background(),
		[]Message{{Role: "user", Content: "find attention papers"}},
		func(chunk string) error { return nil },
		func(calls []ToolCall) error {
			gotCalls = calls
			return nil
		},
		WithTools(tools),
	)
	require.NoError(t, err)

	require.Len(t, gotRequest.Tools, 1)
	assert.Equal(t, "search_papers", gotRequest.Tools[0].Function.Name)
	assert.Equal(t, "auto", gotRequest.ToolChoice)

	require.Len(t, gotCalls, 1)
	assert.Equal(t, "call_1", gotCalls[0].ID)
	assert.Equal(t, "search_papers", gotCalls[0].Function.Name)
	assert.Equal(t, "attention", gotCalls[0].Function.Arguments["query"])
	assert.Equal(t, float64(5), gotCalls[0].Function.Arguments["size"])
}

func TestGenerateInferenceWithTools_MissingToolCallID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {
			"role": "assistant",
			"tool_calls": [{"type": "function", "function": {"name": "load_paper", "arguments": "{\"arxiv_id\": \"2303.08774\"}"}}]
		}}]}`))
	})

	var gotCalls []ToolCall
	err := client.GenerateInferenceWithTools(context.Background(),
		[]Message{{Role: "user", Content: "load it"}},
		nil,
		func(calls []ToolCall) error {
			gotCalls = calls
			return nil
		},
		WithTools([]api.Tool{{Type: "function"}}),
	)
	require.NoError(t, err)

	require.Len(t, gotCalls, 1)
	assert.NotEmpty(t, gotCalls[0].ID, "a correlation ID must be synthesized when the provider omits one")
}

func TestStreaming(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var chunks []string
	err := client.GenerateInference(context.Background(),
		[]Message{{Role: "user", Content: "Hi"}},
		func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		},
		WithStreaming(true),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, chunks)
}

func TestStreaming_ToolCallFragments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		// Arguments arrive split across chunks and must be reassembled.
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"id\":\"call_9\",\"function\":{\"name\":\"read_section\",\"arguments\":\"{\\\"arxiv\"}}]}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"arguments\":\"_id\\\": \\\"2303.08774\\\"}\"}}]}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var gotCalls []ToolCall
	err := client.GenerateInferenceWithTools(context.Background(),
		[]Message{{Role: "user", Content: "read it"}},
		func(chunk string) error { return nil },
		func(calls []ToolCall) error {
			gotCalls = calls
			return nil
		},
		WithStreaming(true),
		WithTools([]api.Tool{{Type: "function"}}),
	)
	require.NoError(t, err)

	require.Len(t, gotCalls, 1)
	assert.Equal(t, "call_9", gotCalls[0].ID)
	assert.Equal(t, "read_section", gotCalls[0].Function.Name)
	assert.Equal(t, "2303.08774", gotCalls[0].Function.Arguments["arxiv_id"])
}

func TestWireMessages_ToolResultRole(t *testing.T) {
	var gotRequest openAIRequest
	client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&gotRequest))
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "ok"}}]}`))
	})

	messages := []Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", ToolCalls: []ToolCall{{
			ID:       "call_1",
			Function: ToolCallFunction{Name: "load_paper", Arguments: api.ToolCallFunctionArguments{"arxiv_id": "2303.08774"}},
		}}},
		{Role: "tool", Content: "loaded", ToolCallID: "call_1"},
	}

	err := client.GenerateInference(context.Background(), messages, func(string) error { return nil })
	require.NoError(t, err)

	require.Len(t, gotRequest.Messages, 3)
	assistant := gotRequest.Messages[1]
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "call_1", assistant.ToolCalls[0].ID)
	assert.JSONEq(t, `{"arxiv_id": "2303.08774"}`, assistant.ToolCalls[0].Function.Arguments)

	toolMsg := gotRequest.Messages[2]
	assert.Equal(t, "tool", toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error": {"message": "denied"}}`))
			})

			err := client.GenerateInference(context.Background(),
				[]Message{{Role: "user", Content: "Hi"}},
				func(string) error { return nil })
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetModel(t *testing.T) {
	client := NewOpenAIClient("key", "https://example.com/v1", "gpt-4o")
	assert.Equal(t, "gpt-4o", client.GetModel())
	assert.Equal(t, NativeToolCalling, client.Capabilities())
}
