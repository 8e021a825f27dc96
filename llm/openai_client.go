package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/ollama/ollama/api"
)

// Typed transport failures. Authorization errors are fatal to a query;
// rate limits are surfaced distinctly and never retried here.
var (
	ErrUnauthorized = errors.New("llm authorization failed")
	ErrRateLimited  = errors.New("llm rate limit exceeded")
)

// OpenAIClient talks to any OpenAI-compatible chat-completions endpoint
// (OpenAI, DeepSeek, OpenRouter, vLLM, ...).
type OpenAIClient struct {
	apiKey     string
	httpClient *http.Client
	url        string
	model      string
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
// An empty apiKey falls back to the OPENAI_API_KEY environment variable,
// and an empty baseURL to https://api.openai.com/v1.
func NewOpenAIClient(apiKey, baseURL, model string) LLMClient {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
		if envURL := os.Getenv("OPENAI_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
	}

	return &OpenAIClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
		url:        strings.TrimRight(baseURL, "/") + "/chat/completions",
		model:      model,
	}
}

func (c *OpenAIClient) Capabilities() Capability {
	return NativeToolCalling
}

func (c *OpenAIClient) GetModel() string {
	return c.model
}

func (c *OpenAIClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	return c.GenerateInferenceWithTools(ctx, messages, callback, nil, opts...)
}

func (c *OpenAIClient) GenerateInferenceWithTools(
	ctx context.Context,
	messages []Message,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []ToolCall) error,
	opts ...LLMOption,
) error {
	// Default settings
	settings := LLMSettings{
		model:       c.model,
		temperature: 0.7,
		maxTokens:   4096,
		stream:      false,
	}

	// Apply options
	for _, opt := range opts {
		opt(&settings)
	}

	request := openAIRequest{
		Model:       settings.model,
		Messages:    toWireMessages(messages),
		Temperature: settings.temperature,
		MaxTokens:   settings.maxTokens,
		Stream:      settings.stream,
	}

	if toolCallback != nil && len(settings.tools) > 0 {
		request.Tools = convertTools(settings.tools)
		request.ToolChoice = settings.toolChoice
		if request.ToolChoice == "" {
			request.ToolChoice = "auto"
		}
	}

	// System prompt goes first in the messages array
	if settings.system != "" {
		systemMsg := openAIMessage{Role: "system", Content: settings.system}
		request.Messages = append([]openAIMessage{systemMsg}, request.Messages...)
	}

	return c.makeRequest(ctx, request, contentCallback, toolCallback)
}

func (c *OpenAIClient) makeRequest(
	ctx context.Context,
	request openAIRequest,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []ToolCall) error,
) error {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrUnauthorized, string(body))
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, string(body))
		default:
			return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}
	}

	if request.Stream {
		return c.consumeStream(resp.Body, contentCallback, toolCallback)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("error unmarshaling response: %w", err)
	}

	if len(response.Choices) == 0 {
		return fmt.Errorf("no choices in response")
	}

	choice := response.Choices[0]

	if len(choice.Message.ToolCalls) > 0 && toolCallback != nil {
		toolCalls, err := parseToolCalls(choice.Message.ToolCalls)
		if err != nil {
			return err
		}
		return toolCallback(toolCalls)
	}

	if choice.Message.Content != "" && contentCallback != nil {
		return contentCallback(choice.Message.Content)
	}

	return nil
}

// consumeStream reads a chat-completions SSE stream, forwarding content
// deltas to contentCallback as they arrive and accumulating tool-call
// argument fragments by index until the stream ends.
func (c *OpenAIClient) consumeStream(
	body io.Reader,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []ToolCall) error,
) error {
	partials := map[int]*openAIToolCall{}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var chunk openAIStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("error unmarshaling stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta

		if delta.Content != "" && contentCallback != nil {
			if err := contentCallback(delta.Content); err != nil {
				return err
			}
		}

		for _, tc := range delta.ToolCalls {
			partial, ok := partials[tc.Index]
			if !ok {
				partial = &openAIToolCall{Type: "function"}
				partials[tc.Index] = partial
			}
			if tc.ID != "" {
				partial.ID = tc.ID
			}
			if tc.Function.Name != "" {
				partial.Function.Name = tc.Function.Name
			}
			partial.Function.Arguments += tc.Function.Arguments
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading stream: %w", err)
	}

	if len(partials) == 0 || toolCallback == nil {
		return nil
	}

	indexes := make([]int, 0, len(partials))
	for idx := range partials {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	assembled := make([]openAIToolCall, 0, len(partials))
	for _, idx := range indexes {
		assembled = append(assembled, *partials[idx])
	}

	toolCalls, err := parseToolCalls(assembled)
	if err != nil {
		return err
	}
	return toolCallback(toolCalls)
}

// parseToolCalls decodes the wire tool calls into the internal form,
// filling in a correlation ID when the provider omitted one.
func parseToolCalls(wire []openAIToolCall) ([]ToolCall, error) {
	toolCalls := make([]ToolCall, len(wire))
	for i, tc := range wire {
		var args api.ToolCallFunctionArguments
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("error parsing tool call arguments: %w", err)
			}
		}

		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}

		toolCalls[i] = ToolCall{
			ID: id,
			Function: ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: args,
			},
		}
	}
	return toolCalls, nil
}

// toWireMessages converts internal messages to the chat-completions shape.
// Tool-call arguments travel as JSON strings on the wire.
func toWireMessages(messages []Message) []openAIMessage {
	wire := make([]openAIMessage, len(messages))
	for i, msg := range messages {
		wire[i] = openAIMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}

		for _, tc := range msg.ToolCalls {
			argsJSON, err := json.Marshal(tc.Function.Arguments)
			if err != nil {
				argsJSON = []byte("{}")
			}
			wire[i].ToolCalls = append(wire[i].ToolCalls, openAIToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: openAIToolCallFunction{
					Name:      tc.Function.Name,
					Arguments: string(argsJSON),
				},
			})
		}
	}
	return wire
}

// convertTools converts Ollama tool schemas to the OpenAI wire format
func convertTools(tools []api.Tool) []openAITool {
	if len(tools) == 0 {
		return nil
	}

	converted := make([]openAITool, len(tools))
	for i, tool := range tools {
		converted[i] = openAITool{
			Type: "function",
			Function: openAIFunction{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		}
	}
	return converted
}

// OpenAI chat-completions API types
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
	Tools       []openAITool    `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"`
}

type openAIResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
}

type openAIChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIToolCall struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Function openAIToolCallFunction `json:"function"`
}

type openAIToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string                 `json:"content"`
			ToolCalls []openAIStreamToolCall `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type openAIStreamToolCall struct {
	Index    int                    `json:"index"`
	ID       string                 `json:"id"`
	Function openAIToolCallFunction `json:"function"`
}
