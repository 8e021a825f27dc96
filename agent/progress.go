package agent

import "time"

// Stage identifies where the planning loop is in its lifecycle.
type Stage string

const (
	StagePlanning              Stage = "planning"
	StageToolExecutionStarting Stage = "tool_execution_starting"
	StageToolExecutionComplete Stage = "tool_execution_completed"
	StageFinalizing            Stage = "finalizing"
	StageCompleted             Stage = "completed"
)

// StreamChunk is one progress event. Exactly one field is set.
type StreamChunk struct {
	Progress   *ProgressUpdate `json:"progress,omitempty"`
	Answer     *AnswerChunk    `json:"answer,omitempty"`
	ToolResult *ToolResult     `json:"tool_result,omitempty"`
	Complete   *QueryResult    `json:"complete,omitempty"`
	Error      *StreamError    `json:"error,omitempty"`
}

type ProgressUpdate struct {
	Stage     Stage  `json:"stage"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// AnswerChunk carries incremental answer tokens when streaming is enabled,
// or the whole answer at once when it is not.
type AnswerChunk struct {
	Content string `json:"content"`
}

type StreamError struct {
	ErrorMessage string `json:"error_message"`
	ErrorCode    string `json:"error_code"`
}

// ProgressReporter is an interface for reporting agent execution progress
type ProgressReporter interface {
	// Send sends a progress update
	Send(event *StreamChunk) error
}

// NoOpProgressReporter implements ProgressReporter with no-op operations
type NoOpProgressReporter struct{}

// Send does nothing
func (r *NoOpProgressReporter) Send(event *StreamChunk) error {
	return nil
}

// Helper functions for creating progress events
func NewProgressUpdate(stage Stage, message string) *StreamChunk {
	return &StreamChunk{
		Progress: &ProgressUpdate{
			Stage:     stage,
			Timestamp: time.Now().UnixMilli(),
			Message:   message,
		},
	}
}

func NewAnswerChunk(content string) *StreamChunk {
	return &StreamChunk{Answer: &AnswerChunk{Content: content}}
}

func NewToolResultChunk(result ToolResult) *StreamChunk {
	return &StreamChunk{ToolResult: &result}
}

func NewStreamComplete(result *QueryResult) *StreamChunk {
	return &StreamChunk{Complete: result}
}

func NewStreamError(message, code string) *StreamChunk {
	return &StreamChunk{
		Error: &StreamError{
			ErrorMessage: message,
			ErrorCode:    code,
		},
	}
}
