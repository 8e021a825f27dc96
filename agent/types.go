package agent

import (
	"time"

	"github.com/deepxiv/deepxiv-go/llm"
	"github.com/deepxiv/deepxiv-go/memory"
	"github.com/deepxiv/deepxiv-go/reader"
)

// AgentConfig holds configuration for the agent
type AgentConfig struct {
	Reader      *reader.Reader
	LLM         llm.LLMClient
	MaxLLMCalls int
	MaxTime     time.Duration
	MaxTokens   int
	Temperature float64
	Stream      bool

	// Transcript persistence across process restarts. Optional.
	TranscriptManager *memory.TranscriptManager
}

// Agent answers questions about arXiv papers by interleaving LLM planning
// turns with paper-service tool calls. Papers loaded during one query stay
// available to later queries on the same instance unless reset.
type Agent struct {
	config   AgentConfig
	executor *ToolExecutor

	// Paper cache persisted across queries, insertion-ordered.
	papers     map[string]*reader.PaperHead
	paperOrder []string
}

// QueryRequest is one question put to the agent.
type QueryRequest struct {
	Question string `json:"question"`
	// ResetPapers clears the loaded-paper cache before planning starts.
	ResetPapers bool `json:"reset_papers"`
	// SessionID keys transcript persistence. Empty means a fresh transcript.
	SessionID string `json:"session_id,omitempty"`
}

// Termination explains why a query stopped.
type Termination string

const (
	// TerminationAnswer means the model produced a final answer on its own.
	TerminationAnswer Termination = "answer"
	// TerminationCallLimit means the call ceiling forced a best-effort answer.
	TerminationCallLimit Termination = "call_limit"
	// TerminationTimeLimit means the wall-clock ceiling forced a best-effort answer.
	TerminationTimeLimit Termination = "time_limit"
	// TerminationNoAnswer means no usable assistant content was produced.
	TerminationNoAnswer Termination = "no_answer"
)

// QueryResult is the outcome of one query.
type QueryResult struct {
	Answer         string      `json:"answer"`
	Termination    Termination `json:"termination"`
	Rounds         int         `json:"rounds"`
	PapersLoaded   int         `json:"papers_loaded"`
	ProcessingTime int64       `json:"processing_time_ms"`
}

// loopState is the planning-loop state machine position.
type loopState int

const (
	statePlanning loopState = iota
	stateCheckingLimits
	stateExecuting
	stateFinalizing
	stateDone
)
