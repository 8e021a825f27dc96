package agent

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"

	"github.com/deepxiv/deepxiv-go/llm"
	"github.com/deepxiv/deepxiv-go/prompts"
)

// retryBaseDelay controls the base duration for exponential backoff on
// transient LLM failures. Tests override this to avoid real sleeps.
var retryBaseDelay = time.Second

const maxLLMTries = 3

// Execute answers one question. The planning loop is strictly sequential:
// one LLM call at a time, tool calls executed in the order requested, all
// results appended before the next LLM call.
func (a *Agent) Execute(ctx context.Context, reporter ProgressReporter, req *QueryRequest) (*QueryResult, error) {
	if reporter == nil {
		reporter = &NoOpProgressReporter{}
	}
	startTime := time.Now()

	if req.ResetPapers {
		a.ResetPapers()
	}

	session := NewSession(a.papers, a.paperOrder)

	paperContext := formatPaperContext(session.Papers())
	systemPrompt, err := prompts.RenderReActSystemPrompt(paperContext, time.Now().Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("rendering system prompt: %w", err)
	}

	session.AddUserMessage(req.Question)

	result, err := a.run(ctx, reporter, session, systemPrompt)
	if err != nil {
		reporter.Send(NewStreamError(err.Error(), "query_failed"))
		return nil, err
	}

	// Papers loaded during this query stay available to later queries.
	for _, head := range session.Papers() {
		if _, ok := a.papers[head.ArxivID]; !ok {
			a.papers[head.ArxivID] = head
			a.paperOrder = append(a.paperOrder, head.ArxivID)
		}
	}

	result.PapersLoaded = len(a.papers)
	result.ProcessingTime = time.Since(startTime).Milliseconds()

	if a.config.TranscriptManager != nil {
		a.saveTranscript(ctx, req, result)
	}

	reporter.Send(NewStreamComplete(result))
	return result, nil
}

// run drives the planning state machine until DONE.
func (a *Agent) run(ctx context.Context, reporter ProgressReporter, session *Session, systemPrompt string) (*QueryResult, error) {
	var (
		content     string
		toolCalls   []llm.ToolCall
		termination Termination
	)

	state := statePlanning
	for state != stateDone {
		switch state {
		case statePlanning:
			reporter.Send(NewProgressUpdate(StagePlanning, fmt.Sprintf("Planning round %d", session.LLMCalls+1)))

			c, tc, err := a.callLLM(ctx, reporter, session.Messages, systemPrompt, true)
			if err != nil {
				return nil, err
			}
			session.LLMCalls++
			content, toolCalls = c, tc
			session.AddAssistantMessage(content, toolCalls)
			state = stateCheckingLimits

		case stateCheckingLimits:
			switch {
			case session.LLMCalls >= a.config.MaxLLMCalls:
				termination = TerminationCallLimit
				state = stateFinalizing
			case session.Elapsed() >= a.config.MaxTime:
				termination = TerminationTimeLimit
				state = stateFinalizing
			case len(toolCalls) > 0:
				state = stateExecuting
			default:
				state = stateDone
			}

		case stateExecuting:
			if err := a.executeToolCalls(ctx, reporter, session, toolCalls); err != nil {
				return nil, err
			}
			toolCalls = nil
			state = statePlanning

		case stateFinalizing:
			reporter.Send(NewProgressUpdate(StageFinalizing, "Limit reached, requesting best-effort final answer"))

			// Answer any pending tool calls first so every request in the
			// transcript is paired with exactly one result.
			for _, tc := range toolCalls {
				session.AddToolResult(ToolResult{
					ID:       tc.ID,
					ToolName: tc.Function.Name,
					Content:  fmt.Sprintf("Error: tool call %s was not executed because the query limit was reached", tc.Function.Name),
				})
			}
			toolCalls = nil

			session.AddUserMessage(prompts.FinalizePrompt())

			c, _, err := a.callLLM(ctx, reporter, session.Messages, systemPrompt, false)
			if err != nil {
				if errors.Is(err, llm.ErrUnauthorized) {
					return nil, err
				}
				// Best effort: finalize failures terminate with whatever
				// context was gathered.
				logger.Error("Finalize call failed", zap.Error(err))
			} else {
				session.LLMCalls++
				content = c
				session.AddAssistantMessage(c, nil)
			}
			state = stateDone
		}
	}

	answer, found := extractAnswer(content)
	if !found {
		answer, found = findAnswerInMessages(session.Messages)
	}

	if termination == "" {
		termination = TerminationAnswer
	}
	if !found {
		answer = "No answer found."
		termination = TerminationNoAnswer
	}

	return &QueryResult{
		Answer:      answer,
		Termination: termination,
		Rounds:      session.LLMCalls,
	}, nil
}

// executeToolCalls runs the requested tools sequentially, in order. A tool
// failure becomes a failed ToolResult the model can react to; only fatal
// reader errors propagate.
func (a *Agent) executeToolCalls(ctx context.Context, reporter ProgressReporter, session *Session, toolCalls []llm.ToolCall) error {
	for _, call := range toolCalls {
		reporter.Send(NewProgressUpdate(StageToolExecutionStarting,
			fmt.Sprintf("Running tool %s with arguments: %v", call.Function.Name, call.Function.Arguments)))

		result, err := a.executor.Execute(ctx, call, session)
		if err != nil {
			return err
		}

		if !result.OK {
			logger.Get().Warn("Tool call failed",
				zap.String("tool", result.ToolName),
				zap.String("error", result.Content))
		}

		session.AddToolResult(result)
		reporter.Send(NewToolResultChunk(result))
		reporter.Send(NewProgressUpdate(StageToolExecutionComplete,
			fmt.Sprintf("Tool %s completed", call.Function.Name)))
	}
	return nil
}

// callLLM issues one chat-completions call with bounded retries on
// transient failures. Authorization errors are fatal immediately.
func (a *Agent) callLLM(ctx context.Context, reporter ProgressReporter, messages []llm.Message, systemPrompt string, withTools bool) (string, []llm.ToolCall, error) {
	opts := []llm.LLMOption{
		llm.WithMaxTokens(a.config.MaxTokens),
		llm.WithTemperature(a.config.Temperature),
		llm.WithSystemPrompt(systemPrompt),
		llm.WithStreaming(a.config.Stream),
	}
	if withTools {
		opts = append(opts, llm.WithTools(ToolCatalog()))
	}

	var lastErr error
	for attempt := 0; attempt < maxLLMTries; attempt++ {
		var inference strings.Builder
		var toolCalls []llm.ToolCall

		err := a.config.LLM.GenerateInferenceWithTools(
			ctx, messages,
			func(chunk string) error {
				inference.WriteString(chunk)
				if a.config.Stream {
					reporter.Send(NewAnswerChunk(chunk))
				}
				return nil
			},
			func(calls []llm.ToolCall) error {
				toolCalls = append(toolCalls, calls...)
				return nil
			},
			opts...,
		)

		if err == nil {
			content := strings.TrimSpace(inference.String())
			if content != "" || len(toolCalls) > 0 {
				return content, toolCalls, nil
			}
			lastErr = errors.New("empty response from model")
		} else {
			if errors.Is(err, llm.ErrUnauthorized) {
				return "", nil, err
			}
			lastErr = err
		}

		if attempt < maxLLMTries-1 {
			backoff := retryBaseDelay*(1<<attempt) + time.Duration(rand.Int63n(int64(retryBaseDelay)))
			if ceiling := 5 * retryBaseDelay; backoff > ceiling {
				backoff = ceiling
			}
			logger.Get().Warn("LLM call failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))

			select {
			case <-ctx.Done():
				return "", nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return "", nil, fmt.Errorf("llm call failed after %d attempts: %w", maxLLMTries, lastErr)
}

// extractAnswer pulls the text between <answer></answer> tags.
func extractAnswer(content string) (string, bool) {
	start := strings.Index(content, "<answer>")
	end := strings.Index(content, "</answer>")
	if start >= 0 && end > start {
		return strings.TrimSpace(content[start+len("<answer>") : end]), true
	}
	return "", false
}

// findAnswerInMessages scans the conversation backwards for tagged answers,
// then falls back to the last substantial assistant message.
func findAnswerInMessages(messages []llm.Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != "assistant" {
			continue
		}
		if answer, ok := extractAnswer(messages[i].Content); ok {
			return answer, true
		}
	}

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role != "assistant" || len(msg.ToolCalls) > 0 {
			continue
		}
		if content := strings.TrimSpace(msg.Content); len(content) > 20 {
			return content, true
		}
	}

	return "", false
}
