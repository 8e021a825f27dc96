package agent

import (
	"time"

	"github.com/deepxiv/deepxiv-go/llm"
	"github.com/deepxiv/deepxiv-go/memory"
	"github.com/deepxiv/deepxiv-go/reader"
)

type AgentBuilder struct {
	config AgentConfig
}

func NewAgentBuilder() *AgentBuilder {
	return &AgentBuilder{
		config: AgentConfig{
			MaxLLMCalls: 20,
			MaxTime:     10 * time.Minute,
			MaxTokens:   4000,
			Temperature: 0.3,
		},
	}
}

func (b *AgentBuilder) WithReader(r *reader.Reader) *AgentBuilder {
	b.config.Reader = r
	return b
}

func (b *AgentBuilder) WithLLM(client llm.LLMClient) *AgentBuilder {
	b.config.LLM = client
	return b
}

func (b *AgentBuilder) WithMaxLLMCalls(max int) *AgentBuilder {
	b.config.MaxLLMCalls = max
	return b
}

func (b *AgentBuilder) WithMaxTime(max time.Duration) *AgentBuilder {
	b.config.MaxTime = max
	return b
}

func (b *AgentBuilder) WithMaxTokens(max int) *AgentBuilder {
	b.config.MaxTokens = max
	return b
}

func (b *AgentBuilder) WithTemperature(temperature float64) *AgentBuilder {
	b.config.Temperature = temperature
	return b
}

func (b *AgentBuilder) WithStreaming(stream bool) *AgentBuilder {
	b.config.Stream = stream
	return b
}

func (b *AgentBuilder) WithTranscriptManager(tm *memory.TranscriptManager) *AgentBuilder {
	b.config.TranscriptManager = tm
	return b
}

func (b *AgentBuilder) Build() *Agent {
	return &Agent{
		config:   b.config,
		executor: NewToolExecutor(b.config.Reader),
		papers:   make(map[string]*reader.PaperHead),
	}
}
