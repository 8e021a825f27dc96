package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReActSystemPrompt(t *testing.T) {
	prompt, err := RenderReActSystemPrompt("=== Loaded Papers ===\n## Paper: 2303.08774", "2026-08-26")
	require.NoError(t, err)

	assert.Contains(t, prompt, "2026-08-26")
	assert.Contains(t, prompt, "2303.08774")
	assert.Contains(t, prompt, "<answer>")
	assert.NotContains(t, prompt, "{{", "all placeholders must be substituted")
}

func TestRenderReActSystemPrompt_EmptyContext(t *testing.T) {
	prompt, err := RenderReActSystemPrompt("No papers have been loaded yet.", "2026-08-26")
	require.NoError(t, err)
	assert.Contains(t, prompt, "No papers have been loaded yet.")
}

func TestFinalizePrompt(t *testing.T) {
	prompt := FinalizePrompt()
	assert.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "<answer>")
}
