package prompts

import (
	"bytes"
	"embed"
	"strings"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

// RenderReActSystemPrompt renders the planning-loop system prompt using
// embedded Go templates. paperContext describes the papers already loaded
// in the session; currentDate is the YYYY-MM-DD query date.
func RenderReActSystemPrompt(paperContext, currentDate string) (string, error) {
	content, err := templatesFS.ReadFile("templates/react_system.md")
	if err != nil {
		return "", err
	}

	tmpl, err := template.New("react_system").Parse(string(content))
	if err != nil {
		return "", err
	}

	data := struct {
		PaperContext string
		CurrentDate  string
	}{
		PaperContext: paperContext,
		CurrentDate:  currentDate,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// FinalizePrompt returns the user message appended when the limit guard
// forces a best-effort final answer.
func FinalizePrompt() string {
	content, err := templatesFS.ReadFile("templates/finalize_user.md")
	if err != nil {
		// The template is embedded; a read failure is a build defect.
		return "Please provide your final answer now, wrapped in <answer></answer> tags."
	}
	return strings.TrimSpace(string(content))
}
