package agent

import "errors"

// Tool-level failures. These are converted into failed ToolResults at the
// executor boundary so the model can react to them; they never abort the
// planning loop.
var (
	// ErrValidation marks malformed or missing tool arguments.
	ErrValidation = errors.New("validation error")

	// ErrNotLoaded means section or full-text access was attempted before
	// a successful load_paper for that id.
	ErrNotLoaded = errors.New("paper not loaded")

	// ErrSectionNotFound means the requested section name does not exist
	// in the loaded paper, even under case-insensitive matching.
	ErrSectionNotFound = errors.New("section not found")

	// ErrUnknownTool means the model requested a tool outside the catalog.
	ErrUnknownTool = errors.New("unknown tool")
)
