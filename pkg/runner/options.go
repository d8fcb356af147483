package runner

import (
	"io"
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithInput sets the line source. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(rn *Runner) {
		rn.Input = r
	}
}

// WithOutput sets the destination of replies. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(rn *Runner) {
		rn.Output = w
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rn *Runner) {
		rn.Logger = logger
	}
}

// WithSessionID resumes or creates the given session. Empty means a fresh one.
func WithSessionID(id string) Option {
	return func(rn *Runner) {
		rn.SessionID = id
	}
}

// WithRenderer configures the content renderer (e.g. TUI, Markdown).
func WithRenderer(renderer ContentRenderer) Option {
	return func(rn *Runner) {
		rn.Renderer = renderer
	}
}

// WithPrompt overrides the input prompt.
func WithPrompt(prompt string) Option {
	return func(rn *Runner) {
		rn.Prompt = prompt
	}
}
