package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// NewRenderer returns a function that renders markdown using glamour.
// If the renderer cannot be built, markdown is passed through unchanged.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithEmoji(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return PlainRenderer
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// PlainRenderer returns markdown as is, for pipes and tests.
func PlainRenderer(markdown string) (string, error) {
	return markdown, nil
}

var severityColors = map[domain.Severity]string{
	domain.SeveritySuccess: "#22c55e",
	domain.SeverityWarning: "#f59e0b",
	domain.SeverityInfo:    "#38bdf8",
	domain.SeverityError:   "#ef4444",
}

// Severity colours a label by result severity.
func Severity(sev domain.Severity, label string) string {
	p := termenv.ColorProfile()
	color, ok := severityColors[sev]
	if !ok {
		return label
	}
	return termenv.String(label).Foreground(p.Color(color)).Bold().String()
}

// ResultMarkdown formats an action result as a markdown block.
func ResultMarkdown(action string, r domain.ActionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s (%s)\n\n%s\n", action, r.Severity, r.Message)
	if r.Reasoning != "" {
		fmt.Fprintf(&b, "\n> %s\n", r.Reasoning)
	}
	if len(r.ServiceTagsUsed) > 0 {
		fmt.Fprintf(&b, "\n**Chainlink services:** %s\n", strings.Join(r.ServiceTagsUsed, ", "))
	}
	if next := r.FollowUp(); next != "" {
		fmt.Fprintf(&b, "\n**Next:** %s\n", next)
	}
	return b.String()
}

// AlertMarkdown formats a proactive alert as a markdown block.
func AlertMarkdown(a domain.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### Proactive alert (%s)\n\n%s\n\n> %s\n", a.Urgency, a.Message, a.Reasoning)
	if a.AutoAction != "" {
		fmt.Fprintf(&b, "\n**Recommended:** %s\n", a.AutoAction)
	}
	return b.String()
}
