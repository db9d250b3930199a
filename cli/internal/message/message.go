// Package message holds the commit draft and renders it into the final
// commit message.
package message

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Draft is the structured commit message being assembled. Empty optional
// fields are absent.
type Draft struct {
	Type     string
	Scope    string
	Subject  string
	Body     string
	Breaking string
	Issue    string
}

// BreakingFooter is the footer token for breaking changes.
const BreakingFooter = "BREAKING CHANGE"

var (
	typeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))  // green
	scopeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))  // yellow
	bangStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // bright red
	subjectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // bright cyan
	issueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))  // blue
	breakingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))  // red
)

// Render assembles d as
//
//	type[(scope)][!]: subject[(issue)]
//
// followed by "\n\n<body>" when Body is set and "\n\n\nBREAKING CHANGE: <breaking>"
// when Breaking is set. With colorize the parts are styled for a terminal
// preview; the text is otherwise identical. Render is pure.
func Render(d Draft, colorize bool) string {
	paint := func(s lipgloss.Style, text string) string {
		if !colorize {
			return text
		}
		return s.Render(text)
	}
	var b strings.Builder
	b.WriteString(paint(typeStyle, d.Type))
	if d.Scope != "" {
		b.WriteString("(" + paint(scopeStyle, d.Scope) + ")")
	}
	if d.Breaking != "" {
		b.WriteString(paint(bangStyle, "!"))
	}
	b.WriteString(": ")
	b.WriteString(paint(subjectStyle, d.Subject))
	if d.Issue != "" {
		b.WriteString("(" + paint(issueStyle, d.Issue) + ")")
	}
	if d.Body != "" {
		b.WriteString("\n\n")
		b.WriteString(d.Body)
	}
	if d.Breaking != "" {
		b.WriteString("\n\n\n")
		b.WriteString(paint(breakingStyle, BreakingFooter))
		b.WriteString(": ")
		b.WriteString(d.Breaking)
	}
	return b.String()
}

// String renders d without colour.
func (d Draft) String() string {
	return Render(d, false)
}
