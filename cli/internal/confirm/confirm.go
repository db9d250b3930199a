// Package confirm reviews the assembled message and routes to submit, abort
// or edit.
package confirm

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"revise/cli/internal/ask"
	"revise/cli/internal/message"
	"revise/cli/internal/trace"
)

// Decision is the outcome of the review.
type Decision int

const (
	Submit Decision = iota
	Abort
	Edit
)

func (d Decision) String() string {
	switch d {
	case Submit:
		return "submit"
	case Abort:
		return "abort"
	case Edit:
		return "edit"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// ErrInvalidAnswer is returned by ParseDecision for anything outside y|n|e.
var ErrInvalidAnswer = fmt.Errorf("reply with 'y', 'n' or 'e'")

// ParseDecision maps the answer (case-insensitive, trimmed): y, yes or empty
// submit; n or no abort; e or edit edit.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "":
		return Submit, nil
	case "n", "no":
		return Abort, nil
	case "e", "edit":
		return Edit, nil
	default:
		return Submit, ErrInvalidAnswer
	}
}

// Question is the review prompt title.
const Question = "Are you sure you want to proceed with the commit above?"

// Outcome is the terminal state. Message is empty for Abort.
type Outcome struct {
	Decision Decision
	Message  string
}

// Machine runs the review.
type Machine struct {
	Prompter ask.Prompter
	// Out receives the preview; nil disables it.
	Out io.Writer
	// Color styles the preview.
	Color  bool
	Tracer *trace.Tracer
}

const defaultFrameWidth = 60

var frameStyle = lipgloss.NewStyle().Bold(true).Italic(true).Faint(true)

func (m *Machine) frame() string {
	width := defaultFrameWidth
	if f, ok := m.Out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 8 && w-2 < width {
			width = w - 2
		}
	}
	line := "###" + strings.Repeat("-", width-6) + "###"
	if m.Color {
		return frameStyle.Render(line)
	}
	return line
}

// Preview writes the framed rendering of d to Out.
func (m *Machine) Preview(d message.Draft) {
	if m.Out == nil {
		return
	}
	f := m.frame()
	fmt.Fprintf(m.Out, "\n%s\n\n%s\n\n%s\n", f, message.Render(d, m.Color), f)
}

// Run shows the preview and asks for a decision. Invalid answers re-prompt.
// Edit opens the editor seeded with the rendered message and its text
// becomes the message verbatim. Cancellation returns ask.ErrCancelled.
func (m *Machine) Run(ctx context.Context, d message.Draft) (Outcome, error) {
	m.Preview(d)
	rendered := message.Render(d, false)
	ans, err := m.Prompter.Input(ctx, Question, "y for yes, n for no, e for edit", func(s string) error {
		_, err := ParseDecision(s)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}
	dec, err := ParseDecision(ans)
	if err != nil {
		return Outcome{}, err
	}
	m.Tracer.Printf("confirm: %s\n", dec)
	switch dec {
	case Abort:
		return Outcome{Decision: Abort}, nil
	case Edit:
		edited, err := m.Prompter.Editor(ctx, rendered)
		if err != nil {
			return Outcome{}, err
		}
		if m.Tracer.Enabled() {
			m.Tracer.Section("Edited message")
			m.Tracer.Diff(rendered, edited)
		}
		return Outcome{Decision: Edit, Message: edited}, nil
	default:
		return Outcome{Decision: Submit, Message: rendered}, nil
	}
}
