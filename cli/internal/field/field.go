// Package field implements one interactive prompt per commit field. Each
// Field obtains its own value; Bind turns it into a Step that writes the
// value into a draft so a controller can run an ordered list of steps.
package field

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"revise/cli/internal/ask"
	"revise/cli/internal/config"
	"revise/cli/internal/message"
)

// Field obtains one value from the user.
type Field[T any] interface {
	Prompt(ctx context.Context, p ask.Prompter) (T, error)
}

// Step is a bound field: it prompts and stores the result in a draft.
type Step struct {
	Name string
	run  func(ctx context.Context, p ask.Prompter, d *message.Draft) error
}

// Run prompts and stores the answer in d.
func (s Step) Run(ctx context.Context, p ask.Prompter, d *message.Draft) error {
	return s.run(ctx, p, d)
}

// Bind returns a Step running f and passing the value to set.
func Bind[T any](name string, f Field[T], set func(*message.Draft, T)) Step {
	return Step{
		Name: name,
		run: func(ctx context.Context, p ask.Prompter, d *message.Draft) error {
			v, err := f.Prompt(ctx, p)
			if err != nil {
				return err
			}
			set(d, v)
			return nil
		},
	}
}

// Prompt titles.
const (
	TypeTitle     = "Select the type of change that you're committing:"
	ScopeTitle    = "Denote the SCOPE of this change (optional):"
	CustomTitle   = "Denote the SCOPE of this change:"
	SubjectTitle  = "Write a SHORT, IMPERATIVE tense description of the change:"
	BodyTitle     = "Provide a LONGER description of the change (optional):"
	BreakingTitle = "List any BREAKING CHANGES (optional):"
	IssueTitle    = "List any ISSUES closed by this change (optional):"
)

// Scope options added around the configured scopes.
const (
	ScopeEmpty  = "empty"
	ScopeCustom = "custom"
)

// ErrEmptySubject is the subject validation failure shown while re-prompting.
var ErrEmptySubject = errors.New("subject is required and cannot be empty")

// TypeField selects a commit type and yields its key.
type TypeField struct {
	Types []config.CommitType
}

// Labels returns "key:<pad> description" labels with descriptions aligned.
func (f TypeField) Labels() []string {
	width := 0
	for _, t := range f.Types {
		width = max(width, len(t.Key))
	}
	labels := make([]string, len(f.Types))
	for i, t := range f.Types {
		labels[i] = t.Key + ":" + strings.Repeat(" ", width-len(t.Key)+1) + t.Value
	}
	return labels
}

// Prompt implements Field.
func (f TypeField) Prompt(ctx context.Context, p ask.Prompter) (string, error) {
	labels := f.Labels()
	if len(labels) == 0 {
		return "", errors.New("no commit types configured")
	}
	ans, err := p.Select(ctx, TypeTitle, labels)
	if err != nil {
		return "", err
	}
	for i, l := range labels {
		if l == ans {
			return f.Types[i].Key, nil
		}
	}
	return "", fmt.Errorf("unknown commit type %q", ans)
}

// ScopeField selects a configured scope, none, or a custom one.
type ScopeField struct {
	Scopes []string
}

// Options returns the scopes with "empty" first and "custom" last unless
// already configured.
func (f ScopeField) Options() []string {
	opts := make([]string, 0, len(f.Scopes)+2)
	if !contains(f.Scopes, ScopeEmpty) {
		opts = append(opts, ScopeEmpty)
	}
	opts = append(opts, f.Scopes...)
	if !contains(f.Scopes, ScopeCustom) {
		opts = append(opts, ScopeCustom)
	}
	return opts
}

// Prompt implements Field. "" means no scope.
func (f ScopeField) Prompt(ctx context.Context, p ask.Prompter) (string, error) {
	ans, err := p.Select(ctx, ScopeTitle, f.Options())
	if err != nil {
		return "", err
	}
	switch ans {
	case ScopeEmpty:
		return "", nil
	case ScopeCustom:
		custom, err := p.Input(ctx, CustomTitle, "", nil)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(custom), nil
	default:
		return ans, nil
	}
}

// SubjectField reads the required subject line.
type SubjectField struct{}

// ValidateSubject rejects blank subjects.
func ValidateSubject(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptySubject
	}
	return nil
}

// Prompt implements Field. Blank answers re-prompt.
func (SubjectField) Prompt(ctx context.Context, p ask.Prompter) (string, error) {
	ans, err := p.Input(ctx, SubjectTitle, "Infinity more chars allowed", ValidateSubject)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(ans), nil
}

// TextField reads optional multi-line text; used for body and breaking note.
type TextField struct {
	Title string
}

// Prompt implements Field. "" means skipped.
func (f TextField) Prompt(ctx context.Context, p ask.Prompter) (string, error) {
	ans, err := p.Text(ctx, f.Title)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(ans), nil
}

// IssueField reads an optional issue reference.
type IssueField struct{}

// Prompt implements Field.
func (IssueField) Prompt(ctx context.Context, p ask.Prompter) (string, error) {
	ans, err := p.Input(ctx, IssueTitle, "E.g. #31, #34", nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(ans), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Steps for each draft field.

func TypeStep(types []config.CommitType) Step {
	return Bind[string]("type", TypeField{Types: types}, func(d *message.Draft, v string) { d.Type = v })
}

func ScopeStep(scopes []string) Step {
	return Bind[string]("scope", ScopeField{Scopes: scopes}, func(d *message.Draft, v string) { d.Scope = v })
}

func SubjectStep() Step {
	return Bind[string]("subject", SubjectField{}, func(d *message.Draft, v string) { d.Subject = v })
}

func BodyStep() Step {
	return Bind[string]("body", TextField{Title: BodyTitle}, func(d *message.Draft, v string) { d.Body = v })
}

func BreakingStep() Step {
	return Bind[string]("breaking", TextField{Title: BreakingTitle}, func(d *message.Draft, v string) { d.Breaking = v })
}

func IssueStep() Step {
	return Bind[string]("issue", IssueField{}, func(d *message.Draft, v string) { d.Issue = v })
}
