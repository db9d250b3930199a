// Package compose drives a composition session: it fills the commit draft
// field by field, optionally replacing subject and body with an AI candidate
// generated concurrently with the remaining prompts, then hands the draft to
// the confirmation step.
package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"revise/cli/internal/ask"
	"revise/cli/internal/commitmsg"
	"revise/cli/internal/config"
	"revise/cli/internal/confirm"
	"revise/cli/internal/diff"
	"revise/cli/internal/field"
	"revise/cli/internal/message"
	"revise/cli/internal/tokens"
	"revise/cli/internal/trace"
)

// Kind selects how subject and body are obtained.
type Kind int

const (
	KindManual Kind = iota
	KindGenerate
	KindTranslate
)

func (k Kind) String() string {
	switch k {
	case KindManual:
		return "manual"
	case KindGenerate:
		return "generate"
	case KindTranslate:
		return "translate"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Mode is Manual, Generate or Translate(text).
type Mode struct {
	Kind Kind
	Text string
}

func Manual() Mode               { return Mode{Kind: KindManual} }
func Generate() Mode             { return Mode{Kind: KindGenerate} }
func Translate(text string) Mode { return Mode{Kind: KindTranslate, Text: text} }

// IsAI reports whether m uses the candidate generator.
func (m Mode) IsAI() bool { return m.Kind == KindGenerate || m.Kind == KindTranslate }

// Differ produces the filtered staged diff text.
type Differ interface {
	Diff(ctx context.Context, exclude diff.ExcludeSet) (string, error)
}

// CandidateGenerator produces AI candidates for a text.
type CandidateGenerator interface {
	GenerateCandidates(ctx context.Context, text string) (*commitmsg.CandidateSet, error)
}

// ValidationError reports a required value left empty after the fallback prompt.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required and cannot be empty"
}

// Prompt titles owned by the controller.
const (
	FallbackTitle  = "No staged changes to describe. Enter the text to generate a message from:"
	CandidateTitle = "Select the message to be committing:"
	WaitTitle      = "Generating commit message candidates..."
)

// Result is the outcome of Compose. Aborted means the user declined; no
// commit should be made.
type Result struct {
	Message  string
	Aborted  bool
	Decision confirm.Decision
}

// Composer owns the draft for one session. Config is read-only.
type Composer struct {
	VCS      Differ
	AI       CandidateGenerator
	Prompter ask.Prompter
	Config   config.Config
	Logger   *slog.Logger
	Tracer   *trace.Tracer
	// Out receives the preview; Warn receives token budget warnings. Either may be nil.
	Out   io.Writer
	Warn  io.Writer
	Color bool
}

func (c *Composer) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

// Compose runs the session for mode. Cancellation at any prompt returns
// ask.ErrCancelled immediately. AI failures are returned unchanged.
func (c *Composer) Compose(ctx context.Context, mode Mode, exclude diff.ExcludeSet) (Result, error) {
	log := c.logger().With("mode", mode.Kind.String())
	log.Debug("compose start")
	var d message.Draft
	var err error
	if mode.IsAI() {
		err = c.composeAI(ctx, mode, exclude, &d, log)
	} else {
		err = c.run(ctx, &d, c.manualSteps())
	}
	if err != nil {
		if errors.Is(err, ask.ErrCancelled) {
			log.Info("compose cancelled")
		}
		return Result{}, err
	}
	m := &confirm.Machine{Prompter: c.Prompter, Out: c.Out, Color: c.Color, Tracer: c.Tracer}
	out, err := m.Run(ctx, d)
	if err != nil {
		return Result{}, err
	}
	log.Info("compose done", "decision", out.Decision.String())
	if out.Decision == confirm.Abort {
		return Result{Aborted: true, Decision: confirm.Abort}, nil
	}
	return Result{Message: out.Message, Decision: out.Decision}, nil
}

func (c *Composer) manualSteps() []field.Step {
	return []field.Step{
		field.TypeStep(c.Config.Types),
		field.ScopeStep(c.Config.Scopes),
		field.SubjectStep(),
		field.BodyStep(),
		field.BreakingStep(),
		field.IssueStep(),
	}
}

// localSteps run while the AI call is in flight; subject and body are deferred.
func (c *Composer) localSteps() []field.Step {
	return []field.Step{
		field.TypeStep(c.Config.Types),
		field.ScopeStep(c.Config.Scopes),
		field.BreakingStep(),
		field.IssueStep(),
	}
}

func (c *Composer) run(ctx context.Context, d *message.Draft, steps []field.Step) error {
	for _, s := range steps {
		if err := s.Run(ctx, c.Prompter, d); err != nil {
			return err
		}
		c.Tracer.Printf("field %s done\n", s.Name)
	}
	return nil
}

func (c *Composer) resolveText(ctx context.Context, mode Mode, exclude diff.ExcludeSet) (string, error) {
	var text string
	switch mode.Kind {
	case KindGenerate:
		if c.VCS == nil {
			return "", errors.New("compose: no VCS collaborator")
		}
		t, err := c.VCS.Diff(ctx, exclude)
		if err != nil {
			return "", err
		}
		text = t
	case KindTranslate:
		text = mode.Text
	}
	if strings.TrimSpace(text) != "" {
		return text, nil
	}
	fallback, err := c.Prompter.Text(ctx, FallbackTitle)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(fallback) == "" {
		return "", &ValidationError{Field: "input text"}
	}
	return fallback, nil
}

func (c *Composer) composeAI(ctx context.Context, mode Mode, exclude diff.ExcludeSet, d *message.Draft, log *slog.Logger) error {
	if c.AI == nil {
		return errors.New("compose: no candidate generator")
	}
	text, err := c.resolveText(ctx, mode, exclude)
	if err != nil {
		return err
	}
	c.Tracer.Section("AI input")
	c.Tracer.Printf("%s\n", text)
	budget := tokens.Budget{Limit: c.Config.AI.ContextLimit, Threshold: c.Config.AI.WarnThreshold}
	if warn := budget.Check(text); warn != "" {
		log.Warn("token budget", "warning", warn)
		if c.Warn != nil {
			fmt.Fprintf(c.Warn, "Warning: %s\n", warn)
		}
	}

	// The AI call is detached from ctx: cancelling a local prompt does not
	// stop it; its result is dropped. The HTTP timeout bounds it.
	var (
		g       errgroup.Group
		set     *commitmsg.CandidateSet
		started = time.Now()
	)
	aiCtx := context.WithoutCancel(ctx)
	g.Go(func() error {
		s, err := c.AI.GenerateCandidates(aiCtx, text)
		if err != nil {
			return err
		}
		set = s
		return nil
	})

	if err := c.run(ctx, d, c.localSteps()); err != nil {
		return err
	}
	if err := c.Prompter.Wait(ctx, WaitTitle, g.Wait); err != nil {
		log.Error("ai candidates", "error", err, "elapsed", time.Since(started))
		return err
	}
	log.Info("ai candidates", "count", set.Len(), "elapsed", time.Since(started))
	c.Tracer.Section("AI candidates")
	for _, k := range set.Keys() {
		c.Tracer.Printf("%q\n", k)
	}

	key, err := c.Prompter.Select(ctx, CandidateTitle, set.Keys())
	if err != nil {
		return err
	}
	cand, ok := set.Get(key)
	if !ok {
		return fmt.Errorf("compose: unknown candidate %q", key)
	}
	d.Subject = strings.TrimSpace(cand.Message)
	d.Body = strings.TrimSpace(cand.Body)
	if d.Subject == "" {
		return c.run(ctx, d, []field.Step{field.SubjectStep()})
	}
	return nil
}
