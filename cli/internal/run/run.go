// Package run implements one revise invocation: optional staging, message
// composition (manual or AI-assisted) or a direct message, and the commit,
// with the configured hooks around staging and committing. Used by the CLI
// and by tests.
package run

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"revise/cli/internal/ask"
	"revise/cli/internal/commitmsg"
	"revise/cli/internal/compose"
	"revise/cli/internal/config"
	"revise/cli/internal/diff"
	"revise/cli/internal/hook"
	"revise/cli/internal/logger"
	"revise/cli/internal/trace"
)

// VCS is the version-control collaborator.
type VCS interface {
	Diff(ctx context.Context, exclude diff.ExcludeSet) (string, error)
	Add(ctx context.Context, paths []string) error
	Commit(ctx context.Context, message string) error
}

// GeneratorFactory builds the AI candidate generator for cfg. It is only
// called for AI modes, so a missing API key never blocks manual commits.
type GeneratorFactory func(cfg config.Config, repoRoot string) (compose.CandidateGenerator, error)

// Options are the per-invocation choices, usually from flags.
type Options struct {
	// Add lists paths to stage before composing; empty stages nothing.
	Add  []string
	Mode compose.Mode
	// Exclude and Include adjust the configured exclude set by basename.
	Exclude []string
	Include []string
	// Message, when HasMessage, is committed as is without prompting.
	Message    string
	HasMessage bool
}

// Status is how an invocation ended.
type Status int

const (
	Committed Status = iota
	Aborted
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome reports what Run did. Message is set only when Committed.
type Outcome struct {
	Status  Status
	Message string
}

// Session carries the collaborators for one invocation. Config is read-only.
type Session struct {
	Config   config.Config
	RepoRoot string
	VCS      VCS
	Prompter ask.Prompter
	Hooks    *hook.Runner
	// NewGenerator defaults to NewGenerator.
	NewGenerator GeneratorFactory
	Logger       *slog.Logger
	Tracer       *trace.Tracer
	Out          io.Writer
	Warn         io.Writer
	Color        bool
}

// NewGenerator builds the commitmsg client for the configured provider with
// the persona prompt from ai.prompt_file or the default.
func NewGenerator(cfg config.Config, repoRoot string) (compose.CandidateGenerator, error) {
	backend, err := commitmsg.NewBackend(cfg.AI)
	if err != nil {
		return nil, err
	}
	system, err := commitmsg.SystemPrompt(cfg.PromptPath(repoRoot))
	if err != nil {
		return nil, err
	}
	return commitmsg.NewClient(backend, system, cfg.AI.MaxInputBytes), nil
}

// Excludes returns configured ∪ exclude, minus include, as an ExcludeSet.
func Excludes(configured, exclude, include []string) diff.ExcludeSet {
	set := diff.NewExcludeSet(append(append([]string(nil), configured...), exclude...)...)
	for name := range diff.NewExcludeSet(include...) {
		delete(set, name)
	}
	return set
}

func (s *Session) logger() *slog.Logger {
	if s.Logger == nil {
		return logger.Discard()
	}
	return s.Logger
}

// Run stages opts.Add, obtains the message and commits it. Abort and
// cancellation are not errors: they end with no commit. Every other failure
// is returned unchanged.
func (s *Session) Run(ctx context.Context, opts Options) (Outcome, error) {
	log := s.logger()
	if len(opts.Add) > 0 {
		s.Tracer.Section("Add")
		s.Tracer.Printf("%s\n", strings.Join(opts.Add, " "))
		err := s.Hooks.Around(ctx, hook.PreAdd, hook.PostAdd, func() error {
			return s.VCS.Add(ctx, opts.Add)
		})
		if err != nil {
			return Outcome{}, err
		}
		log.Info("staged", "paths", opts.Add)
	}

	message := opts.Message
	if !opts.HasMessage {
		result, err := s.compose(ctx, opts)
		if errors.Is(err, ask.ErrCancelled) {
			log.Info("run cancelled")
			return Outcome{Status: Cancelled}, nil
		}
		if err != nil {
			return Outcome{}, err
		}
		if result.Aborted {
			log.Info("run aborted")
			return Outcome{Status: Aborted}, nil
		}
		message = result.Message
	}

	s.Tracer.Section("Commit")
	s.Tracer.Printf("%s\n", message)
	err := s.Hooks.Around(ctx, hook.PreCommit, hook.PostCommit, func() error {
		return s.VCS.Commit(ctx, message)
	})
	if err != nil {
		return Outcome{}, err
	}
	log.Info("committed", "bytes", len(message))
	return Outcome{Status: Committed, Message: message}, nil
}

func (s *Session) compose(ctx context.Context, opts Options) (compose.Result, error) {
	c := &compose.Composer{
		VCS:      s.VCS,
		Prompter: s.Prompter,
		Config:   s.Config,
		Logger:   s.Logger,
		Tracer:   s.Tracer,
		Out:      s.Out,
		Warn:     s.Warn,
		Color:    s.Color,
	}
	if opts.Mode.IsAI() {
		factory := s.NewGenerator
		if factory == nil {
			factory = NewGenerator
		}
		gen, err := factory(s.Config, s.RepoRoot)
		if err != nil {
			return compose.Result{}, err
		}
		c.AI = gen
	}
	exclude := Excludes(s.Config.Exclude, opts.Exclude, opts.Include)
	return c.Compose(ctx, opts.Mode, exclude)
}
