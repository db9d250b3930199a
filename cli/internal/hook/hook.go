// Package hook runs the user's shell commands configured for the add and
// commit stages. Commands run in order in the repository root; the first
// failure stops the stage.
package hook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"revise/cli/internal/config"
	"revise/cli/internal/trace"
)

// Stage names a point around staging or committing.
type Stage string

const (
	PreAdd     Stage = "pre_add"
	PostAdd    Stage = "post_add"
	PreCommit  Stage = "pre_commit"
	PostCommit Stage = "post_commit"
)

// Error is a hook command that exited unsuccessfully.
type Error struct {
	Stage   Stage
	Command string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("The %s hook %q failed.", e.Stage, e.Command)
}

func (e *Error) Unwrap() error { return e.Err }

// FromConfig maps the [hooks] table to stages.
func FromConfig(h config.Hooks) map[Stage][]string {
	return map[Stage][]string{
		PreAdd:     h.PreAdd,
		PostAdd:    h.PostAdd,
		PreCommit:  h.PreCommit,
		PostCommit: h.PostCommit,
	}
}

// Runner executes hook commands. A nil Runner runs nothing.
type Runner struct {
	Dir    string
	Hooks  map[Stage][]string
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Tracer *trace.Tracer
}

// Run executes every command of stage. Blank commands are skipped.
func (r *Runner) Run(ctx context.Context, stage Stage) error {
	if r == nil {
		return nil
	}
	for _, c := range r.Hooks[stage] {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		r.Tracer.Printf("hook %s: %s\n", stage, c)
		if r.Logger != nil {
			r.Logger.Debug("hook", "stage", string(stage), "command", c)
		}
		if err := r.exec(ctx, c); err != nil {
			if r.Logger != nil {
				r.Logger.Error("hook failed", "stage", string(stage), "command", c, "error", err)
			}
			return &Error{Stage: stage, Command: c, Err: err}
		}
	}
	return nil
}

// Around runs pre, then fn, then post. fn's error skips post.
func (r *Runner) Around(ctx context.Context, pre, post Stage, fn func() error) error {
	if err := r.Run(ctx, pre); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return r.Run(ctx, post)
}

func (r *Runner) exec(ctx context.Context, command string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	cmd.Dir = r.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = orDiscard(r.Stdout)
	cmd.Stderr = orDiscard(r.Stderr)
	return cmd.Run()
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
