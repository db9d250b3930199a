// Package git is the VCS collaborator: it finds the repository root, reads
// the staged patch, stages paths and records commits by running the git binary.
package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"revise/cli/internal/diff"
	"revise/cli/internal/erruser"
	"revise/cli/internal/minify"
	"revise/cli/internal/trace"
)

// CommandError is returned when a git subprocess fails. Stderr holds the
// trimmed error output of git.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := "git " + strings.Join(e.Args, " ") + ": " + e.Err.Error()
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// RepoRoot returns the absolute path of the git repository root containing dir.
// Runs "git rev-parse --show-toplevel" with Dir=dir. Returns error if dir is
// not inside a git repository.
func RepoRoot(dir string) (string, error) {
	out, err := output(context.Background(), dir, minimalEnv(), nil, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", erruser.WithHint("This directory is not inside a Git repository.",
			"Run revise from inside a repository or run `git init` first.", err)
	}
	return filepath.Abs(strings.TrimSpace(out))
}

// Repo runs git commands in a repository root.
type Repo struct {
	Root string
	// Minify collapses whitespace in Go and Rust lines returned by Diff.
	Minify bool
	// Tracer, when enabled, lists the files Diff includes and excludes.
	Tracer *trace.Tracer
}

// Open returns a Repo for the repository containing dir.
func Open(dir string) (*Repo, error) {
	root, err := RepoRoot(dir)
	if err != nil {
		return nil, err
	}
	return &Repo{Root: root}, nil
}

// StagedPatch returns the unified diff between HEAD (or the empty tree in a
// repository without commits) and the index.
func (r *Repo) StagedPatch(ctx context.Context) (string, error) {
	out, err := output(ctx, r.Root, minimalEnv(), nil, "diff", "--cached", "--no-color", "--no-ext-diff")
	if err != nil {
		return "", erruser.New("Could not read staged changes.", err)
	}
	return out, nil
}

// Diff returns the staged changes rendered as polarity-prefixed lines, with
// every line of a file whose basename is in exclude removed. No staged changes
// yields "".
func (r *Repo) Diff(ctx context.Context, exclude diff.ExcludeSet) (string, error) {
	patch, err := r.StagedPatch(ctx)
	if err != nil {
		return "", err
	}
	doc, err := diff.Parse(patch)
	if err != nil {
		return "", erruser.New("Could not parse staged changes.", err)
	}
	if r.Tracer.Enabled() {
		r.Tracer.Section("Diff files")
		for _, f := range doc.Files() {
			state := "included"
			if exclude.Excludes(f) {
				state = "excluded"
			}
			r.Tracer.Printf("%s %s\n", state, f)
		}
	}
	if r.Minify {
		doc = minify.Document(doc)
	}
	return doc.Render(exclude), nil
}

// Add stages paths ("git add -- <paths>"). An empty paths slice is a no-op.
func (r *Repo) Add(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	if _, err := output(ctx, r.Root, commitEnv(), nil, args...); err != nil {
		return erruser.New("Could not stage files.", err)
	}
	return nil
}

// Commit records the index with message. The message is passed on stdin
// with --cleanup=verbatim, so blank-line runs, trailing whitespace and "#"
// lines are stored as given regardless of commit.cleanup; git's own hooks
// still run.
func (r *Repo) Commit(ctx context.Context, message string) error {
	if _, err := output(ctx, r.Root, commitEnv(), strings.NewReader(message), "commit", "--cleanup=verbatim", "-F", "-"); err != nil {
		return erruser.New("Git commit failed.", err)
	}
	return nil
}

func output(ctx context.Context, dir string, env []string, stdin *strings.Reader, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = env
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", &CommandError{Args: args, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return string(out), nil
}

// minimalEnv is used for read-only commands so user pager and colour settings
// cannot change the output format.
func minimalEnv() []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"GIT_TERMINAL_PROMPT=0",
		"GIT_PAGER=cat",
	}
	if home := os.Getenv("HOME"); home != "" {
		env = append(env, "HOME="+home)
	} else if runtime.GOOS == "windows" {
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			env = append(env, "HOME="+profile)
		}
	}
	return env
}

// commitEnv keeps the full environment so signing agents, identities and
// hooks configured by the user keep working.
func commitEnv() []string {
	return append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
}
