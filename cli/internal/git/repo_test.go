package git

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"revise/cli/internal/diff"
	"revise/cli/internal/erruser"
	"revise/cli/internal/trace"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run(t, dir, "git", "init")
	run(t, dir, "git", "config", "user.email", "test@revise.local")
	run(t, dir, "git", "config", "user.name", "Test")
	run(t, dir, "git", "config", "commit.gpgsign", "false")
	writeFile(t, dir, "f1.txt", "a\n")
	run(t, dir, "git", "add", "f1.txt")
	run(t, dir, "git", "commit", "-m", "c1")
	return dir
}

func run(t *testing.T, dir, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %v: %v\n%s", name, args, err, out)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// headMessage returns the raw message stored in HEAD, byte for byte.
func headMessage(t *testing.T, dir string) string {
	t.Helper()
	cmd := exec.Command("git", "cat-file", "commit", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git cat-file: %v", err)
	}
	_, msg, ok := strings.Cut(string(out), "\n\n")
	if !ok {
		t.Fatalf("commit object without message: %q", out)
	}
	return msg
}

func runOut(t *testing.T, dir, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("%s %v: %v", name, args, err)
	}
	return strings.TrimSpace(string(out))
}

func TestRepoRoot_fromRoot(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	got, err := RepoRoot(repo)
	if err != nil {
		t.Fatalf("RepoRoot: %v", err)
	}
	want := runOut(t, repo, "git", "rev-parse", "--show-toplevel")
	if got != want {
		t.Errorf("RepoRoot(%q) = %q, want %q", repo, got, want)
	}
}

func TestRepoRoot_fromSubdir(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	subdir := filepath.Join(repo, "sub", "dir")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	got, err := RepoRoot(subdir)
	if err != nil {
		t.Fatalf("RepoRoot: %v", err)
	}
	want := runOut(t, repo, "git", "rev-parse", "--show-toplevel")
	if got != want {
		t.Errorf("RepoRoot(subdir) = %q, want %q", got, want)
	}
}

func TestRepoRoot_notARepo(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := RepoRoot(dir)
	if err == nil {
		t.Fatal("RepoRoot(non-repo): expected error")
	}
	if erruser.HintOf(err) == "" {
		t.Error("RepoRoot(non-repo): want a recovery hint")
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("RepoRoot(non-repo): want *CommandError in chain, got %T", err)
	}
}

func TestDiff_noStagedChanges(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	r := &Repo{Root: repo}
	got, err := r.Diff(context.Background(), nil)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if got != "" {
		t.Errorf("Diff with nothing staged = %q, want empty", got)
	}
}

func TestDiff_stagedOnly(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	writeFile(t, repo, "f1.txt", "a\nb\n")
	run(t, repo, "git", "add", "f1.txt")
	writeFile(t, repo, "unstaged.txt", "ignored\n")
	r := &Repo{Root: repo}
	got, err := r.Diff(context.Background(), nil)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	want := " a\n+b\n"
	if got != want {
		t.Errorf("Diff = %q, want %q", got, want)
	}
}

func TestDiff_excludesByBasename(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	writeFile(t, repo, "README.md", "docs\n")
	writeFile(t, repo, "main.go", "package main\n")
	run(t, repo, "git", "add", "README.md", "main.go")
	r := &Repo{Root: repo}
	got, err := r.Diff(context.Background(), diff.NewExcludeSet("README.md"))
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if got != "+package main\n" {
		t.Errorf("Diff = %q, want only main.go lines", got)
	}
}

func TestDiff_traceListsIncludedAndExcludedFiles(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	writeFile(t, repo, "README.md", "docs\n")
	writeFile(t, repo, "main.go", "package main\n")
	run(t, repo, "git", "add", "README.md", "main.go")
	var buf bytes.Buffer
	r := &Repo{Root: repo, Tracer: trace.New(&buf)}
	if _, err := r.Diff(context.Background(), diff.NewExcludeSet("README.md")); err != nil {
		t.Fatalf("Diff: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"=== Diff files ===", "excluded README.md\n", "included main.go\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace missing %q:\n%s", want, out)
		}
	}
}

func TestDiff_minify(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	writeFile(t, repo, "main.go", "func f() {\n\treturn   nil\n}\n")
	writeFile(t, repo, "notes.txt", "  indented\n")
	run(t, repo, "git", "add", "main.go", "notes.txt")
	r := &Repo{Root: repo, Minify: true}
	got, err := r.Diff(context.Background(), nil)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	want := "+func f() {\n+return nil\n+}\n+  indented\n"
	if got != want {
		t.Errorf("Diff = %q, want %q", got, want)
	}
}

func TestStagedPatch_initialCommit(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	run(t, dir, "git", "init")
	writeFile(t, dir, "new.txt", "hello\n")
	run(t, dir, "git", "add", "new.txt")
	r := &Repo{Root: dir}
	patch, err := r.StagedPatch(context.Background())
	if err != nil {
		t.Fatalf("StagedPatch: %v", err)
	}
	if !strings.Contains(patch, "+hello") {
		t.Errorf("StagedPatch = %q, want added line", patch)
	}
}

func TestAdd_emptyIsNoop(t *testing.T) {
	t.Parallel()
	r := &Repo{Root: t.TempDir()}
	if err := r.Add(context.Background(), nil); err != nil {
		t.Errorf("Add(nil): %v", err)
	}
}

func TestAdd_stagesPaths(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	writeFile(t, repo, "a.txt", "1\n")
	writeFile(t, repo, "b.txt", "2\n")
	r := &Repo{Root: repo}
	if err := r.Add(context.Background(), []string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	staged := runOut(t, repo, "git", "diff", "--cached", "--name-only")
	if staged != "a.txt" {
		t.Errorf("staged = %q, want a.txt", staged)
	}
}

func TestAdd_unknownPath(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	r := &Repo{Root: repo}
	err := r.Add(context.Background(), []string{"missing.txt"})
	if err == nil {
		t.Fatal("Add(missing): expected error")
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("want *CommandError, got %T", err)
	}
	if cmdErr.Stderr == "" {
		t.Error("CommandError.Stderr should carry git output")
	}
}

func TestCommit_recordsMessageVerbatim(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	writeFile(t, repo, "f1.txt", "changed\n")
	run(t, repo, "git", "add", "f1.txt")
	r := &Repo{Root: repo}
	msg := "feat(core)!: add thing (#1)\n\nbody line\n\n\nBREAKING CHANGE: api"
	if err := r.Commit(context.Background(), msg); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := headMessage(t, repo); got != msg {
		t.Errorf("commit message = %q, want %q", got, msg)
	}
}

func TestCommit_ignoresCleanupConfig(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	run(t, repo, "git", "config", "commit.cleanup", "strip")
	writeFile(t, repo, "f1.txt", "changed\n")
	run(t, repo, "git", "add", "f1.txt")
	r := &Repo{Root: repo}
	msg := "feat: add parser\n\n# Overview\nImplements tokenizer  \n\n\nBREAKING CHANGE: api"
	if err := r.Commit(context.Background(), msg); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := headMessage(t, repo); got != msg {
		t.Errorf("commit message = %q, want %q", got, msg)
	}
}

func TestCommit_nothingStaged(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	r := &Repo{Root: repo}
	if err := r.Commit(context.Background(), "chore: nothing"); err == nil {
		t.Fatal("Commit with nothing staged: expected error")
	}
}

func TestCommandError_Error(t *testing.T) {
	t.Parallel()
	e := &CommandError{Args: []string{"commit", "-F", "-"}, Stderr: "nothing to commit", Err: errors.New("exit status 1")}
	want := "git commit -F -: exit status 1: nothing to commit"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(e, e.Err) {
		t.Error("errors.Is(e, e.Err) should be true")
	}
}

func TestMinimalEnv_includesHOMEWhenSet(t *testing.T) {
	home := os.Getenv("HOME")
	if home == "" {
		t.Skip("HOME not set")
	}
	env := minimalEnv()
	found := false
	for _, e := range env {
		if e == "HOME="+home {
			found = true
		}
		if strings.HasPrefix(e, "GIT_DIR=") {
			t.Errorf("minimalEnv leaked %q", e)
		}
	}
	if !found {
		t.Errorf("minimalEnv() missing HOME=%q", home)
	}
}
