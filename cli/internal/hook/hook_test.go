package hook

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revise/cli/internal/config"
)

func skipWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("hook tests use sh")
	}
}

func TestRunner_Run_inOrderInDir(t *testing.T) {
	t.Parallel()
	skipWindows(t)
	dir := t.TempDir()
	var out bytes.Buffer
	r := &Runner{
		Dir: dir,
		Hooks: map[Stage][]string{
			PreCommit: {"echo one >> log.txt", "  ", "echo two >> log.txt && pwd"},
		},
		Stdout: &out,
	}
	require.NoError(t, r.Run(context.Background(), PreCommit))
	data, err := os.ReadFile(filepath.Join(dir, "log.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, out.String(), filepath.Base(resolved))
}

func TestRunner_Run_failureStops(t *testing.T) {
	t.Parallel()
	skipWindows(t)
	dir := t.TempDir()
	var stderr bytes.Buffer
	r := &Runner{
		Dir:    dir,
		Hooks:  map[Stage][]string{PreAdd: {"echo boom >&2; exit 3", "touch after"}},
		Stderr: &stderr,
	}
	err := r.Run(context.Background(), PreAdd)
	var he *Error
	require.ErrorAs(t, err, &he)
	assert.Equal(t, PreAdd, he.Stage)
	assert.Equal(t, `The pre_add hook "echo boom >&2; exit 3" failed.`, he.Error())
	var exitErr interface{ ExitCode() int }
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())
	assert.Equal(t, "boom\n", stderr.String())
	assert.NoFileExists(t, filepath.Join(dir, "after"))
}

func TestRunner_nilAndEmpty(t *testing.T) {
	t.Parallel()
	var r *Runner
	assert.NoError(t, r.Run(context.Background(), PostCommit))
	assert.NoError(t, (&Runner{}).Run(context.Background(), PostCommit))
}

func TestRunner_Around(t *testing.T) {
	t.Parallel()
	skipWindows(t)
	dir := t.TempDir()
	r := &Runner{Dir: dir, Hooks: map[Stage][]string{
		PreCommit:  {"echo pre >> log.txt"},
		PostCommit: {"echo post >> log.txt"},
	}}
	err := r.Around(context.Background(), PreCommit, PostCommit, func() error {
		return os.WriteFile(filepath.Join(dir, "log.txt"), []byte("pre\nfn\n"), 0o644)
	})
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "log.txt"))
	require.NoError(t, err)
	assert.Equal(t, "pre\nfn\npost\n", string(data))

	fnErr := errors.New("commit failed")
	err = r.Around(context.Background(), PreCommit, PostCommit, func() error { return fnErr })
	assert.Same(t, fnErr, err)
	data, err = os.ReadFile(filepath.Join(dir, "log.txt"))
	require.NoError(t, err)
	assert.Equal(t, "pre\nfn\npost\npre\n", string(data), "post hook must not run after a failure")
}

func TestRunner_Around_preFailureSkipsFn(t *testing.T) {
	t.Parallel()
	skipWindows(t)
	r := &Runner{Dir: t.TempDir(), Hooks: map[Stage][]string{PreCommit: {"false"}}}
	called := false
	err := r.Around(context.Background(), PreCommit, PostCommit, func() error {
		called = true
		return nil
	})
	var he *Error
	assert.ErrorAs(t, err, &he)
	assert.False(t, called)
}

func TestFromConfig(t *testing.T) {
	t.Parallel()
	got := FromConfig(config.Hooks{PreAdd: []string{"a"}, PostCommit: []string{"b", "c"}})
	assert.Equal(t, []string{"a"}, got[PreAdd])
	assert.Empty(t, got[PostAdd])
	assert.Empty(t, got[PreCommit])
	assert.Equal(t, []string{"b", "c"}, got[PostCommit])
}
