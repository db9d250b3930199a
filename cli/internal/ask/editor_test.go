package ask

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revise/cli/internal/erruser"
)

func TestEditor_command(t *testing.T) {
	t.Parallel()
	env := map[string]string{}
	e := Editor{Env: func(k string) string { return env[k] }}
	if runtime.GOOS == "windows" {
		assert.Equal(t, "notepad", e.command())
	} else {
		assert.Equal(t, "vi", e.command())
	}
	env["EDITOR"] = "nano"
	assert.Equal(t, "nano", e.command())
	env["VISUAL"] = "code --wait"
	assert.Equal(t, "code --wait", e.command())
	env["GIT_EDITOR"] = "vim"
	assert.Equal(t, "vim", e.command())
	e.Command = "emacs"
	assert.Equal(t, "emacs", e.command())
}

func TestEditor_Edit_returnsFileVerbatim(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	t.Parallel()
	e := Editor{Command: "printf 'custom: msg' >"}
	got, err := e.Edit(context.Background(), "feat: seeded")
	require.NoError(t, err)
	assert.Equal(t, "custom: msg", got)
}

func TestEditor_Edit_seedKeptWhenUnchanged(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	t.Parallel()
	e := Editor{Command: "true"}
	got, err := e.Edit(context.Background(), "feat(core): add x\n\nbody\n")
	require.NoError(t, err)
	assert.Equal(t, "feat(core): add x\n\nbody\n", got)
}

func TestEditor_Edit_failingEditor(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	t.Parallel()
	e := Editor{Command: "false"}
	_, err := e.Edit(context.Background(), "seed")
	require.Error(t, err)
	assert.NotEmpty(t, erruser.HintOf(err))
}
