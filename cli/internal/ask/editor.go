package ask

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"revise/cli/internal/erruser"
)

// Editor runs an external editor on a temporary file.
type Editor struct {
	// Command is the editor command line; empty resolves GIT_EDITOR, VISUAL,
	// EDITOR, then a platform default.
	Command string
	// Env is used for resolution when non-nil; otherwise os.Getenv.
	Env func(string) string
}

func (e Editor) command() string {
	if c := strings.TrimSpace(e.Command); c != "" {
		return c
	}
	getenv := e.Env
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, key := range []string{"GIT_EDITOR", "VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
	}
	if runtime.GOOS == "windows" {
		return "notepad"
	}
	return "vi"
}

// Edit writes seed to a temporary file, runs the editor on it and returns the
// file contents afterwards, unmodified. The editor has no timeout.
func (e Editor) Edit(ctx context.Context, seed string) (string, error) {
	f, err := os.CreateTemp("", "revise-COMMIT_EDITMSG-*")
	if err != nil {
		return "", erruser.New("Could not create a file for the editor.", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.WriteString(seed); err != nil {
		f.Close()
		return "", erruser.New("Could not create a file for the editor.", err)
	}
	if err := f.Close(); err != nil {
		return "", erruser.New("Could not create a file for the editor.", err)
	}

	editor := e.command()
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", editor+" "+path)
	} else {
		// Same invocation git uses, so editor strings with arguments work.
		cmd = exec.CommandContext(ctx, "sh", "-c", editor+` "$@"`, editor, path)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", erruser.WithHint("The editor exited with an error.",
			"Set GIT_EDITOR, VISUAL or EDITOR to a working editor.", fmt.Errorf("%s: %w", editor, err))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", erruser.New("Could not read the edited message.", err)
	}
	return string(data), nil
}
