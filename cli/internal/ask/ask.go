// Package ask is the interactive surface: single-choice selects, single-line
// and multi-line text prompts, the external editor and a waiting indicator.
package ask

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// ErrCancelled is returned when the user interrupts a prompt. Callers treat it
// as a clean no-op outcome, never as a failure.
var ErrCancelled = errors.New("prompt cancelled")

// Prompter asks the user for values. Implementations return ErrCancelled when
// the user interrupts.
type Prompter interface {
	// Select shows options and returns the chosen one.
	Select(ctx context.Context, title string, options []string) (string, error)
	// Input reads one line. validate, if non-nil, is applied before the value is
	// accepted; a validation error re-prompts and never escapes.
	Input(ctx context.Context, title, help string, validate func(string) error) (string, error)
	// Text reads multi-line text; empty means none.
	Text(ctx context.Context, title string) (string, error)
	// Editor opens an external editor seeded with seed and returns the saved text verbatim.
	Editor(ctx context.Context, seed string) (string, error)
	// Wait shows title while fn runs and returns fn's error unchanged.
	Wait(ctx context.Context, title string, fn func() error) error
}

// Terminal is the huh-backed Prompter.
type Terminal struct {
	In  io.Reader
	Out io.Writer
	// Accessible switches huh to line-based prompts and disables the spinner;
	// set it when stdin or stdout is not a terminal.
	Accessible bool
	Edit       Editor
}

// NewTerminal returns a Terminal on the process stdio.
func NewTerminal(accessible bool) *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stdout, Accessible: accessible}
}

func (t *Terminal) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithAccessible(t.Accessible).
		WithShowHelp(!t.Accessible)
	if t.In != nil {
		form = form.WithInput(t.In)
	}
	if t.Out != nil {
		form = form.WithOutput(t.Out)
	}
	return mapCancel(form.RunWithContext(ctx))
}

func mapCancel(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
		return ErrCancelled
	}
	return err
}

// Select implements Prompter.
func (t *Terminal) Select(ctx context.Context, title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("select %q: no options", title)
	}
	value := options[0]
	field := huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(options...)...).
		Value(&value)
	if err := t.run(ctx, field); err != nil {
		return "", err
	}
	return value, nil
}

// Input implements Prompter.
func (t *Terminal) Input(ctx context.Context, title, help string, validate func(string) error) (string, error) {
	var value string
	field := huh.NewInput().Title(title).Value(&value)
	if help != "" {
		field = field.Description(help)
	}
	if validate != nil {
		field = field.Validate(validate)
	}
	if err := t.run(ctx, field); err != nil {
		return "", err
	}
	return value, nil
}

// Text implements Prompter.
func (t *Terminal) Text(ctx context.Context, title string) (string, error) {
	var value string
	field := huh.NewText().Title(title).Value(&value)
	if err := t.run(ctx, field); err != nil {
		return "", err
	}
	return value, nil
}

// Editor implements Prompter.
func (t *Terminal) Editor(ctx context.Context, seed string) (string, error) {
	return t.Edit.Edit(ctx, seed)
}

// Wait implements Prompter. In accessible mode the title is printed and fn
// runs without animation.
func (t *Terminal) Wait(ctx context.Context, title string, fn func() error) error {
	if t.Accessible {
		if t.Out != nil {
			fmt.Fprintln(t.Out, title)
		}
		return fn()
	}
	var fnErr error
	err := spinner.New().
		Title(title).
		Context(ctx).
		Action(func() { fnErr = fn() }).
		Run()
	if err != nil {
		return mapCancel(err)
	}
	return fnErr
}
