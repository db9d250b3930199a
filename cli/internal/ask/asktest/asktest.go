// Package asktest provides a scripted ask.Prompter for tests.
package asktest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"revise/cli/internal/ask"
)

// Answer is one scripted reply. Value is returned as the prompt's value; Err,
// when set, is returned instead.
type Answer struct {
	Value string
	Err   error
}

// Call records one prompt the code under test issued.
type Call struct {
	Kind    string // select, input, text, editor or wait
	Title   string
	Options []string
	Seed    string
}

// Script replies to prompts in order. Input validators run against each
// answer; a rejected answer consumes the next one, as a user re-typing would.
type Script struct {
	mu      sync.Mutex
	answers []Answer
	calls   []Call
	// OnWait runs before fn in Wait when set.
	OnWait func()
}

// New returns a Script that answers with values in order.
func New(values ...string) *Script {
	s := &Script{}
	for _, v := range values {
		s.answers = append(s.answers, Answer{Value: v})
	}
	return s
}

// Then appends raw answers.
func (s *Script) Then(answers ...Answer) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, answers...)
	return s
}

// Cancel appends an answer that cancels the prompt.
func (s *Script) Cancel() *Script {
	return s.Then(Answer{Err: ask.ErrCancelled})
}

// Calls returns the prompts issued so far.
func (s *Script) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Titles returns the titles of the prompts issued so far, waits excluded.
func (s *Script) Titles() []string {
	var out []string
	for _, c := range s.Calls() {
		if c.Kind != "wait" {
			out = append(out, c.Title)
		}
	}
	return out
}

// Remaining reports how many answers were not consumed.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

func (s *Script) next(c Call) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	if len(s.answers) == 0 {
		return Answer{}, fmt.Errorf("asktest: no answer scripted for %s %q", c.Kind, c.Title)
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

// Select implements ask.Prompter. The answer must be one of options.
func (s *Script) Select(ctx context.Context, title string, options []string) (string, error) {
	a, err := s.next(Call{Kind: "select", Title: title, Options: append([]string(nil), options...)})
	if err != nil {
		return "", err
	}
	if a.Err != nil {
		return "", a.Err
	}
	for _, o := range options {
		if o == a.Value {
			return a.Value, nil
		}
	}
	return "", fmt.Errorf("asktest: %q is not an option of %q: %s", a.Value, title, strings.Join(options, ", "))
}

// Input implements ask.Prompter.
func (s *Script) Input(ctx context.Context, title, help string, validate func(string) error) (string, error) {
	for {
		a, err := s.next(Call{Kind: "input", Title: title})
		if err != nil {
			return "", err
		}
		if a.Err != nil {
			return "", a.Err
		}
		if validate != nil && validate(a.Value) != nil {
			continue
		}
		return a.Value, nil
	}
}

// Text implements ask.Prompter.
func (s *Script) Text(ctx context.Context, title string) (string, error) {
	a, err := s.next(Call{Kind: "text", Title: title})
	if err != nil {
		return "", err
	}
	return a.Value, a.Err
}

// Editor implements ask.Prompter.
func (s *Script) Editor(ctx context.Context, seed string) (string, error) {
	a, err := s.next(Call{Kind: "editor", Title: "editor", Seed: seed})
	if err != nil {
		return "", err
	}
	return a.Value, a.Err
}

// Wait implements ask.Prompter. It consumes no answer.
func (s *Script) Wait(ctx context.Context, title string, fn func() error) error {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Kind: "wait", Title: title})
	onWait := s.OnWait
	s.mu.Unlock()
	if onWait != nil {
		onWait()
	}
	return fn()
}

var _ ask.Prompter = (*Script)(nil)
