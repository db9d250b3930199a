// Package trace provides a small Tracer for writing composition steps to stderr
// when --trace is set. No-op when the writer is nil.
package trace

import (
	"fmt"
	"io"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const prefix = "[revise:trace]"

// Tracer writes sectioned trace output. When the underlying writer is nil, all methods no-op.
type Tracer struct {
	w io.Writer
}

// New returns a Tracer that writes to w. If w is nil, all methods no-op.
func New(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

// Enabled returns true if the tracer has a non-nil writer.
func (t *Tracer) Enabled() bool {
	return t != nil && t.w != nil
}

// Section writes a section header: "\n[revise:trace] === name ===\n"
func (t *Tracer) Section(name string) {
	if !t.Enabled() {
		return
	}
	fmt.Fprintf(t.w, "\n%s === %s ===\n", prefix, name)
}

// Printf writes to the trace writer when enabled. Format and args are as in fmt.Printf.
func (t *Tracer) Printf(format string, args ...interface{}) {
	if !t.Enabled() {
		return
	}
	fmt.Fprintf(t.w, format, args...)
}

// Diff writes a character-level diff between before and after, with removals
// wrapped in [-...-] and insertions in {+...+}. Identical inputs write "(unchanged)".
func (t *Tracer) Diff(before, after string) {
	if !t.Enabled() {
		return
	}
	if before == after {
		fmt.Fprintln(t.w, "(unchanged)")
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			fmt.Fprintf(t.w, "[-%s-]", d.Text)
		case diffmatchpatch.DiffInsert:
			fmt.Fprintf(t.w, "{+%s+}", d.Text)
		default:
			fmt.Fprint(t.w, d.Text)
		}
	}
	fmt.Fprintln(t.w)
}
