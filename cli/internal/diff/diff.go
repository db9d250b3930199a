// Package diff turns a unified patch (the output of `git diff --cached`) into
// an ordered, file-scoped DiffDocument and renders it back as the plain text
// sent to the AI backend.
//
// # Exclusion
// Exclusion is decided once per file: when the owning file changes, the
// basename of the new file becomes the key that is looked up in the exclude
// set; every line until the next file boundary is kept or dropped with it.
// Deleted files are keyed by their old path.
//
// # Rendering
// Only hunk body lines are rendered, each prefixed with "+", "-" or a single
// space. File headers, hunk headers and "\ No newline at end of file" markers
// are not part of the output. An empty patch renders as "".
//
// # Binary files
// Git emits no hunks for binary files, so they contribute no lines.
package diff

import (
	"path"
	"strings"
)

// Polarity is the kind of change a diff line records.
type Polarity int

const (
	Context Polarity = iota
	Added
	Removed
)

// Prefix returns the single character used in unified diffs for p.
func (p Polarity) Prefix() string {
	switch p {
	case Added:
		return "+"
	case Removed:
		return "-"
	default:
		return " "
	}
}

func (p Polarity) String() string {
	switch p {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "context"
	}
}

// Line is one hunk body line with its owning file (repo-relative, forward slashes).
type Line struct {
	File     string
	Polarity Polarity
	Text     string
}

// Document is the ordered sequence of lines of a patch, in source order.
type Document struct {
	Lines []Line
}

// Files returns the distinct owning files in order of first appearance.
func (d *Document) Files() []string {
	if d == nil {
		return nil
	}
	var files []string
	seen := make(map[string]struct{})
	for _, l := range d.Lines {
		if _, ok := seen[l.File]; ok {
			continue
		}
		seen[l.File] = struct{}{}
		files = append(files, l.File)
	}
	return files
}

// ExcludeSet holds file basenames whose lines are dropped when rendering.
type ExcludeSet map[string]struct{}

// NewExcludeSet builds a set from names. Blank names are ignored and any
// directory part is stripped, so "docs/README.md" excludes every README.md.
func NewExcludeSet(names ...string) ExcludeSet {
	s := make(ExcludeSet, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		s[path.Base(n)] = struct{}{}
	}
	return s
}

// Excludes reports whether file's basename is in s.
func (s ExcludeSet) Excludes(file string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[path.Base(file)]
	return ok
}

// Render writes every line not owned by an excluded file as
// "<prefix><text>\n", preserving document order.
func (d *Document) Render(exclude ExcludeSet) string {
	if d == nil || len(d.Lines) == 0 {
		return ""
	}
	var b strings.Builder
	current := ""
	excluded := false
	for i, l := range d.Lines {
		if i == 0 || l.File != current {
			current = l.File
			excluded = exclude.Excludes(current)
		}
		if excluded {
			continue
		}
		b.WriteString(l.Polarity.Prefix())
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
