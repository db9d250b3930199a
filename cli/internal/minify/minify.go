// Package minify reduces whitespace in diff lines of whitespace-insensitive
// languages to cut prompt tokens. For Go and Rust files each line's text has
// its leading whitespace trimmed and runs of spaces and tabs collapsed to one
// space; polarity and line order are unchanged. Other files pass through.
package minify

import (
	"path"
	"strings"

	"revise/cli/internal/diff"
)

var supported = map[string]bool{
	".go": true,
	".rs": true,
}

// Supported reports whether file's lines are minified.
func Supported(file string) bool {
	return supported[strings.ToLower(path.Ext(file))]
}

// Line trims leading whitespace from text and collapses runs of spaces and
// tabs to a single space. String and comment bodies are not special-cased.
func Line(text string) string {
	return collapseSpaces(strings.TrimLeft(text, " \t"))
}

// Document returns a copy of doc with the lines of supported files minified.
// doc is not modified. A nil doc returns nil.
func Document(doc *diff.Document) *diff.Document {
	if doc == nil {
		return nil
	}
	out := &diff.Document{Lines: make([]diff.Line, len(doc.Lines))}
	for i, l := range doc.Lines {
		if Supported(l.File) {
			l.Text = Line(l.Text)
		}
		out.Lines[i] = l
	}
	return out
}

// collapseSpaces replaces runs of spaces (and tabs) with a single space.
// Does not modify newlines or other characters.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wasSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
			continue
		}
		wasSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
